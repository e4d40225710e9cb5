/*
 *
 * Copyright 2025 adhd authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package shm

import "fmt"

// CreateHeaderAndBuffer partitions one stream segment into a Header over
// the control region and a Buffer over the samples that follow it. Both
// carry the identical samples length, which keeps the two views
// non-overlapping: the Header validates every offset against the same
// span the Buffer exposes.
//
// The descriptor stays usable (and must stay open) until both returned
// objects have mapped it, which happens before this function returns; it
// may be closed any time afterwards.
func CreateHeaderAndBuffer(d *Descriptor) (*Header, *Buffer, error) {
	if d.Capacity() < ControlRegionSize {
		return nil, nil, fmt.Errorf("%w: declared %d bytes, control region needs %d",
			ErrCapacityTooSmall, d.Capacity(), ControlRegionSize)
	}
	samplesLen := d.Capacity() - ControlRegionSize

	header, err := newHeader(d, samplesLen)
	if err != nil {
		return nil, nil, err
	}
	buffer, err := newBuffer(d, d.Capacity(), samplesLen)
	if err != nil {
		header.Close()
		return nil, nil, err
	}
	return header, buffer, nil
}
