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

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Buffer exposes the samples region of one stream segment. It holds its
// own mapping of the object, separate from the Header's mapping of the
// control prefix, and releases it independently.
type Buffer struct {
	mem        []byte
	samplesLen uint64
}

// newBuffer maps mapLen bytes of d (control region plus samples) and
// positions the sample view at ControlRegionSize.
func newBuffer(d *Descriptor, mapLen, samplesLen uint64) (*Buffer, error) {
	mem, err := mapShared(d.Fd(), int(mapLen), unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return nil, fmt.Errorf("map sample region: %w", err)
	}
	return &Buffer{mem: mem, samplesLen: samplesLen}, nil
}

// Bytes returns the mutable sample view, exactly SamplesLen bytes
// starting right after the control region.
//
// The caller must write only within the slot reported by
// Header.OffsetAndLen and must finish writing before committing that
// slot; the ordered stores in CommitWrittenFrames are the only thing
// sequencing these writes against the server's reads. Only one caller at
// a time may hold the returned slice.
func (b *Buffer) Bytes() []byte {
	return b.mem[ControlRegionSize : ControlRegionSize+b.samplesLen]
}

// SamplesLen returns the byte length of the sample view.
func (b *Buffer) SamplesLen() uint64 {
	return b.samplesLen
}

// Close unmaps the buffer's mapping. It has no effect on the Header's
// mapping of the same object. Subsequent calls are no-ops.
func (b *Buffer) Close() error {
	if b.mem == nil {
		return nil
	}
	mem := b.mem
	b.mem = nil
	return unmapShared(mem)
}
