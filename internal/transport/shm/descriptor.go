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

// Descriptor owns a shared memory file descriptor together with the byte
// capacity the server declared for it. The session layer hands one over
// for every stream connection.
//
// NewDescriptor performs no validation. The caller must guarantee that fd
// refers to a shared memory object backed by at least capacity bytes and
// that no one else will close it; the Descriptor becomes the sole owner
// and closes the fd exactly once.
type Descriptor struct {
	fd       int
	capacity uint64
}

// NewDescriptor wraps fd and its declared capacity without touching
// either.
func NewDescriptor(fd int, capacity uint64) *Descriptor {
	return &Descriptor{fd: fd, capacity: capacity}
}

// Fd returns the underlying file descriptor, or -1 after Close.
func (d *Descriptor) Fd() int {
	return d.fd
}

// Capacity returns the declared size of the shared memory object.
func (d *Descriptor) Capacity() uint64 {
	return d.capacity
}

// Close releases the file descriptor. Closing is independent of any
// mapping derived from the descriptor; mappings stay valid until unmapped
// on their own. Subsequent calls are no-ops.
func (d *Descriptor) Close() error {
	if d.fd < 0 {
		return nil
	}
	fd := d.fd
	d.fd = -1
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close shm fd: %w", err)
	}
	return nil
}
