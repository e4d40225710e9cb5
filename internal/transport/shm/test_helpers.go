/*
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
 */

package shm

import (
	"testing"

	"golang.org/x/sys/unix"
)

// memfdDescriptor creates a descriptor over a fresh anonymous shared
// memory object of the given size. Cleanup is registered with t.Cleanup
// so the fd is released even if the test fails.
func memfdDescriptor(t *testing.T, size uint64) *Descriptor {
	t.Helper()

	fd, err := unix.MemfdCreate("shm-test", unix.MFD_CLOEXEC)
	if err != nil {
		t.Fatalf("memfd_create: %v", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		t.Fatalf("ftruncate to %d: %v", size, err)
	}

	d := NewDescriptor(fd, size)
	t.Cleanup(func() { d.Close() })
	return d
}

// headerForTest maps a header with the given samples length over a fresh
// segment. The whole control region starts zeroed.
func headerForTest(t *testing.T, samplesLen uint64) *Header {
	t.Helper()

	d := memfdDescriptor(t, ControlRegionSize+samplesLen)
	h, err := newHeader(d, samplesLen)
	if err != nil {
		t.Fatalf("newHeader: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}
