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
	"bytes"
	"testing"

	"golang.org/x/sys/unix"
)

func TestBufferBytesSpansSampleRegion(t *testing.T) {
	d := memfdDescriptor(t, ControlRegionSize+32)

	b, err := newBuffer(d, d.Capacity(), 32)
	if err != nil {
		t.Fatalf("newBuffer: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	samples := b.Bytes()
	if len(samples) != 32 {
		t.Fatalf("len(Bytes) = %d, want 32", len(samples))
	}
	for i := range samples {
		samples[i] = byte(i)
	}

	// The write must land at ControlRegionSize in the underlying object,
	// as seen through an independent mapping.
	other, err := mapShared(d.Fd(), int(d.Capacity()), unix.PROT_READ)
	if err != nil {
		t.Fatalf("map verify view: %v", err)
	}
	t.Cleanup(func() { unmapShared(other) })

	if !bytes.Equal(other[ControlRegionSize:], samples) {
		t.Error("sample bytes not visible at the expected offset through a second mapping")
	}
	if !bytes.Equal(other[:ControlRegionSize], make([]byte, ControlRegionSize)) {
		t.Error("sample writes leaked into the control region")
	}
}

func TestBufferCloseIdempotent(t *testing.T) {
	d := memfdDescriptor(t, ControlRegionSize+16)

	b, err := newBuffer(d, d.Capacity(), 16)
	if err != nil {
		t.Fatalf("newBuffer: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("first Close = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestMapSharedBadFd(t *testing.T) {
	if _, err := mapShared(-1, 64, unix.PROT_READ); err == nil {
		t.Error("mapShared accepted fd -1")
	}
}
