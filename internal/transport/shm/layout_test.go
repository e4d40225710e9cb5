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
	"math"
	"testing"
	"unsafe"
)

func TestControlAreaSize(t *testing.T) {
	// The server computes the samples offset from its own definition of
	// this structure; both sides must agree exactly.
	if size := unsafe.Sizeof(controlArea{}); size != ControlRegionSize {
		t.Errorf("controlArea size = %d, want %d", size, ControlRegionSize)
	}
}

func TestControlAreaFieldOffsets(t *testing.T) {
	a := &controlArea{}

	tests := []struct {
		name   string
		offset uintptr
		want   uintptr
	}{
		{"usedSize", unsafe.Offsetof(a.usedSize), 0x00},
		{"frameBytes", unsafe.Offsetof(a.frameBytes), 0x04},
		{"readBufIdx", unsafe.Offsetof(a.readBufIdx), 0x08},
		{"writeBufIdx", unsafe.Offsetof(a.writeBufIdx), 0x0C},
		{"readOffset", unsafe.Offsetof(a.readOffset), 0x10},
		{"writeOffset", unsafe.Offsetof(a.writeOffset), 0x18},
		{"writeInProgress", unsafe.Offsetof(a.writeInProgress), 0x20},
		{"volumeScaler", unsafe.Offsetof(a.volumeScaler), 0x28},
		{"mute", unsafe.Offsetof(a.mute), 0x2C},
		{"callbackPending", unsafe.Offsetof(a.callbackPending), 0x30},
		{"numOverruns", unsafe.Offsetof(a.numOverruns), 0x34},
		{"tsSec", unsafe.Offsetof(a.tsSec), 0x38},
		{"tsNsec", unsafe.Offsetof(a.tsNsec), 0x40},
	}

	for _, tt := range tests {
		if tt.offset != tt.want {
			t.Errorf("offset of %s = %#x, want %#x", tt.name, tt.offset, tt.want)
		}
	}
}

func TestServerStateAreaSize(t *testing.T) {
	if size := unsafe.Sizeof(serverStateArea{}); size != ServerStateSize {
		t.Errorf("serverStateArea size = %d, want %d", size, ServerStateSize)
	}
}

func TestServerStateAreaFieldOffsets(t *testing.T) {
	a := &serverStateArea{}

	tests := []struct {
		name   string
		offset uintptr
		want   uintptr
	}{
		{"stateVersion", unsafe.Offsetof(a.stateVersion), 0x00},
		{"updateCount", unsafe.Offsetof(a.updateCount), 0x04},
		{"volume", unsafe.Offsetof(a.volume), 0x08},
		{"mute", unsafe.Offsetof(a.mute), 0x14},
		{"numStreamsAttached", unsafe.Offsetof(a.numStreamsAttached), 0x30},
		{"numAttachedClients", unsafe.Offsetof(a.numAttachedClients), 0x40},
		{"lastActiveSec", unsafe.Offsetof(a.lastActiveSec), 0x48},
		{"lastActiveNsec", unsafe.Offsetof(a.lastActiveNsec), 0x50},
		{"reserved", unsafe.Offsetof(a.reserved), 0x58},
	}

	for _, tt := range tests {
		if tt.offset != tt.want {
			t.Errorf("offset of %s = %#x, want %#x", tt.name, tt.offset, tt.want)
		}
	}
}

func TestDecodeControlState(t *testing.T) {
	b := make([]byte, ControlRegionSize)
	// usedSize = 480, frameBytes = 4, writeBufIdx = 1,
	// writeOffset[1] = 480, volumeScaler = 1.0, tsNsec = 7.
	put32 := func(off int, v uint32) {
		b[off] = byte(v)
		b[off+1] = byte(v >> 8)
		b[off+2] = byte(v >> 16)
		b[off+3] = byte(v >> 24)
	}
	put32(0x00, 480)
	put32(0x04, 4)
	put32(0x0C, 1)
	put32(0x1C, 480)
	put32(0x28, math.Float32bits(1.0))
	put32(0x40, 7)

	s, err := DecodeControlState(b)
	if err != nil {
		t.Fatalf("DecodeControlState: %v", err)
	}
	if s.UsedSize != 480 || s.FrameBytes != 4 || s.WriteBufIdx != 1 {
		t.Errorf("decoded header fields = %d/%d/%d, want 480/4/1",
			s.UsedSize, s.FrameBytes, s.WriteBufIdx)
	}
	if s.WriteOffset[1] != 480 {
		t.Errorf("WriteOffset[1] = %d, want 480", s.WriteOffset[1])
	}
	if s.VolumeScaler != 1.0 {
		t.Errorf("VolumeScaler = %v, want 1.0", s.VolumeScaler)
	}
	if s.TsNsec != 7 {
		t.Errorf("TsNsec = %d, want 7", s.TsNsec)
	}

	if _, err := DecodeControlState(b[:ControlRegionSize-1]); err == nil {
		t.Error("DecodeControlState accepted a short slice")
	}
}
