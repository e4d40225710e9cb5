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
	"encoding/binary"
	"math"
)

// Memory layout constants
const (
	// NumBuffers is the number of sample slots per stream segment.
	NumBuffers = 2

	// bufIdxMask masks a raw buffer index down to a valid slot.
	bufIdxMask = NumBuffers - 1

	// ControlRegionSize is the packed size of controlArea in bytes. The
	// audio server lays out the identical structure at the start of every
	// stream segment, so this constant is part of the IPC contract and
	// must never drift from the server's definition.
	ControlRegionSize = 72

	// ServerStateSize is the packed size of serverStateArea in bytes,
	// the fixed declared size of the global status segment.
	ServerStateSize = 128
)

// controlArea mirrors the control region at the start of a stream
// segment. Field order and widths are the wire format of the shared
// memory protocol; every field happens to sit on its natural alignment,
// so the Go compiler inserts no padding and the struct is byte-for-byte
// the server's packed layout. layout_test.go pins every offset.
//
// The samples region begins immediately after this structure, at offset
// ControlRegionSize.
type controlArea struct {
	usedSize        uint32                // 0x00: bytes per sample slot
	frameBytes      uint32                // 0x04: bytes per audio frame
	readBufIdx      uint32                // 0x08: slot being read (0 or 1)
	writeBufIdx     uint32                // 0x0C: slot being written (0 or 1)
	readOffset      [NumBuffers]uint32    // 0x10: readable bytes per slot
	writeOffset     [NumBuffers]uint32    // 0x18: written bytes per slot
	writeInProgress [NumBuffers]int32     // 0x20: reserved
	volumeScaler    float32               // 0x28: reserved
	mute            int32                 // 0x2C: reserved
	callbackPending int32                 // 0x30: reserved
	numOverruns     uint32                // 0x34: reserved
	tsSec           int64                 // 0x38: reserved
	tsNsec          int64                 // 0x40: reserved
}

// serverStateArea mirrors the server's global status block, a second,
// separate shared memory object exposed read-only to clients. updateCount
// follows even/odd seqlock convention: odd while the server is mid-update.
type serverStateArea struct {
	stateVersion       uint32   // 0x00
	updateCount        uint32   // 0x04
	volume             uint32   // 0x08
	minVolumeDBFS      int32    // 0x0C
	maxVolumeDBFS      int32    // 0x10
	mute               int32    // 0x14
	userMute           int32    // 0x18
	muteLocked         int32    // 0x1C
	suspended          int32    // 0x20
	captureGain        int32    // 0x24
	captureMute        int32    // 0x28
	captureMuteLocked  int32    // 0x2C
	numStreamsAttached uint32   // 0x30
	numActiveStreams   uint32   // 0x34
	numOutputDevs      uint32   // 0x38
	numInputDevs       uint32   // 0x3C
	numAttachedClients uint32   // 0x40
	pad                uint32   // 0x44: keeps the timestamp 8-byte aligned
	lastActiveSec      int64    // 0x48
	lastActiveNsec     int64    // 0x50
	reserved           [40]byte // 0x58-0x7F
}

// ControlState is a point-in-time copy of the control region, used for
// diagnostics. Values are not mutually consistent unless the producer is
// quiescent.
type ControlState struct {
	UsedSize        uint32
	FrameBytes      uint32
	ReadBufIdx      uint32
	WriteBufIdx     uint32
	ReadOffset      [NumBuffers]uint32
	WriteOffset     [NumBuffers]uint32
	WriteInProgress [NumBuffers]int32
	VolumeScaler    float32
	Mute            int32
	CallbackPending int32
	NumOverruns     uint32
	TsSec           int64
	TsNsec          int64
}

// DecodeControlState decodes a control region from raw bytes, for
// inspecting a segment captured in a file or mapped outside this package.
func DecodeControlState(b []byte) (ControlState, error) {
	if len(b) < ControlRegionSize {
		return ControlState{}, ErrCapacityTooSmall
	}
	var s ControlState
	le := binary.LittleEndian
	s.UsedSize = le.Uint32(b[0x00:])
	s.FrameBytes = le.Uint32(b[0x04:])
	s.ReadBufIdx = le.Uint32(b[0x08:])
	s.WriteBufIdx = le.Uint32(b[0x0C:])
	for i := 0; i < NumBuffers; i++ {
		s.ReadOffset[i] = le.Uint32(b[0x10+4*i:])
		s.WriteOffset[i] = le.Uint32(b[0x18+4*i:])
		s.WriteInProgress[i] = int32(le.Uint32(b[0x20+4*i:]))
	}
	s.VolumeScaler = math.Float32frombits(le.Uint32(b[0x28:]))
	s.Mute = int32(le.Uint32(b[0x2C:]))
	s.CallbackPending = int32(le.Uint32(b[0x30:]))
	s.NumOverruns = le.Uint32(b[0x34:])
	s.TsSec = int64(le.Uint64(b[0x38:]))
	s.TsNsec = int64(le.Uint64(b[0x40:]))
	return s, nil
}
