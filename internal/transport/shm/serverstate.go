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
	"runtime"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// snapshotRetries bounds the seqlock read loop so a server that dies
// mid-update cannot hang a client.
const snapshotRetries = 1000

// ServerState is a read-only view of the server's global status block, a
// separate fixed-size shared memory object supplied through the same
// handshake family as stream segments.
type ServerState struct {
	mem []byte
}

// ServerStateSnapshot is a copy of the status block fields.
type ServerStateSnapshot struct {
	StateVersion       uint32
	UpdateCount        uint32
	Volume             uint32
	MinVolumeDBFS      int32
	MaxVolumeDBFS      int32
	Mute               int32
	UserMute           int32
	MuteLocked         int32
	Suspended          int32
	CaptureGain        int32
	CaptureMute        int32
	CaptureMuteLocked  int32
	NumStreamsAttached uint32
	NumActiveStreams   uint32
	NumOutputDevs      uint32
	NumInputDevs       uint32
	NumAttachedClients uint32
	LastActiveSec      int64
	LastActiveNsec     int64
}

// NewServerState maps the status block of d read-only. The declared
// capacity must cover the fixed block size.
func NewServerState(d *Descriptor) (*ServerState, error) {
	if d.Capacity() < ServerStateSize {
		return nil, fmt.Errorf("%w: declared %d bytes, server state needs %d",
			ErrCapacityTooSmall, d.Capacity(), ServerStateSize)
	}
	mem, err := mapShared(d.Fd(), ServerStateSize, unix.PROT_READ)
	if err != nil {
		return nil, fmt.Errorf("map server state: %w", err)
	}
	return &ServerState{mem: mem}, nil
}

func (s *ServerState) area() *serverStateArea {
	return (*serverStateArea)(unsafe.Pointer(&s.mem[0]))
}

// UpdateCount returns the raw update counter. Odd means the server is
// mid-update.
func (s *ServerState) UpdateCount() uint32 {
	return atomic.LoadUint32(&s.area().updateCount)
}

// Volume returns the current system volume field.
func (s *ServerState) Volume() uint32 {
	return atomic.LoadUint32(&s.area().volume)
}

// Mute returns the system mute flag.
func (s *ServerState) Mute() int32 {
	return atomic.LoadInt32(&s.area().mute)
}

// UserMute returns the user mute flag.
func (s *ServerState) UserMute() int32 {
	return atomic.LoadInt32(&s.area().userMute)
}

// NumActiveStreams returns the count of streams currently playing or
// capturing.
func (s *ServerState) NumActiveStreams() uint32 {
	return atomic.LoadUint32(&s.area().numActiveStreams)
}

// Snapshot copies the whole block under the server's update counter:
// the copy is retried until the counter is even and unchanged across the
// read. After snapshotRetries attempts the last copy is returned as-is,
// which can be torn; callers needing certainty can compare UpdateCount.
func (s *ServerState) Snapshot() ServerStateSnapshot {
	a := s.area()
	var snap ServerStateSnapshot
	for i := 0; i < snapshotRetries; i++ {
		before := atomic.LoadUint32(&a.updateCount)
		if before%2 != 0 {
			runtime.Gosched()
			continue
		}
		snap = s.read()
		if atomic.LoadUint32(&a.updateCount) == before {
			return snap
		}
	}
	return s.read()
}

func (s *ServerState) read() ServerStateSnapshot {
	a := s.area()
	return ServerStateSnapshot{
		StateVersion:       atomic.LoadUint32(&a.stateVersion),
		UpdateCount:        atomic.LoadUint32(&a.updateCount),
		Volume:             atomic.LoadUint32(&a.volume),
		MinVolumeDBFS:      atomic.LoadInt32(&a.minVolumeDBFS),
		MaxVolumeDBFS:      atomic.LoadInt32(&a.maxVolumeDBFS),
		Mute:               atomic.LoadInt32(&a.mute),
		UserMute:           atomic.LoadInt32(&a.userMute),
		MuteLocked:         atomic.LoadInt32(&a.muteLocked),
		Suspended:          atomic.LoadInt32(&a.suspended),
		CaptureGain:        atomic.LoadInt32(&a.captureGain),
		CaptureMute:        atomic.LoadInt32(&a.captureMute),
		CaptureMuteLocked:  atomic.LoadInt32(&a.captureMuteLocked),
		NumStreamsAttached: atomic.LoadUint32(&a.numStreamsAttached),
		NumActiveStreams:   atomic.LoadUint32(&a.numActiveStreams),
		NumOutputDevs:      atomic.LoadUint32(&a.numOutputDevs),
		NumInputDevs:       atomic.LoadUint32(&a.numInputDevs),
		NumAttachedClients: atomic.LoadUint32(&a.numAttachedClients),
		LastActiveSec:      atomic.LoadInt64(&a.lastActiveSec),
		LastActiveNsec:     atomic.LoadInt64(&a.lastActiveNsec),
	}
}

// Close unmaps the status block. Subsequent calls are no-ops.
func (s *ServerState) Close() error {
	if s.mem == nil {
		return nil
	}
	mem := s.mem
	s.mem = nil
	return unmapShared(mem)
}
