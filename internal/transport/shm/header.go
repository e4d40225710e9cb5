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
	"math"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Header is the client's handle over the control region of one stream
// segment. It maps exactly ControlRegionSize bytes and is the unit of
// ownership for that mapping: it may be handed to another goroutine
// wholesale, but only one goroutine at a time may drive the write side
// (SetWriteOffset, SwitchWriteBufIdx, CommitWrittenFrames).
//
// The server mutates the same bytes through its own mapping, so every
// field access goes through sync/atomic; no field value is ever cached.
type Header struct {
	mem        []byte
	samplesLen uint64
}

// newHeader maps the control region of d read/write. samplesLen is the
// byte length of the samples region that follows it, kept for offset
// validation.
func newHeader(d *Descriptor, samplesLen uint64) (*Header, error) {
	mem, err := mapShared(d.Fd(), ControlRegionSize, unix.PROT_READ|unix.PROT_WRITE)
	if err != nil {
		return nil, fmt.Errorf("map control region: %w", err)
	}
	return &Header{mem: mem, samplesLen: samplesLen}, nil
}

// area returns the typed view over the mapping. Callers must not retain
// the pointer across Close.
func (h *Header) area() *controlArea {
	return (*controlArea)(unsafe.Pointer(&h.mem[0]))
}

// SamplesLen returns the byte length of the samples region this header
// validates offsets against.
func (h *Header) SamplesLen() uint64 {
	return h.samplesLen
}

// UsedSize returns the size in bytes of one sample slot.
func (h *Header) UsedSize() uint32 {
	return atomic.LoadUint32(&h.area().usedSize)
}

// FrameSize returns the number of bytes per audio frame.
func (h *Header) FrameSize() uint32 {
	return atomic.LoadUint32(&h.area().frameBytes)
}

// WriteBufIdx returns the slot currently selected for writing, masked so
// the result is a valid index even if the other side stored garbage.
func (h *Header) WriteBufIdx() uint32 {
	return atomic.LoadUint32(&h.area().writeBufIdx) & bufIdxMask
}

// ReadBufIdx returns the slot currently selected for reading, masked to a
// valid index.
func (h *Header) ReadBufIdx() uint32 {
	return atomic.LoadUint32(&h.area().readBufIdx) & bufIdxMask
}

// OffsetAndLen returns the byte offset into the samples region of the
// slot currently selected for writing, and the writable length.
func (h *Header) OffsetAndLen() (offset, length uint64) {
	used := uint64(h.UsedSize())
	return uint64(h.WriteBufIdx()) * used, used
}

// SwitchWriteBufIdx flips the write slot. Single-writer: must not be
// called concurrently on the producing side.
func (h *Header) SwitchWriteBufIdx() {
	atomic.StoreUint32(&h.area().writeBufIdx, h.WriteBufIdx()^1)
}

// CheckOffset reports whether offset is usable for either offset array:
// 0 <= offset <= usedSize and offset+usedSize <= samplesLen. An offset
// equal to usedSize means zero readable or writable bytes.
func (h *Header) CheckOffset(offset uint32) error {
	used := uint64(h.UsedSize())
	if uint64(offset) <= used && uint64(offset)+used <= h.samplesLen {
		return nil
	}
	return ErrInvalidOffset
}

// SetWriteOffset publishes the count of written bytes for slot idx. The
// store is immediately visible to the server's mapping.
func (h *Header) SetWriteOffset(idx uint32, offset uint32) error {
	if idx >= NumBuffers {
		return ErrIndexOutOfRange
	}
	if err := h.CheckOffset(offset); err != nil {
		return err
	}
	atomic.StoreUint32(&h.area().writeOffset[idx], offset)
	return nil
}

// SetReadOffset publishes the count of consumed bytes for slot idx.
func (h *Header) SetReadOffset(idx uint32, offset uint32) error {
	if idx >= NumBuffers {
		return ErrIndexOutOfRange
	}
	if err := h.CheckOffset(offset); err != nil {
		return err
	}
	atomic.StoreUint32(&h.area().readOffset[idx], offset)
	return nil
}

// WriteOffset returns the published write offset of slot idx.
func (h *Header) WriteOffset(idx uint32) (uint32, error) {
	if idx >= NumBuffers {
		return 0, ErrIndexOutOfRange
	}
	return atomic.LoadUint32(&h.area().writeOffset[idx]), nil
}

// ReadOffset returns the published read offset of slot idx.
func (h *Header) ReadOffset(idx uint32) (uint32, error) {
	if idx >= NumBuffers {
		return 0, ErrIndexOutOfRange
	}
	return atomic.LoadUint32(&h.area().readOffset[idx]), nil
}

// CommitWrittenFrames publishes frameCount frames in the current write
// slot and hands the slot to the server. The stores are ordered: both
// offsets land before the index flip, because the server detects a ready
// slot purely by observing the offsets once the index changes.
//
// Fails without touching the region if the frames do not fit in one slot.
func (h *Header) CommitWrittenFrames(frameCount uint32) error {
	// 64-bit so frameCount*frameSize cannot wrap.
	byteCount := uint64(frameCount) * uint64(h.FrameSize())
	if byteCount > uint64(h.UsedSize()) {
		return fmt.Errorf("%w: %d frames of %d bytes exceed slot size %d",
			ErrTooManyFrames, frameCount, h.FrameSize(), h.UsedSize())
	}
	idx := h.WriteBufIdx()
	if err := h.SetWriteOffset(idx, uint32(byteCount)); err != nil {
		return err
	}
	if err := h.SetReadOffset(idx, 0); err != nil {
		return err
	}
	h.SwitchWriteBufIdx()
	return nil
}

// Serving-side setters. The client core never calls these for a live
// stream; they exist for the process that initializes a fresh segment
// (tests, loopback tools, or an in-process server).

// SetUsedSize sets the bytes-per-slot field.
func (h *Header) SetUsedSize(size uint32) {
	atomic.StoreUint32(&h.area().usedSize, size)
}

// SetFrameSize sets the bytes-per-frame field.
func (h *Header) SetFrameSize(size uint32) {
	atomic.StoreUint32(&h.area().frameBytes, size)
}

// SetReadBufIdx sets the slot selected for reading, masked to a valid
// index.
func (h *Header) SetReadBufIdx(idx uint32) {
	atomic.StoreUint32(&h.area().readBufIdx, idx&bufIdxMask)
}

// Reserved-field accessors. These fields are part of the layout contract
// but carry no protocol behavior here; they are exposed raw.

// VolumeScaler returns the reserved volume scaler field.
func (h *Header) VolumeScaler() float32 {
	bits := atomic.LoadUint32((*uint32)(unsafe.Pointer(&h.area().volumeScaler)))
	return math.Float32frombits(bits)
}

// Mute returns the reserved mute flag.
func (h *Header) Mute() int32 {
	return atomic.LoadInt32(&h.area().mute)
}

// CallbackPending returns the reserved callback-pending flag.
func (h *Header) CallbackPending() int32 {
	return atomic.LoadInt32(&h.area().callbackPending)
}

// NumOverruns returns the reserved overrun counter.
func (h *Header) NumOverruns() uint32 {
	return atomic.LoadUint32(&h.area().numOverruns)
}

// Timestamp returns the reserved timestamp fields.
func (h *Header) Timestamp() (sec, nsec int64) {
	return atomic.LoadInt64(&h.area().tsSec), atomic.LoadInt64(&h.area().tsNsec)
}

// WriteInProgress returns the reserved per-slot write-in-progress flag.
func (h *Header) WriteInProgress(idx uint32) (int32, error) {
	if idx >= NumBuffers {
		return 0, ErrIndexOutOfRange
	}
	return atomic.LoadInt32(&h.area().writeInProgress[idx]), nil
}

// State returns a diagnostic copy of the whole control region.
func (h *Header) State() ControlState {
	a := h.area()
	s := ControlState{
		UsedSize:        atomic.LoadUint32(&a.usedSize),
		FrameBytes:      atomic.LoadUint32(&a.frameBytes),
		ReadBufIdx:      atomic.LoadUint32(&a.readBufIdx),
		WriteBufIdx:     atomic.LoadUint32(&a.writeBufIdx),
		VolumeScaler:    h.VolumeScaler(),
		Mute:            atomic.LoadInt32(&a.mute),
		CallbackPending: atomic.LoadInt32(&a.callbackPending),
		NumOverruns:     atomic.LoadUint32(&a.numOverruns),
		TsSec:           atomic.LoadInt64(&a.tsSec),
		TsNsec:          atomic.LoadInt64(&a.tsNsec),
	}
	for i := 0; i < NumBuffers; i++ {
		s.ReadOffset[i] = atomic.LoadUint32(&a.readOffset[i])
		s.WriteOffset[i] = atomic.LoadUint32(&a.writeOffset[i])
		s.WriteInProgress[i] = atomic.LoadInt32(&a.writeInProgress[i])
	}
	return s
}

// Close unmaps the control region. The caller must ensure no goroutine
// still uses this header. Subsequent calls are no-ops.
func (h *Header) Close() error {
	if h.mem == nil {
		return nil
	}
	mem := h.mem
	h.mem = nil
	return unmapShared(mem)
}
