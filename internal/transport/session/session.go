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

// Package session decodes the "connected" message family the audio
// server sends over its unix-domain control socket. Each message carries
// a shared memory file descriptor as ancillary data plus the size the
// server declares for it; the result is a ready shm.Descriptor.
//
// Only the receiving edge lives here. Session state, reconnection, and
// stream scheduling belong to the stream runtime above this package.
package session

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/b92paul/adhd/internal/transport/shm"
)

// MessageID identifies a message in the connected family.
type MessageID uint32

const (
	// MsgConnected carries the global server-state segment.
	MsgConnected MessageID = 1

	// MsgStreamConnected carries one stream's sample segment.
	MsgStreamConnected MessageID = 2
)

// connectedWireSize is the fixed payload: id u32, pad u32, size u64.
const connectedWireSize = 16

var (
	// ErrShortMessage indicates a truncated connected payload.
	ErrShortMessage = errors.New("short connected message")

	// ErrNoHandle indicates a connected message without exactly one
	// shared memory fd attached.
	ErrNoHandle = errors.New("connected message carries no shm handle")
)

// Connected is a decoded connected message. The receiver owns Fd.
type Connected struct {
	ID           MessageID
	DeclaredSize uint64
	Fd           int
}

// Descriptor wraps the carried fd and declared size. Ownership of the fd
// moves to the returned descriptor.
func (c Connected) Descriptor() *shm.Descriptor {
	return shm.NewDescriptor(c.Fd, c.DeclaredSize)
}

// RecvConnected reads one connected message from sock, a unix-domain
// socket fd. It blocks until a message arrives.
func RecvConnected(sock int) (Connected, error) {
	buf := make([]byte, connectedWireSize)
	oob := make([]byte, unix.CmsgSpace(4))

	n, oobn, _, _, err := unix.Recvmsg(sock, buf, oob, 0)
	if err != nil {
		return Connected{}, fmt.Errorf("recvmsg: %w", err)
	}

	// Collect any attached fds first so no path below can leak them.
	var fds []int
	if scms, err := unix.ParseSocketControlMessage(oob[:oobn]); err == nil {
		for i := range scms {
			if got, err := unix.ParseUnixRights(&scms[i]); err == nil {
				fds = append(fds, got...)
			}
		}
	}

	if n < connectedWireSize {
		closeAll(fds)
		return Connected{}, fmt.Errorf("%w: %d bytes", ErrShortMessage, n)
	}
	if len(fds) != 1 {
		closeAll(fds)
		return Connected{}, ErrNoHandle
	}

	return Connected{
		ID:           MessageID(binary.LittleEndian.Uint32(buf[0:4])),
		DeclaredSize: binary.LittleEndian.Uint64(buf[8:16]),
		Fd:           fds[0],
	}, nil
}

// SendConnected sends a connected message carrying fd over sock. The
// sender keeps ownership of fd; the kernel duplicates it into the
// receiving process.
func SendConnected(sock int, id MessageID, fd int, declaredSize uint64) error {
	buf := make([]byte, connectedWireSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(id))
	binary.LittleEndian.PutUint64(buf[8:16], declaredSize)

	if err := unix.Sendmsg(sock, buf, unix.UnixRights(fd), nil, 0); err != nil {
		return fmt.Errorf("sendmsg: %w", err)
	}
	return nil
}

func closeAll(fds []int) {
	for _, fd := range fds {
		unix.Close(fd)
	}
}
