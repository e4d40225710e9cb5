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

package session

import (
	"errors"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/b92paul/adhd/internal/transport/shm"
)

func socketPair(t *testing.T) (server, client int) {
	t.Helper()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func memfd(t *testing.T, size uint64) int {
	t.Helper()

	fd, err := unix.MemfdCreate("session-test", unix.MFD_CLOEXEC)
	if err != nil {
		t.Fatalf("memfd_create: %v", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		t.Fatalf("ftruncate: %v", err)
	}
	t.Cleanup(func() { unix.Close(fd) })
	return fd
}

func TestSendRecvConnected(t *testing.T) {
	server, client := socketPair(t)
	segSize := uint64(shm.ControlRegionSize + 960)
	seg := memfd(t, segSize)

	if err := SendConnected(server, MsgStreamConnected, seg, segSize); err != nil {
		t.Fatalf("SendConnected: %v", err)
	}

	msg, err := RecvConnected(client)
	if err != nil {
		t.Fatalf("RecvConnected: %v", err)
	}
	if msg.ID != MsgStreamConnected {
		t.Errorf("ID = %d, want MsgStreamConnected", msg.ID)
	}
	if msg.DeclaredSize != segSize {
		t.Errorf("DeclaredSize = %d, want %d", msg.DeclaredSize, segSize)
	}

	// The carried fd must refer to the same object: partition it and
	// check the section the server would see.
	d := msg.Descriptor()
	defer d.Close()

	h, b, err := shm.CreateHeaderAndBuffer(d)
	if err != nil {
		t.Fatalf("CreateHeaderAndBuffer over received descriptor: %v", err)
	}
	defer h.Close()
	defer b.Close()

	if h.SamplesLen() != 960 {
		t.Errorf("SamplesLen = %d, want 960", h.SamplesLen())
	}
}

func TestRecvConnectedNoHandle(t *testing.T) {
	server, client := socketPair(t)

	buf := make([]byte, connectedWireSize)
	if err := unix.Sendmsg(server, buf, nil, nil, 0); err != nil {
		t.Fatalf("sendmsg: %v", err)
	}

	if _, err := RecvConnected(client); !errors.Is(err, ErrNoHandle) {
		t.Errorf("RecvConnected = %v, want ErrNoHandle", err)
	}
}

func TestRecvConnectedShortMessage(t *testing.T) {
	server, client := socketPair(t)
	seg := memfd(t, 64)

	if err := unix.Sendmsg(server, []byte{1, 2, 3}, unix.UnixRights(seg), nil, 0); err != nil {
		t.Fatalf("sendmsg: %v", err)
	}

	if _, err := RecvConnected(client); !errors.Is(err, ErrShortMessage) {
		t.Errorf("RecvConnected = %v, want ErrShortMessage", err)
	}
}

func TestConnectedCarriesServerState(t *testing.T) {
	server, client := socketPair(t)
	seg := memfd(t, shm.ServerStateSize)

	if err := SendConnected(server, MsgConnected, seg, shm.ServerStateSize); err != nil {
		t.Fatalf("SendConnected: %v", err)
	}
	msg, err := RecvConnected(client)
	if err != nil {
		t.Fatalf("RecvConnected: %v", err)
	}

	d := msg.Descriptor()
	defer d.Close()

	state, err := shm.NewServerState(d)
	if err != nil {
		t.Fatalf("NewServerState over received descriptor: %v", err)
	}
	defer state.Close()

	if got := state.UpdateCount(); got != 0 {
		t.Errorf("UpdateCount of fresh segment = %d, want 0", got)
	}
}
