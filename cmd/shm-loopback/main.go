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

// shm-loopback exercises the double-buffer commit protocol end to end in
// one process: a producer goroutine fills and commits slots through one
// set of mappings while a consumer goroutine observes readiness through
// its own, the way the audio server does. The segment is handed to the
// consumer over a socketpair with the same connected message the real
// server uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/b92paul/adhd/internal/transport/session"
	"github.com/b92paul/adhd/internal/transport/shm"
)

func main() {
	periods := flag.Int("periods", 100, "number of buffer periods to transfer")
	frames := flag.Int("frames", 480, "frames per period")
	frameBytes := flag.Int("frame-bytes", 4, "bytes per frame")
	flag.Parse()

	if err := run(*periods, uint32(*frames), uint32(*frameBytes)); err != nil {
		log.Fatal(err)
	}
	log.Printf("transferred %d periods of %d frames", *periods, *frames)
}

func run(periods int, frames, frameBytes uint32) error {
	usedSize := frames * frameBytes

	fd, err := unix.MemfdCreate("shm-loopback", unix.MFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("memfd_create: %w", err)
	}
	segSize := uint64(shm.ControlRegionSize) + uint64(shm.NumBuffers)*uint64(usedSize)
	if err := unix.Ftruncate(fd, int64(segSize)); err != nil {
		unix.Close(fd)
		return fmt.Errorf("ftruncate: %w", err)
	}

	// Producer side owns the original fd.
	prodDesc := shm.NewDescriptor(fd, segSize)
	defer prodDesc.Close()

	// Hand the consumer its own descriptor the way the server hands one
	// to a client: over a unix socket with the fd as ancillary data.
	socks, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET, 0)
	if err != nil {
		return fmt.Errorf("socketpair: %w", err)
	}
	defer unix.Close(socks[0])
	defer unix.Close(socks[1])

	if err := session.SendConnected(socks[0], session.MsgStreamConnected, prodDesc.Fd(), segSize); err != nil {
		return err
	}
	msg, err := session.RecvConnected(socks[1])
	if err != nil {
		return err
	}
	consDesc := msg.Descriptor()
	defer consDesc.Close()

	prodHdr, prodBuf, err := shm.CreateHeaderAndBuffer(prodDesc)
	if err != nil {
		return err
	}
	defer prodHdr.Close()
	defer prodBuf.Close()

	consHdr, consBuf, err := shm.CreateHeaderAndBuffer(consDesc)
	if err != nil {
		return err
	}
	defer consHdr.Close()
	defer consBuf.Close()

	prodHdr.SetUsedSize(usedSize)
	prodHdr.SetFrameSize(frameBytes)

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		for p := 0; p < periods; p++ {
			// Wait for the consumer to drain the slot we are about to
			// reuse, then fill and publish it.
			idx := prodHdr.WriteBufIdx()
			for {
				ro, err := prodHdr.ReadOffset(idx)
				if err != nil {
					return err
				}
				wo, err := prodHdr.WriteOffset(idx)
				if err != nil {
					return err
				}
				if ro >= wo {
					break
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				runtime.Gosched()
			}

			off, length := prodHdr.OffsetAndLen()
			slot := prodBuf.Bytes()[off : off+length]
			for i := range slot {
				slot[i] = byte(p)
			}
			if err := prodHdr.CommitWrittenFrames(frames); err != nil {
				return fmt.Errorf("period %d: %w", p, err)
			}
		}
		return nil
	})

	g.Go(func() error {
		idx := uint32(0)
		for p := 0; p < periods; p++ {
			// A slot is ready once its offsets say there is unread data;
			// commit publishes both offsets before flipping the index.
			for {
				wo, err := consHdr.WriteOffset(idx)
				if err != nil {
					return err
				}
				ro, err := consHdr.ReadOffset(idx)
				if err != nil {
					return err
				}
				if wo > ro {
					break
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				runtime.Gosched()
			}

			base := uint64(idx) * uint64(usedSize)
			slot := consBuf.Bytes()[base : base+uint64(usedSize)]
			for i, b := range slot {
				if b != byte(p) {
					return fmt.Errorf("period %d byte %d: got %#x, want %#x", p, i, b, byte(p))
				}
			}
			if err := consHdr.SetReadOffset(idx, usedSize); err != nil {
				return err
			}
			idx ^= 1
		}
		return nil
	})

	return g.Wait()
}
