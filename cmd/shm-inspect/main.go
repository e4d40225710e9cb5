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

// shm-inspect dumps the control region of a stream segment that has been
// captured to a file (or is still live under /dev/shm). Useful when a
// stream stalls and the question is which side stopped moving.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/b92paul/adhd/internal/transport/shm"
)

func main() {
	path := flag.String("path", "", "segment file to inspect")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open %s: %v", *path, err)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		log.Fatalf("map %s: %v", *path, err)
	}
	defer m.Unmap()

	state, err := shm.DecodeControlState(m)
	if err != nil {
		log.Fatalf("decode control region: %v", err)
	}

	fmt.Printf("segment: %s (%d bytes, %d sample bytes)\n",
		*path, len(m), len(m)-shm.ControlRegionSize)
	fmt.Printf("used_size:     %d\n", state.UsedSize)
	fmt.Printf("frame_bytes:   %d\n", state.FrameBytes)
	fmt.Printf("read_buf_idx:  %d\n", state.ReadBufIdx)
	fmt.Printf("write_buf_idx: %d\n", state.WriteBufIdx)
	for i := 0; i < shm.NumBuffers; i++ {
		fmt.Printf("slot %d: read_offset=%d write_offset=%d write_in_progress=%d\n",
			i, state.ReadOffset[i], state.WriteOffset[i], state.WriteInProgress[i])
	}
	fmt.Printf("volume_scaler: %g  mute: %d  callback_pending: %d\n",
		state.VolumeScaler, state.Mute, state.CallbackPending)
	fmt.Printf("num_overruns:  %d\n", state.NumOverruns)
	fmt.Printf("timestamp:     %d.%09d\n", state.TsSec, state.TsNsec)
}
