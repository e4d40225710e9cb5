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

// Package shm implements the client side of the audio server's shared
// memory stream transport.
//
// A stream segment is one shared memory object the server creates per
// connection: a fixed control region followed by two sample slots. The
// client maps it twice with independent lifetimes: a Header over the
// control prefix and a Buffer over the full span. The stream runtime
// fills the slot the header points at and publishes it with
// CommitWrittenFrames. The server
// observes readiness through its own mapping of the same bytes; there is
// no lock and no blocking anywhere on that path, only ordered atomic
// stores.
//
// The control region layout is an ABI shared byte-for-byte with the
// server. ControlRegionSize and the field offsets pinned in layout_test.go
// are the contract; changing either breaks every running server.
package shm
