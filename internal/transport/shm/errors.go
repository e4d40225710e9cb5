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

import "errors"

var (
	// ErrIndexOutOfRange indicates a slot index >= NumBuffers.
	ErrIndexOutOfRange = errors.New("buffer index out of range")

	// ErrInvalidOffset indicates an offset outside the slot or the
	// samples region.
	ErrInvalidOffset = errors.New("offset out of range")

	// ErrTooManyFrames indicates a commit whose byte count exceeds the
	// slot size.
	ErrTooManyFrames = errors.New("frame count exceeds slot size")

	// ErrCapacityTooSmall indicates a descriptor whose declared capacity
	// cannot hold the region being constructed over it.
	ErrCapacityTooSmall = errors.New("declared capacity too small")

	// ErrNullMapping indicates a mapping call that succeeded but yielded
	// no usable address.
	ErrNullMapping = errors.New("mapping returned no usable address")
)
