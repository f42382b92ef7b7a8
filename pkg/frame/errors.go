/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package frame

import (
	"fmt"
)

// ErrInconsistentTotal returned when a later fragment declares a total
// packet count different from the one recorded when the frame was first
// seen. The fragment is dropped, the original total stands.
type ErrInconsistentTotal struct {
	FrameNum uint32
	Declared uint32
	Expected uint32
}

func (e ErrInconsistentTotal) Error() string {
	return fmt.Sprintf("Inconsistent total packet count for frame %d: declared: %d expected: %d",
		e.FrameNum, e.Declared, e.Expected)
}

// ErrFrameTooSmall returned when an assembled frame is too short to be
// a JPEG image
type ErrFrameTooSmall struct {
	FrameNum uint32
	Size     int
}

func (e ErrFrameTooSmall) Error() string {
	return fmt.Sprintf("Assembled frame %d too small: %d bytes, need at least %d",
		e.FrameNum, e.Size, MinFrameSize)
}

// ErrBadMagic returned when an assembled frame does not start with the
// JPEG SOI marker
type ErrBadMagic struct {
	FrameNum uint32
	Prefix   []byte
}

func (e ErrBadMagic) Error() string {
	return fmt.Sprintf("Assembled frame %d does not start with JPEG magic: % x", e.FrameNum, e.Prefix)
}
