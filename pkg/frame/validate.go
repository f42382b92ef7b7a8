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
	"bytes"
)

const (
	// MinFrameSize is the smallest byte count a plausible JPEG frame has
	MinFrameSize = 100
)

// jpegMagic is the SOI marker every JPEG stream starts with
var jpegMagic = []byte{0xff, 0xd8}

// Validate applies structural sanity checks to an assembled frame
// before it is handed off. Full JPEG validity is the downstream
// decoder's concern, this only filters frames that cannot possibly be
// an image.
func Validate(frameNum uint32, data []byte) error {
	if len(data) < MinFrameSize {
		return ErrFrameTooSmall{FrameNum: frameNum, Size: len(data)}
	}
	if !bytes.HasPrefix(data, jpegMagic) {
		return ErrBadMagic{FrameNum: frameNum, Prefix: data[:2]}
	}
	return nil
}
