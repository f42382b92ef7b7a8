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

package layers

import (
	"fmt"
)

// ErrTooShort returned when a datagram is shorter than the VFrame header
type ErrTooShort struct {
	Length int
}

func (e ErrTooShort) Error() string {
	return fmt.Sprintf("VFrame packet too short: %d bytes, need at least %d", e.Length, VFrameHeaderSize)
}

// ErrInvalidFraming returned when the header declares an impossible
// packet position: zero total packets or a packet number past the total
type ErrInvalidFraming struct {
	FrameNum     uint32
	PacketNum    uint32
	TotalPackets uint32
}

func (e ErrInvalidFraming) Error() string {
	return fmt.Sprintf("Invalid VFrame framing: frame: %d packet: %d total: %d",
		e.FrameNum, e.PacketNum, e.TotalPackets)
}
