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
	"time"

	"github.com/visionrt/go-vstream/pkg/log"
)

// AssembledFrame is one complete JPEG frame reconstructed from its
// fragments, payload ordered by ascending packet number.
type AssembledFrame struct {
	FrameNum uint32
	Data     []byte
}

// Buffer accumulates the fragments of a single frame as they arrive.
// The total packet count declared by the first fragment seen for the
// frame is authoritative for the whole lifetime of the buffer.
type Buffer struct {
	FrameNum     uint32
	TotalPackets uint32
	FirstSeen    time.Time

	fragments map[uint32][]byte
}

func NewBuffer(frameNum, totalPackets uint32, firstSeen time.Time) *Buffer {
	return &Buffer{
		FrameNum:     frameNum,
		TotalPackets: totalPackets,
		FirstSeen:    firstSeen,
		fragments:    make(map[uint32][]byte),
	}
}

// AddFragment stores the payload under the given packet number and
// reports whether the frame is now complete. A fragment declaring a
// total different from the one recorded on first sight is dropped with
// ErrInconsistentTotal. Re-delivery of an already held packet number
// overwrites the previous payload, UDP gives no ordering guarantee
// across duplicates.
func (b *Buffer) AddFragment(packetNum, totalPackets uint32, payload []byte) (bool, error) {
	if totalPackets != b.TotalPackets {
		return false, ErrInconsistentTotal{
			FrameNum: b.FrameNum,
			Declared: totalPackets,
			Expected: b.TotalPackets,
		}
	}

	if _, ok := b.fragments[packetNum]; ok {
		log.Debug("Fragment duplication: frame: %d packet: %d", b.FrameNum, packetNum)
	}

	// The payload aliases the datagram read buffer, copy it since the
	// buffer outlives the packet.
	data := make([]byte, len(payload))
	copy(data, payload)
	b.fragments[packetNum] = data

	return b.Complete(), nil
}

// Complete reports whether every declared fragment has arrived
func (b *Buffer) Complete() bool {
	return uint32(len(b.fragments)) == b.TotalPackets
}

// Received returns the number of distinct fragments held so far
func (b *Buffer) Received() int {
	return len(b.fragments)
}

// Extract concatenates the fragments in ascending packet number order.
// It must be called only when the buffer is complete, the caller guards
// this with Complete.
func (b *Buffer) Extract() *AssembledFrame {
	var data []byte
	for i := uint32(0); i < b.TotalPackets; i++ {
		data = append(data, b.fragments[i]...)
	}
	return &AssembledFrame{
		FrameNum: b.FrameNum,
		Data:     data,
	}
}
