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
	"encoding/hex"
	"time"

	"github.com/google/gopacket"

	"github.com/visionrt/go-vstream/pkg/layers"
	"github.com/visionrt/go-vstream/pkg/log"
)

// Engine orchestrates packet decoding, the frame store and validation.
// Per frame number the state machine is
// Unseen -> Accumulating -> {Completed, Evicted}, both end states are
// terminal, a later packet reusing the number starts a fresh frame.
// Every error an Engine method returns is locally recovered, a bad
// packet affects only its own frame.
type Engine struct {
	store   *Store
	maxAge  time.Duration
	maxLive int
}

func NewEngine(maxAge time.Duration, maxLive int) *Engine {
	return &Engine{
		store:   NewStore(),
		maxAge:  maxAge,
		maxLive: maxLive,
	}
}

// OnPacket decodes one raw datagram and feeds it to the matching frame
// buffer. It returns a non-nil AssembledFrame exactly when the packet
// completed its frame and the frame passed validation.
func (e *Engine) OnPacket(raw []byte) (*AssembledFrame, error) {
	vf := &layers.VFrameLayer{}
	if err := vf.DecodeFromBytes(raw, gopacket.NilDecodeFeedback); err != nil {
		log.Warning("Dropping packet: %s", err)
		return nil, err
	}
	return e.OnFragment(vf)
}

// OnFragment is the post-decode half of OnPacket, used directly by the
// stream server which decodes datagrams through a gopacket source.
func (e *Engine) OnFragment(vf *layers.VFrameLayer) (*AssembledFrame, error) {
	b := e.store.GetOrCreate(vf.FrameNum, vf.TotalPackets)

	complete, err := b.AddFragment(vf.PacketNum, vf.TotalPackets, vf.Data)
	if err != nil {
		log.Warning("Dropping fragment: %s packet: %d", err, vf.PacketNum)
		return nil, err
	}
	if !complete {
		return nil, nil
	}

	assembled := b.Extract()
	e.store.Remove(vf.FrameNum)

	if err := Validate(assembled.FrameNum, assembled.Data); err != nil {
		// The slot is already freed, a corrupt frame is not retried.
		log.Warning("Rejecting assembled frame: %s prefix: %s",
			err, hex.EncodeToString(prefix(assembled.Data, 10)))
		return nil, err
	}

	log.Debug("Assembled frame: %d size: %d bytes", assembled.FrameNum, len(assembled.Data))
	return assembled, nil
}

// EvictStale runs one maintenance pass over the store with the
// configured thresholds and returns the evicted frame numbers. The
// caller drives it on a fixed interval, never per packet.
func (e *Engine) EvictStale() []uint32 {
	return e.store.EvictStale(e.maxAge, e.maxLive)
}

// Live returns the number of frames currently being accumulated
func (e *Engine) Live() int {
	return e.store.Len()
}

func prefix(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}
