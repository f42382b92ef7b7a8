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
	"sort"
	"sync"
	"time"

	"github.com/visionrt/go-vstream/pkg/log"
)

// Store owns all live frame buffers keyed by frame number. The packet
// ingest path and the periodic eviction pass both mutate the map, so
// every operation takes the store mutex.
type Store struct {
	mu      sync.Mutex
	buffers map[uint32]*Buffer
	// now is replaceable in tests
	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		buffers: make(map[uint32]*Buffer),
		now:     time.Now,
	}
}

// GetOrCreate returns the buffer for the given frame number, creating
// and inserting a fresh one stamped with the current time if the frame
// has not been seen before. A frame number that was completed or
// evicted earlier starts over with a new buffer.
func (s *Store) GetOrCreate(frameNum, totalPackets uint32) *Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buffers[frameNum]
	if !ok {
		b = NewBuffer(frameNum, totalPackets, s.now())
		s.buffers[frameNum] = b
		log.Debug("New frame buffer: frame: %d expecting %d packets", frameNum, totalPackets)
	}
	return b
}

// Remove deletes and releases the buffer for the given frame number
func (s *Store) Remove(frameNum uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, frameNum)
}

// Len returns the number of live buffers
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffers)
}

// EvictStale removes abandoned buffers and returns the frame numbers
// that were evicted. Two independent triggers:
// age first, any buffer older than maxAge goes regardless of store
// size, then capacity, oldest FirstSeen first until the live count is
// within maxLive. A frame that keeps waiting for lost fragments is
// never completed by retransmission, the protocol has none, so evicting
// it is the only way to reclaim the memory.
func (s *Store) EvictStale(maxAge time.Duration, maxLive int) []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []uint32
	now := s.now()

	for frameNum, b := range s.buffers {
		if now.Sub(b.FirstSeen) > maxAge {
			log.Warning("Evicting abandoned frame: %d expecting %d packets, age: %s",
				frameNum, b.TotalPackets, now.Sub(b.FirstSeen))
			delete(s.buffers, frameNum)
			evicted = append(evicted, frameNum)
		}
	}

	if len(s.buffers) > maxLive {
		live := make([]*Buffer, 0, len(s.buffers))
		for _, b := range s.buffers {
			live = append(live, b)
		}
		sort.Slice(live, func(i, j int) bool {
			return live[i].FirstSeen.Before(live[j].FirstSeen)
		})
		for _, b := range live[:len(live)-maxLive] {
			log.Warning("Evicting frame over capacity: %d expecting %d packets",
				b.FrameNum, b.TotalPackets)
			delete(s.buffers, b.FrameNum)
			evicted = append(evicted, b.FrameNum)
		}
	}

	return evicted
}
