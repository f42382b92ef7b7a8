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

package stream

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/visionrt/go-vstream/pkg/config"
	"github.com/visionrt/go-vstream/pkg/log"
)

const (
	BucketName = "stream_state"
	StatsKey   = "stats"
)

// Stats are the cumulative stream counters. They survive receiver
// restarts through the state database.
type Stats struct {
	PacketsReceived    uint64 `json:"packetsReceived"`
	FramesAssembled    uint64 `json:"framesAssembled"`
	FramesEvicted      uint64 `json:"framesEvicted"`
	DecodeErrors       uint64 `json:"decodeErrors"`
	InconsistentTotals uint64 `json:"inconsistentTotals"`
	FramesRejected     uint64 `json:"framesRejected"`
	BytesAssembled     uint64 `json:"bytesAssembled"`
	// LiveFrames is filled in at snapshot time, it is not persisted
	LiveFrames int `json:"liveFrames,omitempty"`
}

// State keeps the stream counters in memory and persists them to a
// bbolt database. Counter updates happen on the packet path, so they
// only touch memory, the database write happens on the periodic
// persist and on shutdown.
type State struct {
	context.Context
	DB *bbolt.DB

	mu    sync.Mutex
	stats Stats
}

func NewState(ctx context.Context, cfg *config.Config) (*State, error) {
	return newState(ctx, cfg.StateDBPath())
}

func newState(ctx context.Context, dbPath string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, err
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		return err
	}); err != nil {
		return nil, err
	}

	s := &State{
		Context: ctx,
		DB:      db,
	}
	if err = s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close persists the counters and closes the database
func (s *State) Close() {
	if err := s.Persist(); err != nil {
		log.Error("Error while persisting stream state: %s", err)
	}
	s.DB.Close()
}

func (s *State) load() error {
	return s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return ErrBucketNotFound{Name: BucketName}
		}
		data := b.Get([]byte(StatsKey))
		if data == nil {
			return nil
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return yaml.Unmarshal(data, &s.stats)
	})
}

// Persist writes the current counters to the state database
func (s *State) Persist() error {
	s.mu.Lock()
	stats := s.stats
	s.mu.Unlock()
	stats.LiveFrames = 0

	data, err := yaml.Marshal(&stats)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return ErrBucketNotFound{Name: BucketName}
		}
		return b.Put([]byte(StatsKey), data)
	})
}

// Snapshot returns a copy of the counters with the live frame count
// filled in
func (s *State) Snapshot(liveFrames int) Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.LiveFrames = liveFrames
	return stats
}

func (s *State) AddPackets(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.PacketsReceived += uint64(n)
}

func (s *State) AddAssembled(frameBytes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.FramesAssembled++
	s.stats.BytesAssembled += uint64(frameBytes)
}

func (s *State) AddEvicted(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.FramesEvicted += uint64(n)
}

func (s *State) AddDecodeError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.DecodeErrors++
}

func (s *State) AddInconsistentTotal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.InconsistentTotals++
}

func (s *State) AddRejected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.FramesRejected++
}
