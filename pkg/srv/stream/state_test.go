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
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"
)

func TestStateCountersPersist(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	s, err := newState(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open state: %v", err)
	}

	s.AddPackets(10)
	s.AddAssembled(1000)
	s.AddAssembled(2000)
	s.AddEvicted(3)
	s.AddDecodeError()
	s.AddInconsistentTotal()
	s.AddRejected()
	s.Close()

	s, err = newState(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("reopen state: %v", err)
	}
	defer s.DB.Close()

	stats := s.Snapshot(2)
	if stats.PacketsReceived != 10 {
		t.Fatalf("packets: %d", stats.PacketsReceived)
	}
	if stats.FramesAssembled != 2 || stats.BytesAssembled != 3000 {
		t.Fatalf("assembled: %d bytes: %d", stats.FramesAssembled, stats.BytesAssembled)
	}
	if stats.FramesEvicted != 3 {
		t.Fatalf("evicted: %d", stats.FramesEvicted)
	}
	if stats.DecodeErrors != 1 || stats.InconsistentTotals != 1 || stats.FramesRejected != 1 {
		t.Fatalf("error counters: %+v", stats)
	}
	if stats.LiveFrames != 2 {
		t.Fatalf("live frames not taken from snapshot argument: %d", stats.LiveFrames)
	}
}

func TestStateLiveFramesNotPersisted(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	s, err := newState(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open state: %v", err)
	}

	s.mu.Lock()
	s.stats.LiveFrames = 7
	s.mu.Unlock()
	s.AddPackets(1)
	if err = s.Persist(); err != nil {
		t.Fatalf("persist state: %v", err)
	}

	err = s.DB.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(BucketName)).Get([]byte(StatsKey))
		if bytes.Contains(data, []byte("liveFrames")) {
			t.Fatalf("live frame count found in the persisted state: %s", data)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	s.DB.Close()

	s, err = newState(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("reopen state: %v", err)
	}
	defer s.DB.Close()
	if stats := s.Snapshot(0); stats.LiveFrames != 0 {
		t.Fatalf("live frames survived a restart: %d", stats.LiveFrames)
	}
}

func TestStateSnapshotIsACopy(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")

	s, err := newState(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	defer s.DB.Close()

	before := s.Snapshot(0)
	s.AddPackets(5)
	if before.PacketsReceived != 0 {
		t.Fatalf("snapshot shares state with the counters")
	}
	after := s.Snapshot(0)
	if after.PacketsReceived != 5 {
		t.Fatalf("packets: %d", after.PacketsReceived)
	}
}
