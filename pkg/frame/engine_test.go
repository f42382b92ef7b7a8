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
	"encoding/binary"
	"testing"
	"time"

	vlayers "github.com/visionrt/go-vstream/pkg/layers"
)

func packetBytes(frameNum, packetNum, totalPackets uint32, payload []byte) []byte {
	buf := make([]byte, vlayers.VFrameHeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], frameNum)
	binary.BigEndian.PutUint32(buf[4:8], packetNum)
	binary.BigEndian.PutUint32(buf[8:12], totalPackets)
	copy(buf[vlayers.VFrameHeaderSize:], payload)
	return buf
}

func jpegPayload(size int) []byte {
	data := make([]byte, size)
	data[0] = 0xff
	data[1] = 0xd8
	for i := 2; i < size; i++ {
		data[i] = byte(i)
	}
	return data
}

func TestEngineAssemblesThreePacketFrame(t *testing.T) {
	e := NewEngine(time.Second, 10)

	full := jpegPayload(1000)
	parts := [][]byte{full[:400], full[400:800], full[800:]}

	for i := 0; i < 2; i++ {
		assembled, err := e.OnPacket(packetBytes(1, uint32(i), 3, parts[i]))
		if err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
		if assembled != nil {
			t.Fatalf("frame emitted after %d of 3 packets", i+1)
		}
	}

	assembled, err := e.OnPacket(packetBytes(1, 2, 3, parts[2]))
	if err != nil {
		t.Fatalf("last packet: %v", err)
	}
	if assembled == nil {
		t.Fatalf("expected an assembled frame")
	}
	if assembled.FrameNum != 1 {
		t.Fatalf("unexpected frame number: %d", assembled.FrameNum)
	}
	if len(assembled.Data) != 1000 {
		t.Fatalf("expected 1000 bytes, got %d", len(assembled.Data))
	}
	if assembled.Data[0] != 0xff || assembled.Data[1] != 0xd8 {
		t.Fatalf("frame does not start with JPEG magic: % x", assembled.Data[:2])
	}
	if !bytes.Equal(assembled.Data, full) {
		t.Fatalf("assembled bytes differ from the original payload")
	}
	if e.Live() != 0 {
		t.Fatalf("completed frame still in the store")
	}
}

func TestEngineOutOfOrderArrival(t *testing.T) {
	e := NewEngine(time.Second, 10)

	full := jpegPayload(300)
	parts := [][]byte{full[:100], full[100:200], full[200:]}

	var assembled *AssembledFrame
	var err error
	for _, i := range []uint32{2, 0, 1} {
		assembled, err = e.OnPacket(packetBytes(4, i, 3, parts[i]))
		if err != nil {
			t.Fatalf("packet %d: %v", i, err)
		}
	}
	if assembled == nil {
		t.Fatalf("expected an assembled frame")
	}
	if !bytes.Equal(assembled.Data, full) {
		t.Fatalf("out-of-order arrival broke the byte ordering")
	}
}

func TestEngineTooShortPacket(t *testing.T) {
	e := NewEngine(time.Second, 10)

	_, err := e.OnPacket(make([]byte, 11))
	if _, ok := err.(vlayers.ErrTooShort); !ok {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
	if e.Live() != 0 {
		t.Fatalf("short packet must not create a buffer")
	}
}

func TestEngineInvalidFraming(t *testing.T) {
	e := NewEngine(time.Second, 10)

	_, err := e.OnPacket(packetBytes(1, 5, 5, []byte{0x01}))
	if _, ok := err.(vlayers.ErrInvalidFraming); !ok {
		t.Fatalf("expected ErrInvalidFraming, got %v", err)
	}
	if e.Live() != 0 {
		t.Fatalf("invalid packet must not create a buffer")
	}
}

func TestEngineRejectsSmallFrame(t *testing.T) {
	e := NewEngine(time.Second, 10)

	payload := jpegPayload(80)
	_, err := e.OnPacket(packetBytes(2, 0, 2, payload[:40]))
	if err != nil {
		t.Fatalf("first packet: %v", err)
	}
	assembled, err := e.OnPacket(packetBytes(2, 1, 2, payload[40:]))
	if _, ok := err.(ErrFrameTooSmall); !ok {
		t.Fatalf("expected ErrFrameTooSmall, got %v", err)
	}
	if assembled != nil {
		t.Fatalf("rejected frame must not be emitted")
	}
	// the slot is freed before validation, a corrupt frame is not retried
	if e.Live() != 0 {
		t.Fatalf("rejected frame still in the store")
	}
}

func TestEngineRejectsBadMagic(t *testing.T) {
	e := NewEngine(time.Second, 10)

	payload := make([]byte, 200)
	assembled, err := e.OnPacket(packetBytes(3, 0, 1, payload))
	if _, ok := err.(ErrBadMagic); !ok {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
	if assembled != nil {
		t.Fatalf("rejected frame must not be emitted")
	}
}

func TestEngineInconsistentTotalDropped(t *testing.T) {
	e := NewEngine(time.Second, 10)

	if _, err := e.OnPacket(packetBytes(5, 0, 3, []byte{0xff, 0xd8})); err != nil {
		t.Fatalf("first packet: %v", err)
	}
	_, err := e.OnPacket(packetBytes(5, 1, 4, []byte{0x01}))
	if _, ok := err.(ErrInconsistentTotal); !ok {
		t.Fatalf("expected ErrInconsistentTotal, got %v", err)
	}
	if e.Live() != 1 {
		t.Fatalf("the original buffer must survive the conflicting fragment")
	}
}

func TestEngineEvictedFrameNeverCompletes(t *testing.T) {
	e := NewEngine(time.Second, 10)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.store.now = func() time.Time { return now }

	full := jpegPayload(300)
	if _, err := e.OnPacket(packetBytes(6, 0, 2, full[:150])); err != nil {
		t.Fatalf("first packet: %v", err)
	}

	now = now.Add(5 * time.Second)
	evicted := e.EvictStale()
	if len(evicted) != 1 || evicted[0] != 6 {
		t.Fatalf("expected eviction of frame 6, got %v", evicted)
	}

	// the remaining fragment arrives late and starts a fresh buffer
	// instead of completing the evicted frame
	assembled, err := e.OnPacket(packetBytes(6, 1, 2, full[150:]))
	if err != nil {
		t.Fatalf("late packet: %v", err)
	}
	if assembled != nil {
		t.Fatalf("evicted frame must never complete")
	}
	if e.Live() != 1 {
		t.Fatalf("late fragment must create a fresh buffer")
	}
}
