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

package sender

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/visionrt/go-vstream/pkg/frame"
	vlayers "github.com/visionrt/go-vstream/pkg/layers"
)

// SendFrame over loopback must produce datagrams the receiver side
// reassembles back into the original payload.
func TestSendFrameRoundTrip(t *testing.T) {
	recv, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer recv.Close()

	s, err := NewSender(context.Background(), recv.LocalAddr().String(), t.TempDir(), 30, false)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	conn, err := net.DialUDP("udp", nil, s.Addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	payload := make([]byte, 2*vlayers.MaxPayloadSize+100)
	payload[0] = 0xff
	payload[1] = 0xd8
	for i := 2; i < len(payload); i++ {
		payload[i] = byte(i)
	}

	if err := s.SendFrame(conn, 3, payload); err != nil {
		t.Fatalf("send frame: %v", err)
	}

	engine := frame.NewEngine(time.Second, 10)
	buf := make([]byte, vlayers.MaxDatagramSize)
	var assembled *frame.AssembledFrame
	for i := 0; i < 3; i++ {
		recv.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, _, readErr := recv.ReadFrom(buf)
		if readErr != nil {
			t.Fatalf("read datagram %d: %v", i, readErr)
		}
		if n > vlayers.MaxDatagramSize {
			t.Fatalf("datagram %d exceeds the maximum size: %d", i, n)
		}
		assembled, err = engine.OnPacket(buf[:n])
		if err != nil {
			t.Fatalf("datagram %d: %v", i, err)
		}
	}

	if assembled == nil {
		t.Fatalf("expected the third datagram to complete the frame")
	}
	if assembled.FrameNum != 3 {
		t.Fatalf("unexpected frame number: %d", assembled.FrameNum)
	}
	if !bytes.Equal(assembled.Data, payload) {
		t.Fatalf("reassembled payload differs from the original")
	}
}
