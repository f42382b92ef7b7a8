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
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"

	"github.com/visionrt/go-vstream/pkg/config"
	"github.com/visionrt/go-vstream/pkg/frame"
	vlayers "github.com/visionrt/go-vstream/pkg/layers"
	"github.com/visionrt/go-vstream/pkg/log"
	"github.com/visionrt/go-vstream/pkg/srv"
)

const (
	InChSize    = 100
	FrameChSize = 16

	// PersistInterval is how often the counters are written to the
	// state database
	PersistInterval = 5 * time.Second
)

type writerState struct {
	Dir        string
	FilePrefix string
}

// StreamServer receives the fragmented JPEG stream over UDP,
// reassembles the frames through the engine and hands validated frames
// to the writer goroutine. Decode errors, dropped fragments, rejected
// and evicted frames are absorbed and counted, a lost frame simply
// never reaches the consumer.
type StreamServer struct {
	srv.Server
	api    *ApiServer
	engine *frame.Engine
	state  *State

	frameCh       chan *frame.AssembledFrame
	writerStateCh chan *writerState
}

func NewStreamServer(ctx context.Context, cfg *config.Config) (*StreamServer, error) {
	log.Info("Initializing stream server with address: %s port: %d", cfg.IP, cfg.StreamPort)

	uaddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.IP, cfg.StreamPort))
	if err != nil {
		return nil, err
	}

	state, err := NewState(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &StreamServer{
		Server: srv.Server{
			Context: ctx,
			Config:  cfg,
			UDPAddr: uaddr,
			ChIn:    make(chan srv.InPacket, InChSize),
		},
		engine:        frame.NewEngine(cfg.MaxFrameAge(), cfg.MaxLiveFrames),
		state:         state,
		frameCh:       make(chan *frame.AssembledFrame, FrameChSize),
		writerStateCh: make(chan *writerState),
	}

	apiServer, err := NewApiServer(ctx, cfg, s)
	if err != nil {
		return nil, err
	}
	s.api = apiServer

	return s, nil
}

func (s *StreamServer) Run() error {
	conn, err := net.ListenUDP("udp", s.UDPAddr)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer s.state.Close()

	errChan := make(chan error, 1)
	buffer := make([]byte, vlayers.MaxDatagramSize)

	// Read datagrams from the wire and put them to the input queue
	go func() {
		packets := 0
		lastLog := time.Now()
		for {
			length, addr, readErr := conn.ReadFrom(buffer)
			if readErr != nil {
				errChan <- readErr
				return
			}
			udpAddr, readErr := net.ResolveUDPAddr("udp", addr.String())
			if readErr != nil {
				errChan <- readErr
				return
			}

			s.state.AddPackets(1)
			packets++
			if time.Since(lastLog) >= time.Second {
				log.Info("Received %d packets in the last second", packets)
				packets = 0
				lastLog = time.Now()
			}

			captureInfo := gopacket.CaptureInfo{
				Length:        length,
				CaptureLength: length,
				Timestamp:     time.Now(),
				AncillaryData: []interface{}{udpAddr},
			}
			packet := srv.InPacket{CaptureInfo: captureInfo, Data: make([]byte, length)}
			copy(packet.Data, buffer[:length])
			s.ChIn <- packet
		}
	}()

	// Read packets from the input queue and feed them to the engine
	go func() {
		source := gopacket.NewPacketSource(&s.Server, vlayers.VFrameLayerType)
		for packet := range source.Packets() {
			udpaddr, getAddrErr := srv.GetAddrPort(packet)
			if getAddrErr != nil {
				log.Error("Error while getting peer address for a packet from input queue")
				continue
			}

			if errLayer := packet.ErrorLayer(); errLayer != nil {
				s.state.AddDecodeError()
				log.Warning("Dropping malformed packet from %s: %s prefix: %s",
					udpaddr, errLayer.Error(), shortPrefix(packet.Data()))
				continue
			}

			layer := packet.Layer(vlayers.VFrameLayerType)
			if layer == nil {
				continue
			}
			vf := layer.(*vlayers.VFrameLayer)

			assembled, fragErr := s.engine.OnFragment(vf)
			if fragErr != nil {
				switch fragErr.(type) {
				case frame.ErrInconsistentTotal:
					s.state.AddInconsistentTotal()
				case frame.ErrFrameTooSmall, frame.ErrBadMagic:
					s.state.AddRejected()
				}
				continue
			}
			if assembled != nil {
				s.state.AddAssembled(len(assembled.Data))
				s.frameCh <- assembled
			}
		}
	}()

	// Run the frame writer
	go func() {
		var writer *FrameWriter
		for {
			select {
			case ws := <-s.writerStateCh:
				if ws == nil {
					writer = nil
					log.Info("Frame recording stopped")
					continue
				}
				w, newWriterErr := NewFrameWriter(ws.Dir, ws.FilePrefix)
				if newWriterErr != nil {
					log.Error("Error while creating frame writer: %s", newWriterErr)
					continue
				}
				writer = w
				log.Info("Frame recording started: dir: %s prefix: %s", ws.Dir, ws.FilePrefix)
			case f := <-s.frameCh:
				if writer == nil {
					continue
				}
				if writeErr := writer.WriteFrame(f); writeErr != nil {
					log.Error("Error while writing frame %d: %s", f.FrameNum, writeErr)
				}
			case <-s.Context.Done():
				return
			}
		}
	}()

	// Run the eviction pass on a fixed interval, never per packet
	go func() {
		ticker := time.NewTicker(s.Config.EvictInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if evicted := s.engine.EvictStale(); len(evicted) > 0 {
					s.state.AddEvicted(len(evicted))
				}
			case <-s.Context.Done():
				return
			}
		}
	}()

	// Persist counters periodically
	go func() {
		ticker := time.NewTicker(PersistInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if persistErr := s.state.Persist(); persistErr != nil {
					log.Error("Error while persisting stream state: %s", persistErr)
				}
			case <-s.Context.Done():
				return
			}
		}
	}()

	go func() {
		if apiErr := s.api.Run(); apiErr != nil {
			errChan <- apiErr
		}
	}()

	if s.Config.FramesDir != "" {
		s.Persist(s.Config.FramesDir, "")
	}

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err = <-errChan:
		return err
	}
}

// Persist starts writing assembled frames to the given directory
func (s *StreamServer) Persist(dir, filePrefix string) {
	select {
	case s.writerStateCh <- &writerState{Dir: dir, FilePrefix: filePrefix}:
	case <-s.Context.Done():
	}
}

// Flush stops writing assembled frames
func (s *StreamServer) Flush() {
	select {
	case s.writerStateCh <- nil:
	case <-s.Context.Done():
	}
}

// Stats returns a snapshot of the stream counters
func (s *StreamServer) Stats() Stats {
	return s.state.Snapshot(s.engine.Live())
}

func shortPrefix(data []byte) string {
	if len(data) > 10 {
		data = data[:10]
	}
	return hex.EncodeToString(data)
}
