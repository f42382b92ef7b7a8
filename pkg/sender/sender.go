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
	"context"
	"fmt"
	"io/ioutil"
	"net"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/gopacket"

	vlayers "github.com/visionrt/go-vstream/pkg/layers"
	"github.com/visionrt/go-vstream/pkg/log"
)

// Sender streams JPEG files from a directory to a receiver, splitting
// each file into VFrame datagrams. It stands in for the camera side of
// the system during development and testing.
type Sender struct {
	context.Context
	Addr *net.UDPAddr
	Dir  string
	FPS  int
	Loop bool
}

func NewSender(ctx context.Context, target, dir string, fps int, loop bool) (*Sender, error) {
	uaddr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, err
	}
	if fps <= 0 {
		fps = 30
	}
	return &Sender{
		Context: ctx,
		Addr:    uaddr,
		Dir:     dir,
		FPS:     fps,
		Loop:    loop,
	}, nil
}

func (s *Sender) listFrames() ([]string, error) {
	entries, err := ioutil.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg") {
			files = append(files, path.Join(s.Dir, entry.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("No JPEG files found in %s", s.Dir)
	}
	return files, nil
}

// SendFrame splits one JPEG payload into datagrams and writes them to
// the connection
func (s *Sender) SendFrame(conn *net.UDPConn, frameNum uint32, data []byte) error {
	totalPackets := uint32((len(data) + vlayers.MaxPayloadSize - 1) / vlayers.MaxPayloadSize)
	if totalPackets == 0 {
		totalPackets = 1
	}
	log.Debug("Sending frame %d: %d packets, total size %d bytes", frameNum, totalPackets, len(data))

	for packetNum := uint32(0); packetNum < totalPackets; packetNum++ {
		start := int(packetNum) * vlayers.MaxPayloadSize
		end := start + vlayers.MaxPayloadSize
		if end > len(data) {
			end = len(data)
		}

		vf := &vlayers.VFrameLayer{
			VFrameHeader: vlayers.VFrameHeader{
				FrameNum:     frameNum,
				PacketNum:    packetNum,
				TotalPackets: totalPackets,
			},
			Data: data[start:end],
		}

		buf := gopacket.NewSerializeBuffer()
		opts := gopacket.SerializeOptions{}
		if err := vf.SerializeTo(buf, opts); err != nil {
			return err
		}
		if _, err := conn.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) Run() error {
	files, err := s.listFrames()
	if err != nil {
		return err
	}

	conn, err := net.DialUDP("udp", nil, s.Addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info("Streaming %d frames from %s to %s at %d fps", len(files), s.Dir, s.Addr, s.FPS)

	interval := time.Second / time.Duration(s.FPS)
	frameNum := uint32(0)
	for {
		for _, file := range files {
			select {
			case <-s.Context.Done():
				return s.Context.Err()
			default:
			}

			data, readErr := ioutil.ReadFile(file)
			if readErr != nil {
				log.Error("Error while reading frame file %s: %s", file, readErr)
				continue
			}
			if sendErr := s.SendFrame(conn, frameNum, data); sendErr != nil {
				return sendErr
			}
			frameNum++
			time.Sleep(interval)
		}
		if !s.Loop {
			return nil
		}
		log.Info("End of frame sequence, restarting")
	}
}
