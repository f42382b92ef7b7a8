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
	"encoding/binary"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/visionrt/go-vstream/pkg/log"
)

const (
	// VFrameLayerNum identifies the layer
	VFrameLayerNum = 2001

	// VFrameHeaderSize is the size of the packet header on the wire:
	// frame number, packet number and total packets, all uint32 big-endian
	VFrameHeaderSize = 12
	// MaxDatagramSize is the safe UDP datagram size used by the sender
	MaxDatagramSize = 1400
	// MaxPayloadSize is the JPEG payload capacity of a single datagram
	MaxPayloadSize = MaxDatagramSize - VFrameHeaderSize
)

// VFrameHeader describes the position of one fragment within a JPEG frame.
type VFrameHeader struct {
	FrameNum     uint32
	PacketNum    uint32
	TotalPackets uint32
}

// VFrameLayer is one UDP datagram of the video stream: a VFrameHeader
// followed by a fragment of the JPEG-encoded frame. The payload may be
// empty.
type VFrameLayer struct {
	layers.BaseLayer
	VFrameHeader
	Data []byte
}

var VFrameLayerType = gopacket.RegisterLayerType(VFrameLayerNum,
	gopacket.LayerTypeMetadata{Name: "VFrameLayerType", Decoder: gopacket.DecodeFunc(DecodeVFrameLayer)})

// LayerType returns the type of the VFrame layer in the layer catalog
func (vf *VFrameLayer) LayerType() gopacket.LayerType {
	return VFrameLayerType
}

// Serialize writes the header into buf which must be at least
// VFrameHeaderSize bytes long
func (h *VFrameHeader) Serialize(buf []byte) error {
	if len(buf) < VFrameHeaderSize {
		return ErrTooShort{Length: len(buf)}
	}
	binary.BigEndian.PutUint32(buf[0:4], h.FrameNum)
	binary.BigEndian.PutUint32(buf[4:8], h.PacketNum)
	binary.BigEndian.PutUint32(buf[8:12], h.TotalPackets)
	return nil
}

// SerializeTo serializes the VFrame layer into bytes and writes the bytes
// to the SerializeBuffer
func (vf *VFrameLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	headerBytes, err := b.AppendBytes(VFrameHeaderSize)
	if err != nil {
		return err
	}
	if err := vf.VFrameHeader.Serialize(headerBytes); err != nil {
		return err
	}
	payloadBytes, err := b.AppendBytes(len(vf.Data))
	if err != nil {
		return err
	}
	copy(payloadBytes, vf.Data)
	return nil
}

func (vf *VFrameLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	log.Debug("DecodeFromBytes: decoding VFrame layer, data length: %d", len(data))

	if len(data) < VFrameHeaderSize {
		df.SetTruncated()
		return ErrTooShort{Length: len(data)}
	}

	vf.FrameNum = binary.BigEndian.Uint32(data[0:4])
	vf.PacketNum = binary.BigEndian.Uint32(data[4:8])
	vf.TotalPackets = binary.BigEndian.Uint32(data[8:12])

	if vf.TotalPackets == 0 || vf.PacketNum >= vf.TotalPackets {
		return ErrInvalidFraming{
			FrameNum:     vf.FrameNum,
			PacketNum:    vf.PacketNum,
			TotalPackets: vf.TotalPackets,
		}
	}

	vf.BaseLayer = layers.BaseLayer{
		Contents: data[0:VFrameHeaderSize],
		Payload:  data[VFrameHeaderSize:],
	}
	vf.Data = data[VFrameHeaderSize:]

	log.Debug("DecodeFromBytes: FrameNum: %d PacketNum: %d TotalPackets: %d payload: %d bytes",
		vf.FrameNum, vf.PacketNum, vf.TotalPackets, len(vf.Data))

	return nil
}

func DecodeVFrameLayer(data []byte, p gopacket.PacketBuilder) error {
	vf := &VFrameLayer{}
	err := vf.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(vf)
	return nil
}
