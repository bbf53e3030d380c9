// Package sacn implements the sACN (ANSI E1.31-2018) wire protocol: data
// packet encoding/decoding and the paced transmitter that streams
// multiverse snapshots to the network.
package sacn

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// DefaultPort is the IANA-registered UDP port for sACN.
const DefaultPort = 5568

// acnIdentifier is the fixed ACN packet identifier in every root layer.
var acnIdentifier = []byte{0x41, 0x53, 0x43, 0x2d, 0x45, 0x31, 0x2e, 0x31, 0x37, 0x00, 0x00, 0x00}

const (
	preambleSize  = 0x0010
	postambleSize = 0x0000

	// VectorRootData marks a root layer carrying an E1.31 data packet.
	VectorRootData uint32 = 0x00000004
	// VectorRootExtended marks a root layer carrying an extended packet
	// (universe discovery or synchronization). The transmit loop never
	// emits these; the constant documents where the boundary sits.
	VectorRootExtended uint32 = 0x00000008

	// VectorDataFraming is the framing-layer vector of a data packet.
	VectorDataFraming uint32 = 0x00000002

	vectorDmpSetProperty  = 0x02
	dmpAddressAndDataType = 0xa1
	dmpFirstPropertyAddr  = 0x0000
	dmpAddressIncrement   = 0x0001

	// optionsPreviewData is bit 7 of the framing-layer options field.
	optionsPreviewData = 0x80

	// SourceNameLen is the fixed width of the framing layer's source-name
	// field.
	SourceNameLen = 64

	// MaxSlots is the DMX payload capacity of one data packet.
	MaxSlots = 512

	// dmpOffset is where the DMP layer starts: 38 root-layer bytes plus
	// 77 framing-layer bytes.
	dmpOffset = 115

	// FullPacketSize is the encoded length of a data packet carrying all
	// 512 slots.
	FullPacketSize = 638
)

// ErrDecode is wrapped by every packet decoding failure.
var ErrDecode = errors.New("sacn: decode failed")

// flagsAndLength packs a PDU length into the 0x7-flagged 16-bit field:
// bits 12..15 are 0x7, bits 0..11 the length.
func flagsAndLength(length int) uint16 {
	return 0x7000 | uint16(length&0x0fff)
}

// CID is a source's immutable component identifier: 16 random bytes,
// persisted across runs.
type CID [16]byte

// sourceNameBytes pads name to the fixed 64-byte field.
func sourceNameBytes(name string) ([SourceNameLen]byte, error) {
	var out [SourceNameLen]byte
	if len(name) > SourceNameLen {
		return out, fmt.Errorf("sacn: source name %q longer than %d bytes", name, SourceNameLen)
	}
	copy(out[:], name)
	return out, nil
}

// DataPacket is one E1.31 data packet: root layer CID, framing layer
// source metadata, and the DMP layer carrying up to 512 DMX slots.
type DataPacket struct {
	CID         CID
	SourceName  string
	Priority    byte
	SyncAddress uint16
	Sequence    byte
	PreviewData bool
	Universe    uint16
	// Data holds the DMX slots, excluding the start code.
	Data []byte
}

// Size returns the encoded length of the packet.
func (p *DataPacket) Size() int {
	return dmpOffset + p.dmpSize()
}

// dmpSize is the DMP layer's PDU length, including its own flags+length
// bytes: 10 header bytes plus start code plus slots.
func (p *DataPacket) dmpSize() int {
	return 10 + 1 + len(p.Data)
}

// framingSize is the framing layer's PDU length: its own header plus the
// DMP layer it wraps.
func (p *DataPacket) framingSize() int {
	return 77 + p.dmpSize()
}

// rootSize is the root layer's PDU length, measured from its flags+length
// field to the end of the packet.
func (p *DataPacket) rootSize() int {
	return p.Size() - 16
}

// Encode serializes the packet to wire bytes. A full 512-slot packet
// encodes to 638 bytes.
func (p *DataPacket) Encode() ([]byte, error) {
	if len(p.Data) > MaxSlots {
		return nil, fmt.Errorf("sacn: %d slots exceed the %d-slot packet capacity", len(p.Data), MaxSlots)
	}
	if p.Priority > 200 {
		return nil, fmt.Errorf("sacn: priority %d out of range 0..=200", p.Priority)
	}
	name, err := sourceNameBytes(p.SourceName)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, p.Size())
	w := bytes.NewBuffer(buf)

	// Root layer.
	binary.Write(w, binary.BigEndian, uint16(preambleSize))
	binary.Write(w, binary.BigEndian, uint16(postambleSize))
	w.Write(acnIdentifier)
	binary.Write(w, binary.BigEndian, flagsAndLength(p.rootSize()))
	binary.Write(w, binary.BigEndian, VectorRootData)
	w.Write(p.CID[:])

	// Framing layer.
	binary.Write(w, binary.BigEndian, flagsAndLength(p.framingSize()))
	binary.Write(w, binary.BigEndian, VectorDataFraming)
	w.Write(name[:])
	w.WriteByte(p.Priority)
	binary.Write(w, binary.BigEndian, p.SyncAddress)
	w.WriteByte(p.Sequence)
	var options byte
	if p.PreviewData {
		options |= optionsPreviewData
	}
	w.WriteByte(options)
	binary.Write(w, binary.BigEndian, p.Universe)

	// DMP layer.
	binary.Write(w, binary.BigEndian, flagsAndLength(p.dmpSize()))
	w.WriteByte(vectorDmpSetProperty)
	w.WriteByte(dmpAddressAndDataType)
	binary.Write(w, binary.BigEndian, uint16(dmpFirstPropertyAddr))
	binary.Write(w, binary.BigEndian, uint16(dmpAddressIncrement))
	binary.Write(w, binary.BigEndian, uint16(len(p.Data)+1))
	w.WriteByte(0x00) // start code
	w.Write(p.Data)

	return w.Bytes(), nil
}

// DecodeDataPacket parses wire bytes back into a DataPacket, validating
// every fixed field.
func DecodeDataPacket(raw []byte) (*DataPacket, error) {
	if len(raw) < dmpOffset+11 {
		return nil, fmt.Errorf("packet of %d bytes too short: %w", len(raw), ErrDecode)
	}
	if binary.BigEndian.Uint16(raw[0:2]) != preambleSize {
		return nil, fmt.Errorf("bad preamble size: %w", ErrDecode)
	}
	if binary.BigEndian.Uint16(raw[2:4]) != postambleSize {
		return nil, fmt.Errorf("bad postamble size: %w", ErrDecode)
	}
	if !bytes.Equal(raw[4:16], acnIdentifier) {
		return nil, fmt.Errorf("bad ACN identifier: %w", ErrDecode)
	}
	if binary.BigEndian.Uint32(raw[18:22]) != VectorRootData {
		return nil, fmt.Errorf("root vector is not a data packet: %w", ErrDecode)
	}
	if binary.BigEndian.Uint32(raw[40:44]) != VectorDataFraming {
		return nil, fmt.Errorf("bad framing vector: %w", ErrDecode)
	}
	if raw[117] != vectorDmpSetProperty {
		return nil, fmt.Errorf("bad DMP vector: %w", ErrDecode)
	}
	if raw[118] != dmpAddressAndDataType {
		return nil, fmt.Errorf("bad DMP address/data type: %w", ErrDecode)
	}
	if raw[125] != 0x00 {
		return nil, fmt.Errorf("nonzero start code: %w", ErrDecode)
	}

	propertyValueCount := int(binary.BigEndian.Uint16(raw[123:125]))
	slots := propertyValueCount - 1
	if slots < 0 || slots > MaxSlots || len(raw) < 126+slots {
		return nil, fmt.Errorf("bad property value count %d: %w", propertyValueCount, ErrDecode)
	}

	p := &DataPacket{
		SourceName:  string(bytes.TrimRight(raw[44:108], "\x00")),
		Priority:    raw[108],
		SyncAddress: binary.BigEndian.Uint16(raw[109:111]),
		Sequence:    raw[111],
		PreviewData: raw[112]&optionsPreviewData != 0,
		Universe:    binary.BigEndian.Uint16(raw[113:115]),
		Data:        append([]byte(nil), raw[126:126+slots]...),
	}
	copy(p.CID[:], raw[22:38])
	return p, nil
}
