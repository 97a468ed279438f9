// Package e131 streams DMX channel data to lighting controllers using the
// E1.31 (streaming ACN) protocol over UDP.
package e131

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const (
	// Port is the well-known E1.31 UDP port.
	Port = 5568
	// MaxSlots is the number of DMX slots in one universe.
	MaxSlots = 512
	// MaxUniverse is the highest universe number a data packet may carry.
	MaxUniverse = 63999
	// DefaultPriority is the E1.31 default source priority.
	DefaultPriority = 100

	headerSize     = 126
	sourceNameSize = 64

	vectorRootData    = 0x00000004
	vectorFramingData = 0x00000002
	vectorDMPSetProp  = 0x02
	dmpAddressType    = 0xa1
	flagsHigh         = 0x7000
)

var acnIdentifier = [12]byte{0x41, 0x53, 0x43, 0x2d, 0x45, 0x31, 0x2e, 0x31, 0x37, 0x00, 0x00, 0x00}

// ErrTooManySlots is returned when data does not fit one universe.
var ErrTooManySlots = errors.New("data exceeds 512 slots")

// Packet is an E1.31 data packet for one universe.
type Packet struct {
	CID        uuid.UUID
	SourceName string
	Priority   uint8
	Sequence   uint8
	Universe   uint16
	Data       []byte
}

// MarshalBinary encodes the packet with start code 0.
func (p *Packet) MarshalBinary() ([]byte, error) {
	if len(p.Data) > MaxSlots {
		return nil, fmt.Errorf("%w: %d", ErrTooManySlots, len(p.Data))
	}
	if p.Universe == 0 || p.Universe > MaxUniverse {
		return nil, fmt.Errorf("invalid universe %d", p.Universe)
	}

	total := headerSize + len(p.Data)
	buf := make([]byte, total)

	// Root layer
	binary.BigEndian.PutUint16(buf[0:2], 0x0010)
	binary.BigEndian.PutUint16(buf[2:4], 0x0000)
	copy(buf[4:16], acnIdentifier[:])
	binary.BigEndian.PutUint16(buf[16:18], flagsHigh|uint16(total-16))
	binary.BigEndian.PutUint32(buf[18:22], vectorRootData)
	copy(buf[22:38], p.CID[:])

	// Framing layer
	binary.BigEndian.PutUint16(buf[38:40], flagsHigh|uint16(total-38))
	binary.BigEndian.PutUint32(buf[40:44], vectorFramingData)
	name := []byte(p.SourceName)
	if len(name) > sourceNameSize-1 {
		name = name[:sourceNameSize-1]
	}
	copy(buf[44:44+sourceNameSize], name)
	buf[108] = p.Priority
	binary.BigEndian.PutUint16(buf[109:111], 0) // synchronization address
	buf[111] = p.Sequence
	buf[112] = 0 // options
	binary.BigEndian.PutUint16(buf[113:115], p.Universe)

	// DMP layer
	binary.BigEndian.PutUint16(buf[115:117], flagsHigh|uint16(total-115))
	buf[117] = vectorDMPSetProp
	buf[118] = dmpAddressType
	binary.BigEndian.PutUint16(buf[119:121], 0x0000)
	binary.BigEndian.PutUint16(buf[121:123], 0x0001)
	binary.BigEndian.PutUint16(buf[123:125], uint16(len(p.Data)+1))
	buf[125] = 0 // DMX start code
	copy(buf[headerSize:], p.Data)

	return buf, nil
}

// Split cuts an RGB channel buffer into per-universe chunks without splitting an
// LED across universes. Each chunk holds at most 170 LEDs.
func Split(data []byte, channelsPerLED int) [][]byte {
	if channelsPerLED <= 0 {
		channelsPerLED = 1
	}
	per := (MaxSlots / channelsPerLED) * channelsPerLED

	var chunks [][]byte
	for len(data) > per {
		chunks = append(chunks, data[:per])
		data = data[per:]
	}
	return append(chunks, data)
}

// Universes returns how many universes Split produces for leds LEDs.
func Universes(leds, channelsPerLED int) int {
	if channelsPerLED <= 0 {
		channelsPerLED = 1
	}
	per := (MaxSlots / channelsPerLED) * channelsPerLED
	n := (leds*channelsPerLED + per - 1) / per
	return max(n, 1)
}

// MulticastAddress returns the multicast group for universe.
func MulticastAddress(universe uint16) string {
	return fmt.Sprintf("239.255.%d.%d:%d", universe>>8, universe&0xff, Port)
}
