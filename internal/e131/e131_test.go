package e131

import (
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacket_MarshalBinary(t *testing.T) {
	cid := uuid.MustParse("5c1b1c3a-7bb8-4f8e-a9d6-0d3c0b7f0a11")
	data := []byte{255, 255, 255, 85, 85, 85}
	pkt := Packet{CID: cid, SourceName: "clock", Priority: 150, Sequence: 7, Universe: 3, Data: data}

	raw, err := pkt.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, raw, 126+len(data))

	assert.Equal(t, uint16(0x0010), binary.BigEndian.Uint16(raw[0:2]))
	assert.Equal(t, "ASC-E1.17", string(raw[4:13]))
	assert.Equal(t, uint16(0x7000|(len(raw)-16)), binary.BigEndian.Uint16(raw[16:18]))
	assert.Equal(t, uint32(4), binary.BigEndian.Uint32(raw[18:22]))
	assert.Equal(t, cid[:], raw[22:38])

	assert.Equal(t, uint16(0x7000|(len(raw)-38)), binary.BigEndian.Uint16(raw[38:40]))
	assert.Equal(t, uint32(2), binary.BigEndian.Uint32(raw[40:44]))
	assert.Equal(t, "clock", string(raw[44:49]))
	assert.Equal(t, byte(0), raw[49])
	assert.Equal(t, byte(150), raw[108])
	assert.Equal(t, byte(7), raw[111])
	assert.Equal(t, uint16(3), binary.BigEndian.Uint16(raw[113:115]))

	assert.Equal(t, uint16(0x7000|(len(raw)-115)), binary.BigEndian.Uint16(raw[115:117]))
	assert.Equal(t, byte(0x02), raw[117])
	assert.Equal(t, byte(0xa1), raw[118])
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(raw[121:123]))
	assert.Equal(t, uint16(len(data)+1), binary.BigEndian.Uint16(raw[123:125]))
	assert.Equal(t, byte(0), raw[125])
	assert.Equal(t, data, raw[126:])
}

func TestPacket_Errors(t *testing.T) {
	_, err := (&Packet{Universe: 1, Data: make([]byte, 513)}).MarshalBinary()
	assert.ErrorIs(t, err, ErrTooManySlots)

	_, err = (&Packet{Universe: 0}).MarshalBinary()
	assert.Error(t, err)
}

func TestPacket_LongSourceNameTruncated(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'x'
	}
	raw, err := (&Packet{Universe: 1, SourceName: string(long)}).MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, byte(0), raw[44+63], "source name must stay null terminated")
}

func TestSplit(t *testing.T) {
	assert.Len(t, Split(make([]byte, 180), 3), 1)

	chunks := Split(make([]byte, 300*3), 3)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 510)
	assert.Len(t, chunks[1], 390)

	assert.Len(t, Split(nil, 3), 1)
}

func TestUniverses(t *testing.T) {
	for _, leds := range []int{0, 1, 60, 170, 171, 300, 340, 341} {
		assert.Len(t, Split(make([]byte, leds*3), 3), Universes(leds, 3), "leds=%d", leds)
	}
	assert.Equal(t, 1, Universes(170, 3))
	assert.Equal(t, 2, Universes(171, 3))
}

func TestMulticastAddress(t *testing.T) {
	assert.Equal(t, "239.255.0.1:5568", MulticastAddress(1))
	assert.Equal(t, "239.255.1.2:5568", MulticastAddress(258))
}

func TestSender_Send(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	s := NewSender(pc.LocalAddr().String(), 5, Options{SourceName: "test"})
	defer s.Close()
	assert.NotEqual(t, uuid.Nil, s.CID())
	assert.Equal(t, uint16(5), s.Universe())

	// 200 LEDs span two universes.
	require.NoError(t, s.Send(make([]byte, 200*3)))
	require.NoError(t, s.Send(make([]byte, 200*3)))

	buf := make([]byte, 1024)
	type seen struct {
		universe uint16
		seq      byte
		slots    int
	}
	var got []seen
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	for i := 0; i < 4; i++ {
		n, _, err := pc.ReadFrom(buf)
		require.NoError(t, err)
		got = append(got, seen{
			universe: binary.BigEndian.Uint16(buf[113:115]),
			seq:      buf[111],
			slots:    n - 126,
		})
	}

	assert.Equal(t, []seen{
		{universe: 5, seq: 0, slots: 510},
		{universe: 6, seq: 0, slots: 90},
		{universe: 5, seq: 1, slots: 510},
		{universe: 6, seq: 1, slots: 90},
	}, got)
}

func TestSender_Target(t *testing.T) {
	assert.Equal(t, "10.0.0.9:5568", NewSender("10.0.0.9", 1, Options{}).target(1))
	assert.Equal(t, "10.0.0.9:6000", NewSender("10.0.0.9:6000", 1, Options{}).target(1))
	assert.Equal(t, "239.255.0.7:5568", NewSender("", 7, Options{}).target(7))
}
