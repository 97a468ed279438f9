package e131

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ringclock/internal/frame"
)

// Options configure a Sender.
type Options struct {
	SourceName string
	Priority   uint8
	CID        uuid.UUID // uuid.Nil picks a random CID
}

// Sender streams channel buffers to one controller, starting at a fixed universe.
// Buffers that do not fit one universe continue on the following universes.
type Sender struct {
	address  string // empty means multicast
	universe uint16
	opts     Options

	mu       sync.Mutex
	conns    map[string]net.Conn
	sequence map[uint16]uint8
}

// NewSender creates a Sender for address (host or host:port; empty for
// multicast) starting at universe.
func NewSender(address string, universe uint16, opts Options) *Sender {
	if opts.CID == uuid.Nil {
		opts.CID = uuid.New()
	}
	if opts.Priority == 0 {
		opts.Priority = DefaultPriority
	}
	if opts.SourceName == "" {
		opts.SourceName = "ringclock"
	}

	return &Sender{
		address:  address,
		universe: universe,
		opts:     opts,
		conns:    make(map[string]net.Conn),
		sequence: make(map[uint16]uint8),
	}
}

// Universe returns the first universe the sender writes to.
func (s *Sender) Universe() uint16 {
	return s.universe
}

// CID returns the source identifier sent in every packet.
func (s *Sender) CID() uuid.UUID {
	return s.opts.CID
}

// Send transmits an RGB buffer, one packet per universe.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, chunk := range Split(data, frame.ChannelsPerLED) {
		universe := s.universe + uint16(i)
		pkt := Packet{
			CID:        s.opts.CID,
			SourceName: s.opts.SourceName,
			Priority:   s.opts.Priority,
			Sequence:   s.sequence[universe],
			Universe:   universe,
			Data:       chunk,
		}
		raw, err := pkt.MarshalBinary()
		if err != nil {
			return err
		}

		conn, err := s.conn(universe)
		if err != nil {
			return err
		}
		if _, err := conn.Write(raw); err != nil {
			return fmt.Errorf("failed to send universe %d: %w", universe, err)
		}
		s.sequence[universe]++
	}

	return nil
}

func (s *Sender) target(universe uint16) string {
	if s.address == "" {
		return MulticastAddress(universe)
	}
	if _, _, err := net.SplitHostPort(s.address); err == nil {
		return s.address
	}
	return net.JoinHostPort(s.address, fmt.Sprint(Port))
}

// conn returns the cached connection for universe. Caller holds s.mu.
func (s *Sender) conn(universe uint16) (net.Conn, error) {
	addr := s.target(universe)
	if c, ok := s.conns[addr]; ok {
		return c, nil
	}

	c, err := net.Dial("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	s.conns[addr] = c
	log.Debug().Str("addr", addr).Uint16("universe", universe).Msg("E1.31 connection opened")
	return c, nil
}

// Close closes all open connections.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for addr, c := range s.conns {
		c.Close()
		delete(s.conns, addr)
	}
	return nil
}
