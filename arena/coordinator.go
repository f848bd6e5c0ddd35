package arena

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stonify5/duelserver/protocol"
)

// Stats is a point-in-time view of the coordinator.
type Stats struct {
	Connections int `json:"connections"`
	Waiting     int `json:"waiting"`
	Matches     int `json:"matches"`
}

// Coordinator routes client intents between the connection registry, the
// queue and the active matches. It must only be driven from one goroutine.
type Coordinator struct {
	log     zerolog.Logger
	conns   *Registry
	queue   *Queue
	matches *Matches
	relay   *Relay
}

// NewCoordinator returns a coordinator with no connections or matches.
func NewCoordinator(log zerolog.Logger) *Coordinator {
	relay := NewRelay(log)
	matches := NewMatches(relay)
	return &Coordinator{
		log:     log,
		conns:   NewRegistry(),
		queue:   NewQueue(matches),
		matches: matches,
		relay:   relay,
	}
}

// Connect registers a new transport.
func (c *Coordinator) Connect(conn Conn) *Connection {
	cn := c.conns.Add(conn)
	c.log.Info().Uint64("conn", uint64(cn.ID)).Int("connections", c.conns.Len()).Msg("connected")
	return cn
}

// HandleMessage decodes one frame from connection id and applies it. The
// returned error classifies a dropped message; it never means the
// connection should be closed.
func (c *Coordinator) HandleMessage(id ConnID, frame []byte) error {
	cn, ok := c.conns.Get(id)
	if !ok {
		return fmt.Errorf("%w: unknown connection %d", ErrUnboundIntent, id)
	}
	in, err := protocol.Decode(frame)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	switch in.Type {
	case protocol.TypeJoin:
		return c.Join(cn, in.Username, in.Figure)
	case protocol.TypeMove:
		return c.Move(cn, *in.X)
	case protocol.TypeAttack:
		return c.Attack(cn)
	}
	return fmt.Errorf("%w: unhandled type %q", ErrMalformedMessage, in.Type)
}

// Join records cn's identity and either parks it or starts a match.
func (c *Coordinator) Join(cn *Connection, name, figure string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty username", ErrInvalidIntent)
	}
	if cn.role != RoleUnassigned {
		return fmt.Errorf("%w: connection %d is already %s", ErrInvalidIntent, cn.ID, cn.role)
	}
	if figure == "" {
		figure = DefaultFigure
	}
	cn.Name, cn.Figure = name, figure

	m := c.queue.EnqueueOrPair(cn)
	if m == nil {
		c.relay.Waiting(cn)
		c.log.Info().Uint64("conn", uint64(cn.ID)).Str("name", name).Msg("waiting for opponent")
		return nil
	}
	c.relay.NotifyBothOnMatchStart(m)
	c.log.Info().
		Str("match", m.ID).
		Str("p1", m.side(SeatOne).Name).
		Str("p2", m.side(SeatTwo).Name).
		Msg("match started")
	return nil
}

// Move applies a position intent from cn.
func (c *Coordinator) Move(cn *Connection, x float64) error {
	m, s, err := c.bound(cn)
	if err != nil {
		return err
	}
	m.ApplyMove(s, x)
	return nil
}

// Attack applies an attack intent from cn and tears the match down on a
// knockout.
func (c *Coordinator) Attack(cn *Connection) error {
	m, s, err := c.bound(cn)
	if err != nil {
		return err
	}
	m.ApplyAttack(s)
	if winner, ok := m.Winner(); ok {
		c.log.Info().Str("match", m.ID).Str("winner", m.side(winner).Name).Msg("match finished by knockout")
		c.matches.Remove(m.ID)
	}
	return nil
}

// Disconnect cleans up after a closed transport. A seated player forfeits
// to the opponent. Calling it again for the same id does nothing.
func (c *Coordinator) Disconnect(id ConnID) {
	cn, ok := c.conns.Get(id)
	if !ok {
		return
	}
	cn.closed = true

	switch cn.role {
	case RoleWaiting:
		c.queue.RemoveIfWaiting(cn)
	case RolePlayerOne, RolePlayerTwo:
		m := cn.match
		s, _ := cn.seat()
		if m.ForceEnd(s.Opponent()) {
			c.log.Info().
				Str("match", m.ID).
				Str("winner", m.side(s.Opponent()).Name).
				Msg("match finished by disconnect")
		}
		c.matches.Remove(m.ID)
	}
	c.conns.Remove(id)
	c.log.Info().Uint64("conn", uint64(id)).Int("connections", c.conns.Len()).Msg("disconnected")
}

// Stats counts live connections, waiting players and active matches.
func (c *Coordinator) Stats() Stats {
	return Stats{
		Connections: c.conns.Len(),
		Waiting:     c.queue.Len(),
		Matches:     c.matches.Len(),
	}
}

func (c *Coordinator) bound(cn *Connection) (*Match, Seat, error) {
	s, ok := cn.seat()
	if !ok || cn.match == nil {
		return nil, 0, fmt.Errorf("%w: connection %d is %s", ErrUnboundIntent, cn.ID, cn.role)
	}
	return cn.match, s, nil
}
