package arena

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stonify5/duelserver/protocol"
)

// Relay turns match events into frames and pushes them to connections.
// Delivery failures are logged here and never reach the match.
type Relay struct {
	log zerolog.Logger
}

// NewRelay returns a relay that logs failed deliveries to log.
func NewRelay(log zerolog.Logger) *Relay {
	return &Relay{log: log}
}

// NotifyBothOnMatchStart tells each side its seat and who it is facing.
func (r *Relay) NotifyBothOnMatchStart(m *Match) {
	one, two := m.side(SeatOne), m.side(SeatTwo)
	r.send(one.conn, protocol.NewStart(m.ID, int(SeatOne), two.Name, two.Figure))
	r.send(two.conn, protocol.NewStart(m.ID, int(SeatTwo), one.Name, one.Figure))
}

// RelayToOpponent delivers msg to the side that did not originate it.
func (r *Relay) RelayToOpponent(m *Match, from Seat, msg any) {
	r.ToSeat(m, from.Opponent(), msg)
}

// ToSeat delivers msg to one side of m.
func (r *Relay) ToSeat(m *Match, s Seat, msg any) {
	r.send(m.side(s).conn, msg)
}

// Waiting tells c it has been parked in the queue.
func (r *Relay) Waiting(c *Connection) {
	r.send(c, protocol.NewWaiting())
}

func (r *Relay) send(c *Connection, msg any) {
	if err := r.deliver(c, msg); err != nil {
		r.log.Debug().Err(err).Msg("dropped outbound message")
	}
}

func (r *Relay) deliver(c *Connection, msg any) error {
	if c == nil || c.closed {
		return fmt.Errorf("%w: connection closed", ErrDeliveryFailure)
	}
	b, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}
	if err := c.conn.Send(b); err != nil {
		return fmt.Errorf("%w: conn %d: %v", ErrDeliveryFailure, c.ID, err)
	}
	return nil
}

func newUpdate(one, two *Side) protocol.Update {
	return protocol.NewUpdate(one.X, two.X, one.HP, two.HP)
}

func newDamage(defender Seat, hp int) protocol.Damage {
	return protocol.NewDamage(int(defender), AttackDamage, hp)
}

func newWin() protocol.Result  { return protocol.NewWin() }
func newLose() protocol.Result { return protocol.NewLose() }
