package arena

import "fmt"

// Match tuning. The playfield is the game width minus one fighter width.
const (
	MaxHP        = 100
	AttackDamage = 15

	MinX      = 0.0
	MaxX      = 1100.0
	StartXOne = 50.0
	StartXTwo = 750.0
)

// DefaultFigure is used when a client joins without a figure descriptor.
const DefaultFigure = "hr-155-1035.hd-185-1026.ch-255-1189.lg-275-1239.sh-290-62"

// Seat is one of the two fixed positions in a match.
type Seat int

const (
	SeatOne Seat = 1
	SeatTwo Seat = 2
)

func (s Seat) Opponent() Seat {
	if s == SeatOne {
		return SeatTwo
	}
	return SeatOne
}

func (s Seat) String() string { return fmt.Sprintf("p%d", int(s)) }

// State is the match life cycle. Finished is terminal.
type State int

const (
	StatePlaying State = iota
	StateFinished
)

func (s State) String() string {
	if s == StateFinished {
		return "finished"
	}
	return "playing"
}

// Side is one player's authoritative state within a match.
type Side struct {
	Name   string
	Figure string
	X      float64
	HP     int

	conn *Connection
}

// Match referees one pairing. It always has exactly two sides; the only
// place a lone player exists is the Queue.
type Match struct {
	ID string

	sides  [2]Side
	state  State
	winner Seat
	relay  *Relay
}

func newMatch(id string, one, two *Connection, relay *Relay) *Match {
	m := &Match{
		ID:    id,
		relay: relay,
		sides: [2]Side{
			{Name: one.Name, Figure: one.Figure, X: StartXOne, HP: MaxHP, conn: one},
			{Name: two.Name, Figure: two.Figure, X: StartXTwo, HP: MaxHP, conn: two},
		},
	}
	return m
}

func (m *Match) side(s Seat) *Side { return &m.sides[s-1] }

// Side returns a copy of the given seat's state.
func (m *Match) Side(s Seat) Side { return *m.side(s) }

// State reports whether the match is still being played.
func (m *Match) State() State { return m.state }

// Winner reports the winning seat once the match is finished.
func (m *Match) Winner() (Seat, bool) {
	return m.winner, m.state == StateFinished && m.winner != 0
}

// ApplyMove sets the mover's position, clamped to the playfield, and syncs
// the opponent. It reports whether anything changed.
func (m *Match) ApplyMove(s Seat, x float64) bool {
	if m.state == StateFinished {
		return false
	}
	m.side(s).X = clampX(x)
	one, two := m.side(SeatOne), m.side(SeatTwo)
	m.relay.RelayToOpponent(m, s, newUpdate(one, two))
	return true
}

// ApplyAttack deals AttackDamage to the attacker's opponent. A knockout
// finishes the match; win and lose are sent right after the damage report.
func (m *Match) ApplyAttack(attacker Seat) bool {
	if m.state == StateFinished {
		return false
	}
	defender := attacker.Opponent()
	d := m.side(defender)
	d.HP = max(0, d.HP-AttackDamage)
	m.relay.RelayToOpponent(m, attacker, newDamage(defender, d.HP))

	if d.HP == 0 {
		m.finish(attacker)
		m.relay.ToSeat(m, attacker, newWin())
		m.relay.ToSeat(m, defender, newLose())
	}
	return true
}

// ForceEnd awards the match to winner without damage, as when the other
// side disconnects. The departed side is not notified.
func (m *Match) ForceEnd(winner Seat) bool {
	if m.state == StateFinished {
		return false
	}
	m.finish(winner)
	m.relay.ToSeat(m, winner, newWin())
	return true
}

func (m *Match) finish(winner Seat) {
	m.state = StateFinished
	m.winner = winner
}

func clampX(x float64) float64 {
	return min(max(x, MinX), MaxX)
}
