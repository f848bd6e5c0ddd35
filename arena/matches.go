package arena

import "github.com/google/uuid"

// Matches owns every active match by identifier.
type Matches struct {
	byID  map[string]*Match
	relay *Relay
	newID func() string
}

// NewMatches returns an empty registry whose matches report through relay.
func NewMatches(relay *Relay) *Matches {
	return &Matches{
		byID:  make(map[string]*Match),
		relay: relay,
		newID: func() string { return "room_" + uuid.NewString() },
	}
}

// Create seats one and two in a new match and stores it.
func (r *Matches) Create(one, two *Connection) *Match {
	id := r.newID()
	for r.byID[id] != nil {
		id = r.newID()
	}
	m := newMatch(id, one, two, r.relay)
	one.bind(m, SeatOne)
	two.bind(m, SeatTwo)
	r.byID[id] = m
	return m
}

func (r *Matches) get(id string) (*Match, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// Remove deletes a match and releases both of its connections back to
// unassigned. Removing an unknown id is a no-op.
func (r *Matches) Remove(id string) bool {
	m, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	for i := range m.sides {
		if c := m.sides[i].conn; c != nil && c.match == m {
			c.unbind()
		}
	}
	return true
}

// Len is the number of active matches.
func (r *Matches) Len() int { return len(r.byID) }
