// Package arena pairs duel clients into two-player matches and referees
// them. All state in this package is owned by a single goroutine (see Loop);
// none of the types are safe for concurrent use on their own.
package arena

import "fmt"

// Conn is the outbound half of a transport. Send must not block; a failed
// send is reported and dropped, never retried.
type Conn interface {
	Send(frame []byte) error
}

// ConnID identifies a Connection for the lifetime of the process.
type ConnID uint64

// Role is a connection's position in the matchmaking life cycle.
type Role int

const (
	RoleUnassigned Role = iota
	RoleWaiting
	RolePlayerOne
	RolePlayerTwo
)

func (r Role) String() string {
	switch r {
	case RoleUnassigned:
		return "unassigned"
	case RoleWaiting:
		return "waiting"
	case RolePlayerOne:
		return "player-one"
	case RolePlayerTwo:
		return "player-two"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Connection is a live transport and the identity it joined with.
type Connection struct {
	ID     ConnID
	Name   string
	Figure string

	conn   Conn
	role   Role
	match  *Match
	closed bool
}

// Role reports where the connection is in the matchmaking life cycle.
func (c *Connection) Role() Role { return c.role }

// Match returns the match this connection is seated in, or nil.
func (c *Connection) Match() *Match { return c.match }

func (c *Connection) seat() (Seat, bool) {
	switch c.role {
	case RolePlayerOne:
		return SeatOne, true
	case RolePlayerTwo:
		return SeatTwo, true
	}
	return 0, false
}

func (c *Connection) bind(m *Match, s Seat) {
	c.match = m
	if s == SeatOne {
		c.role = RolePlayerOne
	} else {
		c.role = RolePlayerTwo
	}
}

func (c *Connection) unbind() {
	c.match = nil
	c.role = RoleUnassigned
}

// Registry tracks every live connection.
type Registry struct {
	conns  map[ConnID]*Connection
	nextID ConnID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnID]*Connection)}
}

// Add registers a freshly opened transport as an unassigned connection.
func (r *Registry) Add(conn Conn) *Connection {
	r.nextID++
	c := &Connection{ID: r.nextID, conn: conn}
	r.conns[c.ID] = c
	return c
}

// Get looks up a live connection by id.
func (r *Registry) Get(id ConnID) (*Connection, bool) {
	c, ok := r.conns[id]
	return c, ok
}

// Remove forgets a connection. It reports whether the connection was known.
func (r *Registry) Remove(id ConnID) bool {
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	return true
}

// Len is the number of live connections.
func (r *Registry) Len() int { return len(r.conns) }
