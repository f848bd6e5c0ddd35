package arena

import (
	"slices"

	"github.com/samber/lo"
)

// Queue holds connections waiting for an opponent, oldest first.
type Queue struct {
	entries []*Connection
	matches *Matches
}

// NewQueue returns an empty queue that opens new matches in matches.
func NewQueue(matches *Matches) *Queue {
	return &Queue{matches: matches}
}

// EnqueueOrPair pairs c with the oldest waiting connection and returns the
// new match, or parks c and returns nil when nobody is waiting. The waiting
// connection takes seat one.
func (q *Queue) EnqueueOrPair(c *Connection) *Match {
	if len(q.entries) == 0 {
		q.entries = append(q.entries, c)
		c.role = RoleWaiting
		return nil
	}
	head := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	return q.matches.Create(head, c)
}

// RemoveIfWaiting drops c from the queue. It is a no-op when c is not queued.
func (q *Queue) RemoveIfWaiting(c *Connection) bool {
	i := lo.IndexOf(q.entries, c)
	if i < 0 {
		return false
	}
	q.entries = slices.Delete(q.entries, i, i+1)
	if c.role == RoleWaiting {
		c.role = RoleUnassigned
	}
	return true
}

// Len is the number of waiting connections.
func (q *Queue) Len() int { return len(q.entries) }

func (q *Queue) contains(c *Connection) bool { return lo.Contains(q.entries, c) }
