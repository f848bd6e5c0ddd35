package arena

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type sent struct {
	to  string
	msg map[string]any
}

// wire records every frame delivered to any fakeConn in delivery order.
type wire struct {
	t    *testing.T
	sent []sent
}

type fakeConn struct {
	name string
	w    *wire
	fail bool
}

func (f *fakeConn) Send(frame []byte) error {
	if f.fail {
		return errors.New("use of closed network connection")
	}
	var m map[string]any
	if err := json.Unmarshal(frame, &m); err != nil {
		f.w.t.Fatalf("frame to %s is not json: %s", f.name, frame)
	}
	f.w.sent = append(f.w.sent, sent{to: f.name, msg: m})
	return nil
}

func newWire(t *testing.T) *wire { return &wire{t: t} }

func (w *wire) conn(name string) *fakeConn { return &fakeConn{name: name, w: w} }

// to returns the messages delivered to name.
func (w *wire) to(name string) []map[string]any {
	var out []map[string]any
	for _, s := range w.sent {
		if s.to == name {
			out = append(out, s.msg)
		}
	}
	return out
}

func (w *wire) reset() { w.sent = nil }

func newTestCoordinator() *Coordinator { return NewCoordinator(zerolog.Nop()) }

func mustHandle(t *testing.T, c *Coordinator, id ConnID, frame string) {
	t.Helper()
	if err := c.HandleMessage(id, []byte(frame)); err != nil {
		t.Fatalf("handle %s from %d: %v", frame, id, err)
	}
}

// startMatch connects and joins two players and clears the recorded frames.
func startMatch(t *testing.T, c *Coordinator, w *wire) (*Connection, *Connection, *Match) {
	t.Helper()
	p1 := c.Connect(w.conn("p1"))
	p2 := c.Connect(w.conn("p2"))
	mustHandle(t, c, p1.ID, `{"type":"join","username":"alice","figure":"F1"}`)
	mustHandle(t, c, p2.ID, `{"type":"join","username":"bob","figure":"F2"}`)
	if p1.Match() == nil || p1.Match() != p2.Match() {
		t.Fatalf("expected p1 and p2 to share a match")
	}
	w.reset()
	return p1, p2, p1.Match()
}

func types(msgs []map[string]any) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m["type"].(string))
	}
	return out
}
