package arena

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

type connectCmd struct {
	conn  Conn
	reply chan ConnID
}

type messageCmd struct {
	id    ConnID
	frame []byte
}

type disconnectCmd struct {
	id ConnID
}

type statsCmd struct {
	reply chan Stats
}

// Loop serializes every command for a Coordinator onto one goroutine, so
// each intent runs to completion before the next is looked at. Commands
// from one transport are applied in the order they were posted.
type Loop struct {
	inbox chan any
	c     *Coordinator
	log   zerolog.Logger
}

// NewLoop wraps c. inboxSize bounds how many commands may be pending
// before posting blocks.
func NewLoop(c *Coordinator, log zerolog.Logger, inboxSize int) *Loop {
	return &Loop{
		inbox: make(chan any, inboxSize),
		c:     c,
		log:   log,
	}
}

// Run processes commands until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-l.inbox:
			l.handle(cmd)
		}
	}
}

func (l *Loop) handle(cmd any) {
	switch c := cmd.(type) {
	case connectCmd:
		c.reply <- l.c.Connect(c.conn).ID
	case messageCmd:
		if err := l.c.HandleMessage(c.id, c.frame); err != nil {
			l.logDropped(c.id, err)
		}
	case disconnectCmd:
		l.c.Disconnect(c.id)
	case statsCmd:
		c.reply <- l.c.Stats()
	}
}

func (l *Loop) logDropped(id ConnID, err error) {
	ev := l.log.Warn()
	if errors.Is(err, ErrUnboundIntent) {
		ev = l.log.Debug()
	}
	ev.Err(err).Uint64("conn", uint64(id)).Msg("dropped message")
}

// Connect registers conn and returns its id.
func (l *Loop) Connect(ctx context.Context, conn Conn) (ConnID, error) {
	reply := make(chan ConnID, 1)
	if err := l.post(ctx, connectCmd{conn: conn, reply: reply}); err != nil {
		return 0, err
	}
	select {
	case id := <-reply:
		return id, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Message queues one inbound frame from id.
func (l *Loop) Message(ctx context.Context, id ConnID, frame []byte) error {
	return l.post(ctx, messageCmd{id: id, frame: frame})
}

// Disconnect queues cleanup for id.
func (l *Loop) Disconnect(ctx context.Context, id ConnID) error {
	return l.post(ctx, disconnectCmd{id: id})
}

// Stats asks the loop for a snapshot of its counters.
func (l *Loop) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if err := l.post(ctx, statsCmd{reply: reply}); err != nil {
		return Stats{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

func (l *Loop) post(ctx context.Context, cmd any) error {
	select {
	case l.inbox <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
