// Package protocol defines the JSON messages exchanged with duel clients.
//
// Every websocket text frame carries exactly one JSON object whose "type"
// field selects the message.
package protocol

// Client to server.
const (
	TypeJoin   = "join"
	TypeMove   = "move"
	TypeAttack = "attack"
)

// Server to client.
const (
	TypeWaiting = "waiting"
	TypeStart   = "start"
	TypeUpdate  = "update"
	TypeDamage  = "damage"
	TypeWin     = "win"
	TypeLose    = "lose"
)

// Inbound is the union of every client message. Only the fields relevant to
// Type are meaningful.
type Inbound struct {
	Type     string   `json:"type"`
	Username string   `json:"username,omitempty"`
	Figure   string   `json:"figure,omitempty"`
	X        *float64 `json:"x,omitempty"`
}

// Waiting tells a client it is parked until an opponent arrives.
type Waiting struct {
	Type string `json:"type"`
}

// Start announces a formed match to one of its two players.
type Start struct {
	Type           string `json:"type"`
	RoomID         string `json:"roomId"`
	PlayerNumber   int    `json:"playerNumber"`
	Opponent       string `json:"opponent"`
	OpponentFigure string `json:"opponentFigure"`
}

// Update is the full position and health sync sent after a move.
type Update struct {
	Type string  `json:"type"`
	P1X  float64 `json:"p1X"`
	P2X  float64 `json:"p2X"`
	P1Hp int     `json:"p1Hp"`
	P2Hp int     `json:"p2Hp"`
}

// Damage reports a resolved attack to the defender. Only the defender's
// health field is set.
type Damage struct {
	Type   string `json:"type"`
	Damage int    `json:"damage"`
	P1Hp   *int   `json:"p1Hp,omitempty"`
	P2Hp   *int   `json:"p2Hp,omitempty"`
}

// Result is a bare win or lose notification.
type Result struct {
	Type string `json:"type"`
}

func NewWaiting() Waiting { return Waiting{Type: TypeWaiting} }

func NewStart(roomID string, playerNumber int, opponent, opponentFigure string) Start {
	return Start{
		Type:           TypeStart,
		RoomID:         roomID,
		PlayerNumber:   playerNumber,
		Opponent:       opponent,
		OpponentFigure: opponentFigure,
	}
}

func NewUpdate(p1X, p2X float64, p1Hp, p2Hp int) Update {
	return Update{Type: TypeUpdate, P1X: p1X, P2X: p2X, P1Hp: p1Hp, P2Hp: p2Hp}
}

// NewDamage builds the damage message for the given defender (1 or 2)
// carrying its new health.
func NewDamage(defender, damage, hp int) Damage {
	d := Damage{Type: TypeDamage, Damage: damage}
	if defender == 1 {
		d.P1Hp = &hp
	} else {
		d.P2Hp = &hp
	}
	return d
}

func NewWin() Result  { return Result{Type: TypeWin} }
func NewLose() Result { return Result{Type: TypeLose} }
