package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned for frames that do not parse into a known
// client message.
var ErrMalformed = errors.New("malformed message")

// Decode parses one client frame and checks the fields its type requires.
// Semantic checks, such as an empty username, are left to the caller.
func Decode(b []byte) (Inbound, error) {
	if len(b) == 0 {
		return Inbound{}, fmt.Errorf("%w: empty frame", ErrMalformed)
	}
	var in Inbound
	if err := json.Unmarshal(b, &in); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch in.Type {
	case TypeJoin, TypeAttack:
	case TypeMove:
		if in.X == nil {
			return Inbound{}, fmt.Errorf("%w: move without x", ErrMalformed)
		}
	case "":
		return Inbound{}, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return Inbound{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, in.Type)
	}
	return in, nil
}

// Encode serializes an outbound message.
func Encode(msg any) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("encode: nil message")
	}
	return json.Marshal(msg)
}
