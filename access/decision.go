package access

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDecision reports a malformed or unknown approval payload.
var ErrInvalidDecision = errors.New("invalid access decision")

// Action is the administrator's answer to an access request.
type Action string

const (
	// ActionAllow approves the requester.
	ActionAllow Action = "allow"
	// ActionDeny refuses the requester without recording anything.
	ActionDeny Action = "deny"
)

// Decision is an administrator action on a single requester.
type Decision struct {
	Action Action
	UserID int64
}

// Payload encodes the decision as "action:user_id".
func (d Decision) Payload() string {
	return string(d.Action) + ":" + strconv.FormatInt(d.UserID, 10)
}

// ParseDecision decodes an "action:user_id" payload.
// The payload comes from a client button press and is treated as untrusted.
func ParseDecision(payload string) (Decision, error) {
	action, rawID, ok := strings.Cut(strings.TrimSpace(payload), ":")
	if !ok {
		return Decision{}, fmt.Errorf("%w: %q", ErrInvalidDecision, payload)
	}
	d := Decision{Action: Action(action)}
	switch d.Action {
	case ActionAllow, ActionDeny:
	default:
		return Decision{}, fmt.Errorf("%w: unknown action %q", ErrInvalidDecision, action)
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		return Decision{}, fmt.Errorf("%w: bad user id %q", ErrInvalidDecision, rawID)
	}
	d.UserID = id
	return d, nil
}
