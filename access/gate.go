// Package access implements the allow-list gate and the administrator approval handshake.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/m3rciful/quizbot/core/logger"
)

// Store persists the allow-list. Membership only grows.
type Store interface {
	// Contains reports whether userID was approved. It must reflect the latest Add.
	Contains(ctx context.Context, userID int64) (bool, error)
	// Add records userID. It reports false without error when the id was already present.
	Add(ctx context.Context, userID int64) (bool, error)
}

// User-facing texts.
const (
	TextRequestSent   = "⏳ Request sent. Please wait for approval."
	TextGranted       = "✅ Access granted. Send /start."
	TextDenied        = "❌ Access denied."
	TextAdminApproved = "✅ User %d approved."
	TextAdminRejected = "❌ User %d rejected."
	TextAllowButton   = "✅ Allow"
	TextDenyButton    = "❌ Deny"
	TextBadDecision   = "Invalid or outdated request."
	TextNotAdmin      = "Only the administrator can do this."
	promptFormat      = "User %s (%d) requests access."
)

// Requester identifies a user asking for access.
type Requester struct {
	ID       int64
	Name     string
	Username string
}

// Label returns a human readable name for the administrator prompt.
func (r Requester) Label() string {
	name := strings.TrimSpace(r.Name)
	if r.Username != "" {
		if name == "" {
			return "@" + r.Username
		}
		return name + " (@" + r.Username + ")"
	}
	if name == "" {
		return "unknown"
	}
	return name
}

// Prompt is the approval request shown to the administrator.
type Prompt struct {
	AdminID int64
	Text    string
	Allow   Decision
	Deny    Decision
}

// Outcome is the result of resolving a decision.
type Outcome struct {
	Decision Decision
	// Added is false when an approval found the user already allowed.
	Added     bool
	UserText  string
	AdminText string
}

// Gate answers membership checks and resolves administrator decisions.
type Gate struct {
	store   Store
	adminID int64
}

// NewGate builds a gate over store with the single approving administrator.
func NewGate(store Store, adminID int64) (*Gate, error) {
	if store == nil {
		return nil, errors.New("access: nil store")
	}
	if adminID <= 0 {
		return nil, fmt.Errorf("access: invalid admin id %d", adminID)
	}
	return &Gate{store: store, adminID: adminID}, nil
}

// AdminID returns the administrator who approves requests.
func (g *Gate) AdminID() int64 { return g.adminID }

// IsAllowed checks the store on every call so approvals apply immediately.
func (g *Gate) IsAllowed(ctx context.Context, userID int64) (bool, error) {
	ok, err := g.store.Contains(ctx, userID)
	if err != nil {
		logger.LogEvent(ctx, logger.Access, slog.LevelError, "access.check",
			slog.String("status", "fail"),
			slog.Int64("target_user_id", userID),
			slog.Any("err", err),
		)
		return false, fmt.Errorf("access check: %w", err)
	}
	logger.LogEvent(ctx, logger.Access, slog.LevelDebug, "access.check",
		slog.String("status", "ok"),
		slog.Int64("target_user_id", userID),
		slog.Bool("allowed", ok),
	)
	return ok, nil
}

// RequestAccess builds the approval prompt for the administrator.
// Nothing is stored: the pending request lives only in the prompt's buttons.
func (g *Gate) RequestAccess(ctx context.Context, r Requester) (Prompt, error) {
	if r.ID <= 0 {
		return Prompt{}, fmt.Errorf("access: invalid requester id %d", r.ID)
	}
	logger.LogEvent(ctx, logger.Access, slog.LevelInfo, "access.request",
		slog.String("status", "ok"),
		slog.Int64("target_user_id", r.ID),
	)
	return Prompt{
		AdminID: g.adminID,
		Text:    fmt.Sprintf(promptFormat, r.Label(), r.ID),
		Allow:   Decision{Action: ActionAllow, UserID: r.ID},
		Deny:    Decision{Action: ActionDeny, UserID: r.ID},
	}, nil
}

// Resolve applies an administrator decision.
func (g *Gate) Resolve(ctx context.Context, d Decision) (Outcome, error) {
	out := Outcome{Decision: d}
	switch d.Action {
	case ActionAllow:
		added, err := g.store.Add(ctx, d.UserID)
		if err != nil {
			logger.LogEvent(ctx, logger.Access, slog.LevelError, "access.resolve",
				slog.String("status", "fail"),
				slog.String("decision", string(d.Action)),
				slog.Int64("target_user_id", d.UserID),
				slog.Any("err", err),
			)
			return Outcome{}, fmt.Errorf("allow user %d: %w", d.UserID, err)
		}
		out.Added = added
		out.UserText = TextGranted
		out.AdminText = fmt.Sprintf(TextAdminApproved, d.UserID)
	case ActionDeny:
		out.UserText = TextDenied
		out.AdminText = fmt.Sprintf(TextAdminRejected, d.UserID)
	default:
		return Outcome{}, fmt.Errorf("%w: unknown action %q", ErrInvalidDecision, d.Action)
	}
	logger.LogEvent(ctx, logger.Access, slog.LevelInfo, "access.resolve",
		slog.String("status", "ok"),
		slog.String("decision", string(d.Action)),
		slog.Int64("target_user_id", d.UserID),
		slog.Bool("allowed", d.Action == ActionAllow),
	)
	return out, nil
}
