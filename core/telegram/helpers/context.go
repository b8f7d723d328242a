package helpers

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/quizbot/core/logger"
)

const (
	ctxKey = "log_ctx"
	ridKey = "rid"
)

// SenderID returns the id of the user behind the update, or 0 for channel posts and service updates.
func SenderID(c tele.Context) int64 {
	if u := c.Sender(); u != nil {
		return u.ID
	}
	return 0
}

// ChatID returns the id of the chat the update belongs to, or 0.
func ChatID(c tele.Context) int64 {
	if ch := c.Chat(); ch != nil {
		return ch.ID
	}
	return 0
}

// NewContext builds the per-update logging context and caches it on c.
// An empty rid is derived from the update, chat and user ids.
func NewContext(c tele.Context, rid string) context.Context {
	updateID := c.Update().ID
	userID, chatID := SenderID(c), ChatID(c)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
	}
	c.Set(ridKey, rid)

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	c.Set(ctxKey, ctx)
	return ctx
}

// BuildContext returns the context cached by NewContext, creating it on first use.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	rid, _ := c.Get(ridKey).(string)
	return NewContext(c, rid)
}

// WithHandler tags the cached context with the handler name so service logs can be grouped by it.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" || logger.HandlerFrom(ctx) == handler {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	c.Set(ctxKey, ctx)
	return ctx
}
