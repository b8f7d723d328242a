package router

import (
	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
)

// FSM defines the minimal interface for a conversation state machine.
type FSM interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

type textRouter struct {
	fsm  FSM
	reg  *tg.Registry
	opts TextOptions
}

func (r textRouter) inConversation(c tele.Context) bool {
	return r.fsm != nil && c.Sender() != nil && r.fsm.InProgress(c.Sender().ID)
}

// text sends users with an active conversation to the FSM. Everyone else is
// matched against public commands, then the registry fallback, then UnknownText.
func (r textRouter) text(c tele.Context) error {
	if r.inConversation(c) {
		return run(c, "fsm", r.fsm.ManagerHandler)
	}
	if r.reg != nil {
		if key, cmd, ok := r.reg.LookupCommand(c.Text()); ok && cmd.Handler != nil && !cmd.AdminOnly {
			return run(c, normalizeHandlerName(key), cmd.Handler)
		}
		if fb := r.reg.TextFallback(); fb != nil {
			return run(c, "fallback", fb)
		}
	}
	if r.opts.UnknownText != nil {
		return run(c, "unknown_text", r.opts.UnknownText)
	}
	logSkipped(c, "unknown_text")
	return nil
}

func (r textRouter) document(c tele.Context) error {
	if r.inConversation(c) {
		return run(c, "fsm_document", r.fsm.ManagerHandler)
	}
	if r.opts.UnknownDocument != nil {
		return run(c, "unexpected_document", r.opts.UnknownDocument)
	}
	logSkipped(c, "unexpected_document")
	return nil
}

// TextRoutes builds the OnText and OnDocument routes.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	r := textRouter{fsm: fsmMgr, reg: reg, opts: opts}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(r.text)},
		{Endpoint: tele.OnDocument, Handler: wrap(r.document)},
	}
}

// wrap guards a route against panics. Update logging stays in the global chain.
func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(h)
}
