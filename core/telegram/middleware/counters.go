package middleware

import tele "gopkg.in/telebot.v4"

const (
	keyReplies  = "replies"
	keyKeyboard = "kb"
)

// countingContext wraps tele.Context to count replies and detect keyboard usage
// for the handler summary line.
type countingContext struct{ tele.Context }

func (m countingContext) inc(hasKB bool) {
	n, _ := m.Get(keyReplies).(int)
	m.Set(keyReplies, n+1)
	if hasKB {
		m.Set(keyKeyboard, true)
	}
}

func hasKeyboard(opts []interface{}) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

// Send proxies tele.Context.Send while updating reply counters.
func (m countingContext) Send(what interface{}, opts ...interface{}) error {
	err := m.Context.Send(what, opts...)
	if err == nil {
		m.inc(hasKeyboard(opts))
	}
	return err
}

// Reply proxies tele.Context.Reply while updating reply counters.
func (m countingContext) Reply(what interface{}, opts ...interface{}) error {
	err := m.Context.Reply(what, opts...)
	if err == nil {
		m.inc(hasKeyboard(opts))
	}
	return err
}

// Edit proxies tele.Context.Edit; edits count as replies.
func (m countingContext) Edit(what interface{}, opts ...interface{}) error {
	err := m.Context.Edit(what, opts...)
	if err == nil {
		m.inc(hasKeyboard(opts))
	}
	return err
}

// ReplyCounterMiddleware instruments the context so handler summaries report replies sent.
func ReplyCounterMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(keyReplies, 0)
		c.Set(keyKeyboard, false)
		return next(countingContext{Context: c})
	}
}

// GetCounters reads reply count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	n, _ := c.Get(keyReplies).(int)
	kb, _ := c.Get(keyKeyboard).(bool)
	return n, kb
}
