package middleware

import (
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/quizbot/core/config"
)

type limitContext struct {
	tele.Context
	update tele.Update
	store  map[string]any
}

func (c *limitContext) Update() tele.Update { return c.update }
func (c *limitContext) Get(key string) any { return c.store[key] }
func (c *limitContext) Set(key string, v any) {
	c.store[key] = v
}
func (c *limitContext) Chat() *tele.Chat { return nil }

func (c *limitContext) Sender() *tele.User {
	switch {
	case c.update.Callback != nil:
		return c.update.Callback.Sender
	case c.update.Message != nil:
		return c.update.Message.Sender
	}
	return nil
}

func message(id int, userID int64) *limitContext {
	return &limitContext{
		update: tele.Update{ID: id, Message: &tele.Message{Sender: &tele.User{ID: userID}}},
		store:  map[string]any{},
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	var handled, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Burst:     2,
		OnLimited: func(tele.Context) error { limited++; return nil },
		now:       func() time.Time { return clock },
	})
	h := mw(func(tele.Context) error { handled++; return nil })

	for i := 0; i < 3; i++ {
		_ = h(message(i+1, 5))
	}
	if handled != 2 || limited != 1 {
		t.Fatalf("burst: handled=%d limited=%d", handled, limited)
	}

	// Another user has an independent bucket.
	_ = h(message(10, 6))
	if handled != 3 {
		t.Fatalf("other user handled=%d", handled)
	}

	clock = clock.Add(time.Second)
	_ = h(message(11, 5))
	if handled != 4 || limited != 1 {
		t.Fatalf("after refill: handled=%d limited=%d", handled, limited)
	}
}

func TestRateLimitExclusions(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	handled := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{coreconfig.UpdateCallback: {}},
		now:      func() time.Time { return clock },
	})
	h := mw(func(tele.Context) error { handled++; return nil })

	for i := 0; i < 3; i++ {
		c := &limitContext{
			update: tele.Update{ID: 20 + i, Callback: &tele.Callback{Sender: &tele.User{ID: 5}}},
			store:  map[string]any{},
		}
		_ = h(c)
	}
	if handled != 3 {
		t.Fatalf("callbacks must bypass the limiter, handled=%d", handled)
	}
}
