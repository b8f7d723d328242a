package router

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/quizbot/core/logger"
	tg "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/quizbot/core/telegram/helpers"
)

type fakeContext struct {
	tele.Context
	update    tele.Update
	store     map[string]any
	responses []*tele.CallbackResponse
}

func newFakeContext(upd tele.Update) *fakeContext {
	return &fakeContext{update: upd, store: map[string]any{}}
}

func (f *fakeContext) Update() tele.Update {
	return f.update
}

func (f *fakeContext) Callback() *tele.Callback {
	return f.update.Callback
}

func (f *fakeContext) Message() *tele.Message {
	return f.update.Message
}

func (f *fakeContext) Sender() *tele.User {
	switch {
	case f.update.Callback != nil:
		return f.update.Callback.Sender
	case f.update.Message != nil:
		return f.update.Message.Sender
	}
	return nil
}

func (f *fakeContext) Chat() *tele.Chat {
	return nil
}

func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}

func (f *fakeContext) Get(key string) any {
	return f.store[key]
}

func (f *fakeContext) Set(key string, val any) {
	f.store[key] = val
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		f.responses = append(f.responses, nil)
		return nil
	}
	f.responses = append(f.responses, resp[0])
	return nil
}

func callbackUpdate(id int, data string) tele.Update {
	return tele.Update{ID: id, Callback: &tele.Callback{Data: data, Sender: &tele.User{ID: 10}}}
}

func TestCallbackRouteAnswersOnce(t *testing.T) {
	reg := tg.NewRegistry()
	var payload string
	_ = reg.RegisterCallback("access", func(c tele.Context) error {
		payload = callbacks.CallbackPayload(c)
		return callbacks.Alert(c, "bad payload")
	})
	_ = reg.RegisterCallback("silent", func(tele.Context) error { return nil })
	route := CallbackRoute(reg, CallbackOptions{})

	c := newFakeContext(callbackUpdate(1, "\faccess|allow:5"))
	if err := route.Handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if payload != "allow:5" {
		t.Fatalf("payload = %q", payload)
	}
	if len(c.responses) != 1 || c.responses[0] == nil || !c.responses[0].ShowAlert {
		t.Fatalf("responses = %+v", c.responses)
	}

	c = newFakeContext(callbackUpdate(2, "\fsilent"))
	if err := route.Handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(c.responses) != 1 || c.responses[0] != nil {
		t.Fatalf("expected one empty answer, got %+v", c.responses)
	}
}

func TestCallbackRouteUnknownKey(t *testing.T) {
	route := CallbackRoute(tg.NewRegistry(), CallbackOptions{})
	c := newFakeContext(callbackUpdate(3, "\fmissing|x"))
	if err := route.Handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(c.responses) != 1 || c.responses[0] == nil || c.responses[0].Text != "Unsupported action" {
		t.Fatalf("responses = %+v", c.responses)
	}
}

type fakeFSM struct {
	active  map[int64]bool
	handled int
	err     error
}

func (f *fakeFSM) InProgress(userID int64) bool { return f.active[userID] }
func (f *fakeFSM) ManagerHandler(tele.Context) error {
	f.handled++
	return f.err
}

func textUpdate(id int, userID int64, text string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{Text: text, Sender: &tele.User{ID: userID}}}
}

func TestTextRoutesPreferFSM(t *testing.T) {
	fsm := &fakeFSM{active: map[int64]bool{1: true}}
	reg := tg.NewRegistry()
	var fallbacks int
	reg.SetTextFallback(func(tele.Context) error { fallbacks++; return nil })

	routes := TextRoutes(fsm, reg, TextOptions{})
	if len(routes) != 2 || routes[0].Endpoint != tele.OnText {
		t.Fatalf("routes = %+v", routes)
	}
	text := routes[0].Handler

	if err := text(newFakeContext(textUpdate(10, 1, "2"))); err != nil {
		t.Fatal(err)
	}
	if err := text(newFakeContext(textUpdate(11, 2, "hello"))); err != nil {
		t.Fatal(err)
	}
	if fsm.handled != 1 || fallbacks != 1 {
		t.Fatalf("fsm=%d fallback=%d", fsm.handled, fallbacks)
	}

	fsm.err = errors.New("boom")
	if err := text(newFakeContext(textUpdate(12, 1, "x"))); !errors.Is(err, fsm.err) {
		t.Fatalf("expected fsm error to propagate, got %v", err)
	}
}

func TestRoutesReuseUpdateContext(t *testing.T) {
	reg := tg.NewRegistry()
	var rid string
	reg.SetTextFallback(func(c tele.Context) error {
		rid = logger.RIDFrom(tghelpers.BuildContext(c))
		return nil
	})
	text := TextRoutes(nil, reg, TextOptions{})[0].Handler

	c := newFakeContext(textUpdate(20, 5, "hello"))
	tghelpers.NewContext(c, "chain-rid")
	if err := text(c); err != nil {
		t.Fatal(err)
	}
	if rid != "chain-rid" {
		t.Fatalf("handler saw rid %q, want the one prepared by the global chain", rid)
	}
	if got, _ := c.Get("rid").(string); got != "chain-rid" {
		t.Fatalf("route replaced the update rid with %q", got)
	}
}

func TestDeriveErrorCode(t *testing.T) {
	if got := deriveErrorCode(&codedErr{}); got != "NOT_ALLOWED" {
		t.Fatalf("deriveErrorCode = %q", got)
	}
	if got := normalizeHandlerName(" /Start Now "); got != "start_now" {
		t.Fatalf("normalizeHandlerName = %q", got)
	}
}

type codedErr struct{}

func (*codedErr) Error() string { return "nope" }
func (*codedErr) Code() string  { return "not allowed" }
