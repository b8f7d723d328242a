package quizbot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/quizbot/access"
	coreconfig "github.com/m3rciful/quizbot/core/config"
	"github.com/m3rciful/quizbot/quiz"
)

const (
	testAdmin = int64(42)
	testUser  = int64(7)
)

const testBank = `What keyword starts a goroutine?
- defer
+ go
- async

Which type is a reference type?
+ map
- int
- struct{}
`

type sent struct {
	to     string
	text   string
	markup *tele.ReplyMarkup
}

type fakeMessenger struct {
	out []sent
}

func (m *fakeMessenger) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	s := sent{to: to.Recipient(), text: fmt.Sprint(what)}
	for _, o := range opts {
		if mk, ok := o.(*tele.ReplyMarkup); ok {
			s.markup = mk
		}
	}
	m.out = append(m.out, s)
	return &tele.Message{}, nil
}

type fakeContext struct {
	tele.Context
	update    tele.Update
	store     map[string]any
	sent      []sent
	edits     []string
	responses []*tele.CallbackResponse
}

func (f *fakeContext) Update() tele.Update { return f.update }
func (f *fakeContext) Callback() *tele.Callback { return f.update.Callback }
func (f *fakeContext) Message() *tele.Message { return f.update.Message }
func (f *fakeContext) Get(key string) any { return f.store[key] }
func (f *fakeContext) Set(key string, val any) { f.store[key] = val }

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
	if u := f.Sender(); u != nil {
		return &tele.Chat{ID: u.ID, Type: tele.ChatPrivate}
	}
	return nil
}

func (f *fakeContext) Text() string {
	if f.update.Message != nil {
		return f.update.Message.Text
	}
	return ""
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	s := sent{text: fmt.Sprint(what)}
	for _, o := range opts {
		if mk, ok := o.(*tele.ReplyMarkup); ok {
			s.markup = mk
		}
	}
	f.sent = append(f.sent, s)
	return nil
}

func (f *fakeContext) Edit(what interface{}, opts ...interface{}) error {
	f.edits = append(f.edits, fmt.Sprint(what))
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	if len(resp) == 0 {
		f.responses = append(f.responses, nil)
		return nil
	}
	f.responses = append(f.responses, resp[0])
	return nil
}

func (f *fakeContext) lastText() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].text
}

type harness struct {
	t         *testing.T
	app       *App
	messenger *fakeMessenger
	routes    map[any]tele.HandlerFunc
	allowlist string
	nextID    int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "go.txt"), []byte(testBank), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &Config{
		Config: coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "x", AdminID: testAdmin}},
		Quiz: QuizConfig{
			Dir:     dir,
			Catalog: []quiz.Entry{{Name: "Go", File: "go.txt"}, {Name: "Missing", File: "missing.txt"}},
		},
		Storage: StorageConfig{Driver: StorageFile, AllowlistPath: filepath.Join(dir, "allowed_users.txt")},
	}
	m := &fakeMessenger{}
	app, err := New(cfg, nil, WithMessenger(m))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	opts, err := app.TelegramRunOptions()
	if err != nil {
		t.Fatalf("TelegramRunOptions: %v", err)
	}
	routes := make(map[any]tele.HandlerFunc, len(opts.Routes))
	for _, r := range opts.Routes {
		routes[r.Endpoint] = r.Handler
	}
	return &harness{t: t, app: app, messenger: m, routes: routes, allowlist: cfg.Storage.AllowlistPath, nextID: 100}
}

func (h *harness) dispatch(endpoint any, upd tele.Update) *fakeContext {
	h.t.Helper()
	h.nextID++
	upd.ID = h.nextID
	handler, ok := h.routes[endpoint]
	if !ok {
		h.t.Fatalf("no route for %v", endpoint)
	}
	c := &fakeContext{update: upd, store: map[string]any{}}
	if err := handler(c); err != nil {
		h.t.Fatalf("%v handler: %v", endpoint, err)
	}
	return c
}

func (h *harness) command(userID int64, cmd string) *fakeContext {
	h.t.Helper()
	return h.dispatch(cmd, tele.Update{Message: &tele.Message{
		Text:   cmd,
		Sender: &tele.User{ID: userID, FirstName: "Ann", Username: "ann"},
	}})
}

func (h *harness) text(userID int64, text string) *fakeContext {
	h.t.Helper()
	return h.dispatch(tele.OnText, tele.Update{Message: &tele.Message{
		Text:   text,
		Sender: &tele.User{ID: userID},
	}})
}

func (h *harness) press(userID int64, btn tele.InlineButton) *fakeContext {
	h.t.Helper()
	return h.dispatch(tele.OnCallback, tele.Update{Callback: &tele.Callback{
		Data:   "\f" + btn.Unique + "|" + btn.Data,
		Sender: &tele.User{ID: userID},
	}})
}

func (h *harness) allowed(userID int64) bool {
	h.t.Helper()
	ok, err := h.app.gate.IsAllowed(context.Background(), userID)
	if err != nil {
		h.t.Fatalf("IsAllowed: %v", err)
	}
	return ok
}

// requestAccess runs /start for an unknown user and returns the admin's inline buttons.
func (h *harness) requestAccess(userID int64) (allow, deny tele.InlineButton) {
	h.t.Helper()
	before := len(h.messenger.out)
	h.command(userID, "/start")
	if len(h.messenger.out) != before+1 {
		h.t.Fatalf("expected one prompt to the admin, got %d", len(h.messenger.out)-before)
	}
	mk := h.messenger.out[before].markup
	if mk == nil || len(mk.InlineKeyboard) != 1 || len(mk.InlineKeyboard[0]) != 2 {
		h.t.Fatalf("prompt markup = %+v", mk)
	}
	return mk.InlineKeyboard[0][0], mk.InlineKeyboard[0][1]
}

func TestUnknownUserRequestsAccess(t *testing.T) {
	h := newHarness(t)

	c := h.command(testUser, "/start")
	if c.lastText() != access.TextRequestSent {
		t.Fatalf("user got %q", c.lastText())
	}
	if h.app.engine.InProgress(testUser) {
		t.Fatal("unapproved user must stay idle")
	}
	if len(h.messenger.out) != 1 {
		t.Fatalf("admin messages = %d", len(h.messenger.out))
	}
	prompt := h.messenger.out[0]
	if prompt.to != "42" || !strings.Contains(prompt.text, "Ann (@ann) (7)") {
		t.Fatalf("prompt = %+v", prompt)
	}
	allow := prompt.markup.InlineKeyboard[0][0]
	deny := prompt.markup.InlineKeyboard[0][1]
	if allow.Unique != callbackAccess || allow.Data != "allow:7" || deny.Data != "deny:7" {
		t.Fatalf("buttons = %+v / %+v", allow, deny)
	}

	// Free text from an idle user is pointed at /start.
	c = h.text(testUser, "hello")
	if c.lastText() != TextSendStart {
		t.Fatalf("idle text reply = %q", c.lastText())
	}
}

func TestOnlyAdminCanDecide(t *testing.T) {
	h := newHarness(t)
	allow, _ := h.requestAccess(testUser)

	c := h.press(testUser, allow)
	if len(c.responses) != 1 || c.responses[0] == nil || c.responses[0].Text != access.TextNotAdmin {
		t.Fatalf("non-admin responses = %+v", c.responses)
	}
	if h.allowed(testUser) {
		t.Fatal("non-admin press must not approve")
	}
}

func TestApprovalThenQuizRun(t *testing.T) {
	h := newHarness(t)
	allow, _ := h.requestAccess(testUser)

	c := h.press(testAdmin, allow)
	if len(c.edits) != 1 || c.edits[0] != "✅ User 7 approved." {
		t.Fatalf("admin edits = %q", c.edits)
	}
	if len(c.responses) != 1 || c.responses[0] != nil {
		t.Fatalf("expected one empty callback answer, got %+v", c.responses)
	}
	last := h.messenger.out[len(h.messenger.out)-1]
	if last.to != "7" || last.text != access.TextGranted {
		t.Fatalf("user notification = %+v", last)
	}
	if !h.allowed(testUser) {
		t.Fatal("approved user must be allowed")
	}

	// A second approval of the same request keeps one allow-list entry.
	h.press(testAdmin, allow)
	data, err := os.ReadFile(h.allowlist)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "7\n"); got != 1 {
		t.Fatalf("allow-list = %q", data)
	}

	c = h.command(testUser, "/start")
	if len(c.sent) != 1 || c.sent[0].text != quiz.TextChooseQuiz {
		t.Fatalf("menu = %+v", c.sent)
	}
	if mk := c.sent[0].markup; mk == nil || !mk.OneTimeKeyboard || len(mk.ReplyKeyboard) != 2 {
		t.Fatalf("menu markup = %+v", c.sent[0].markup)
	}

	c = h.text(testUser, "Rust")
	if c.lastText() != quiz.TextPickFromMenu {
		t.Fatalf("unknown quiz reply = %q", c.lastText())
	}

	c = h.text(testUser, "Missing")
	if c.lastText() != quiz.TextUnavailable {
		t.Fatalf("broken quiz reply = %q", c.lastText())
	}

	c = h.text(testUser, "Go")
	if !strings.HasPrefix(c.lastText(), "Quiz: Go\nQuestion 1/2:") {
		t.Fatalf("first question = %q", c.lastText())
	}

	c = h.text(testUser, "abc")
	if c.lastText() != quiz.TextSendNumber {
		t.Fatalf("non-numeric reply = %q", c.lastText())
	}
	c = h.text(testUser, "9")
	if c.lastText() != quiz.TextBadNumber {
		t.Fatalf("out of range reply = %q", c.lastText())
	}

	for i := 0; i < 2; i++ {
		s, ok := h.app.engine.Session(testUser)
		if !ok || s.Current != i {
			t.Fatalf("session before answer %d = %+v, %v", i, s, ok)
		}
		q, _ := s.Question()
		c = h.text(testUser, fmt.Sprintf(" %d ", q.Correct+1))
		if len(c.sent) != 2 || c.sent[0].text != quiz.TextCorrect {
			t.Fatalf("answer %d replies = %+v", i, c.sent)
		}
	}
	if c.lastText() != "🎉 Quiz finished. Score: 2/2." {
		t.Fatalf("completion = %q", c.lastText())
	}
	if c.sent[1].markup == nil || !c.sent[1].markup.RemoveKeyboard {
		t.Fatalf("completion must remove the keyboard: %+v", c.sent[1].markup)
	}
	if h.app.engine.InProgress(testUser) {
		t.Fatal("session must be deleted after completion")
	}
}

func TestDenyDoesNotPersist(t *testing.T) {
	h := newHarness(t)
	_, deny := h.requestAccess(testUser)

	c := h.press(testAdmin, deny)
	if len(c.edits) != 1 || c.edits[0] != "❌ User 7 rejected." {
		t.Fatalf("admin edits = %q", c.edits)
	}
	last := h.messenger.out[len(h.messenger.out)-1]
	if last.to != "7" || last.text != access.TextDenied {
		t.Fatalf("user notification = %+v", last)
	}
	if h.allowed(testUser) {
		t.Fatal("denied user must not be allowed")
	}
	if _, err := os.Stat(h.allowlist); !os.IsNotExist(err) {
		t.Fatalf("deny must not create the allow-list, stat err = %v", err)
	}
}

func TestInvalidDecisionPayload(t *testing.T) {
	h := newHarness(t)
	for _, payload := range []string{"allow:abc", "maybe:7", "allow:-3", ""} {
		c := h.press(testAdmin, tele.InlineButton{Unique: callbackAccess, Data: payload})
		if len(c.responses) != 1 || c.responses[0] == nil || !c.responses[0].ShowAlert ||
			c.responses[0].Text != access.TextBadDecision {
			t.Fatalf("payload %q responses = %+v", payload, c.responses)
		}
		if len(c.edits) != 0 {
			t.Fatalf("payload %q must not edit the prompt", payload)
		}
	}
}

func TestStaleButton(t *testing.T) {
	h := newHarness(t)
	c := h.press(testUser, tele.InlineButton{Unique: "retired", Data: "x"})
	if len(c.responses) != 1 || c.responses[0] == nil || c.responses[0].Text != TextStaleButton {
		t.Fatalf("responses = %+v", c.responses)
	}
}

func TestCancelClearsSession(t *testing.T) {
	h := newHarness(t)
	allow, _ := h.requestAccess(testUser)
	h.press(testAdmin, allow)

	h.command(testUser, "/start")
	h.text(testUser, "Go")
	if !h.app.engine.InProgress(testUser) {
		t.Fatal("expected active session")
	}

	c := h.command(testUser, "/cancel")
	if c.lastText() != quiz.TextCancelled {
		t.Fatalf("cancel reply = %q", c.lastText())
	}
	if mk := c.sent[0].markup; mk == nil || !mk.RemoveKeyboard {
		t.Fatalf("cancel must remove the keyboard: %+v", mk)
	}
	if h.app.engine.InProgress(testUser) {
		t.Fatal("session must be deleted after cancel")
	}

	// Cancel from the idle state only acknowledges.
	c = h.command(testUser, "/cancel")
	if c.lastText() != quiz.TextCancelled {
		t.Fatalf("idle cancel reply = %q", c.lastText())
	}
}

func TestSQLStorageRequiresDatabase(t *testing.T) {
	cfg := &Config{
		Config:  coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "x", AdminID: testAdmin}},
		Quiz:    QuizConfig{Dir: t.TempDir(), Catalog: quiz.DefaultEntries()},
		Storage: StorageConfig{Driver: StorageSQLite},
	}
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error without a database connection")
	}
}
