package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/state"
)

var (
	// ErrNotNumber is returned for an answer that is not an integer.
	ErrNotNumber = errors.New("answer is not a number")
	// ErrOutOfRange is returned for an option number outside the question's options.
	ErrOutOfRange = errors.New("answer is out of range")
)

// User-facing texts.
const (
	TextChooseQuiz   = "Choose a quiz:"
	TextPickFromMenu = "Please choose a quiz from the buttons."
	TextUnavailable  = "⚠️ This quiz is unavailable right now. Please choose another one."
	TextSendNumber   = "Send the option number."
	TextBadNumber    = "Invalid number. Try again."
	TextCorrect      = "✅ Correct!"
	TextWrongFormat  = "❌ Wrong. Correct answer: %s"
	TextFinished     = "🎉 Quiz finished. Score: %d/%d."
	TextCancelled    = "❌ Quiz cancelled."
)

// Reply is a message the transport should deliver, in order.
// Menu, when not empty, is offered as a one-shot choice keyboard.
type Reply struct {
	Text           string
	Menu           []string
	RemoveKeyboard bool
}

// Options configures an Engine.
type Options struct {
	// SharedOrder shuffles each bank once at first load and gives every user the same order.
	// By default every session gets its own shuffle of the canonical bank.
	SharedOrder bool
	// Rand is the shuffle source. Nil uses the global generator.
	Rand *rand.Rand
}

// Engine drives the quiz conversation for every user.
type Engine struct {
	catalog  *Catalog
	banks    *BankCache
	sessions *state.Memory[Session]
	steps    *state.Locks
	shared   bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine wires the catalog, a bank cache built with load and the session store.
// A nil load reads quiz files from disk.
func NewEngine(catalog *Catalog, load LoaderFunc, sessions *state.Memory[Session], opts Options) *Engine {
	if sessions == nil {
		sessions = state.NewMemory[Session]()
	}
	e := &Engine{
		catalog:  catalog,
		sessions: sessions,
		steps:    state.NewLocks(),
		shared:   opts.SharedOrder,
		rng:      opts.Rand,
	}
	var prepare func([]Question) []Question
	if e.shared {
		prepare = e.shuffle
	}
	e.banks = NewBankCache(catalog, load, prepare)
	return e
}

func (e *Engine) shuffle(qs []Question) []Question {
	if e.rng == nil {
		return Shuffle(qs, nil)
	}
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return Shuffle(qs, e.rng)
}

// Session returns a copy of the user's session.
func (e *Engine) Session(userID int64) (Session, bool) {
	return e.sessions.Get(userID)
}

// Names returns the quizzes offered in the menu.
func (e *Engine) Names() []string {
	return e.catalog.Names()
}

// InProgress reports whether the user is choosing a quiz or answering questions.
func (e *Engine) InProgress(userID int64) bool {
	s, ok := e.sessions.Get(userID)
	return ok && s.Step != StepIdle
}

// Begin resets the user's session and shows the quiz menu.
// Callers must check access before calling it.
func (e *Engine) Begin(ctx context.Context, userID int64) Reply {
	defer e.steps.Lock(userID)()
	e.sessions.Set(userID, Session{Step: StepChoosing})
	logger.LogEvent(ctx, logger.Quiz, slog.LevelInfo, "session.begin",
		slog.String("status", "ok"),
		slog.String("state", string(StepChoosing)),
	)
	return e.menu(TextChooseQuiz)
}

// Handle routes free text to the step the user is in.
// It returns nil when the user has no active session.
// Steps of one user run one at a time, so every answer sees the session left by the previous one.
func (e *Engine) Handle(ctx context.Context, userID int64, text string) []Reply {
	defer e.steps.Lock(userID)()
	s, ok := e.sessions.Get(userID)
	if !ok {
		return nil
	}
	switch s.Step {
	case StepChoosing:
		return e.selectQuiz(ctx, userID, text)
	case StepAnswering:
		return e.answer(ctx, userID, s, text)
	default:
		return nil
	}
}

// Cancel ends the user's session in any state.
func (e *Engine) Cancel(ctx context.Context, userID int64) Reply {
	defer e.steps.Lock(userID)()
	s, ok := e.sessions.Get(userID)
	e.sessions.Clear(userID)
	attrs := []slog.Attr{slog.String("outcome", "cancelled")}
	if ok {
		attrs = append(attrs,
			slog.String("state", string(s.Step)),
			slog.String("quiz", s.Quiz),
			slog.Int("question", s.Current+1),
		)
	}
	logger.LogEvent(ctx, logger.Quiz, slog.LevelInfo, "session.cancel", attrs...)
	return Reply{Text: TextCancelled, RemoveKeyboard: true}
}

func (e *Engine) selectQuiz(ctx context.Context, userID int64, text string) []Reply {
	name := strings.TrimSpace(text)
	if !e.catalog.Has(name) {
		logger.LogEvent(ctx, logger.Quiz, slog.LevelDebug, "session.select",
			slog.String("status", "fail"),
			slog.String("err_code", "unknown_quiz"),
		)
		return []Reply{e.menu(TextPickFromMenu)}
	}

	bank, err := e.banks.Get(ctx, name)
	if err != nil {
		return []Reply{e.menu(TextUnavailable)}
	}
	questions := bank
	if !e.shared {
		questions = e.shuffle(bank)
	}

	s := Session{Step: StepAnswering, Quiz: name, Questions: questions}
	e.sessions.Set(userID, s)
	logger.LogEvent(ctx, logger.Quiz, slog.LevelInfo, "session.start",
		slog.String("status", "ok"),
		slog.String("quiz", name),
		slog.Int("questions", len(questions)),
	)
	q, _ := s.Question()
	return []Reply{{Text: RenderQuestion(name, s.Current, len(questions), q), RemoveKeyboard: true}}
}

func (e *Engine) answer(ctx context.Context, userID int64, s Session, text string) []Reply {
	q, ok := s.Question()
	if !ok {
		e.sessions.Clear(userID)
		return nil
	}
	idx, err := ParseAnswer(text, len(q.Options))
	switch {
	case errors.Is(err, ErrNotNumber):
		return []Reply{{Text: TextSendNumber}}
	case errors.Is(err, ErrOutOfRange):
		return []Reply{{Text: TextBadNumber}}
	}

	correct := idx == q.Correct
	var feedback string
	if correct {
		s.Score++
		feedback = TextCorrect
	} else {
		feedback = fmt.Sprintf(TextWrongFormat, q.CorrectText())
	}
	s.Current++
	logger.LogEvent(ctx, logger.Quiz, slog.LevelDebug, "session.answer",
		slog.String("quiz", s.Quiz),
		slog.Int("question", s.Current),
		slog.Int("answer", idx+1),
		slog.Bool("correct", correct),
	)

	replies := []Reply{{Text: feedback}}
	if s.Done() {
		e.sessions.Clear(userID)
		logger.LogEvent(ctx, logger.Quiz, slog.LevelInfo, "session.finish",
			slog.String("status", "ok"),
			slog.String("quiz", s.Quiz),
			slog.String("score", fmt.Sprintf("%d/%d", s.Score, len(s.Questions))),
		)
		return append(replies, Reply{Text: fmt.Sprintf(TextFinished, s.Score, len(s.Questions)), RemoveKeyboard: true})
	}

	e.sessions.Set(userID, s)
	next, _ := s.Question()
	return append(replies, Reply{Text: RenderQuestion(s.Quiz, s.Current, len(s.Questions), next)})
}

func (e *Engine) menu(text string) Reply {
	return Reply{Text: text, Menu: e.catalog.Names()}
}

// ParseAnswer converts a 1-based option number into an option index.
func ParseAnswer(text string, options int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, ErrNotNumber
	}
	if n < 1 || n > options {
		return 0, fmt.Errorf("%w: %d not in 1..%d", ErrOutOfRange, n, options)
	}
	return n - 1, nil
}

// RenderQuestion formats question index (0-based) of total for display.
func RenderQuestion(quizName string, index, total int, q Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quiz: %s\nQuestion %d/%d:\n%s\n\n", quizName, index+1, total, q.Text)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "%d) %s\n", i+1, opt)
	}
	return strings.TrimRight(b.String(), "\n")
}
