// Package quizbot wires the quiz engine and the access gate into the Telegram runtime.
package quizbot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/quizbot/access"
	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/core/state"
	coretelegram "github.com/m3rciful/quizbot/core/telegram"
	"github.com/m3rciful/quizbot/core/telegram/middleware"
	"github.com/m3rciful/quizbot/core/telegram/router"
	"github.com/m3rciful/quizbot/quiz"
)

// Messenger delivers messages to arbitrary chats. *tele.Bot satisfies it.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// App holds the quiz bot services and the Telegram command registry.
type App struct {
	cfg *Config
	db  *sqlx.DB

	engine   *quiz.Engine
	gate     *access.Gate
	registry *coretelegram.Registry

	mu        sync.RWMutex
	messenger Messenger
}

// Option customises an App.
type Option func(*App)

// WithMessenger sets the outbound messenger. Without it the bot itself is used once it starts.
func WithMessenger(m Messenger) Option {
	return func(a *App) { a.messenger = m }
}

// WithEngine replaces the quiz engine built from configuration.
func WithEngine(e *quiz.Engine) Option {
	return func(a *App) { a.engine = e }
}

// New builds the application. db is required when the allow-list is stored in SQL.
func New(cfg *Config, db *sqlx.DB, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("quizbot: nil config")
	}
	app := &App{cfg: cfg, db: db}
	for _, opt := range opts {
		opt(app)
	}

	store, err := app.buildStore()
	if err != nil {
		return nil, err
	}
	gate, err := access.NewGate(store, cfg.Telegram.AdminID)
	if err != nil {
		return nil, fmt.Errorf("quizbot: %w", err)
	}
	app.gate = gate

	if app.engine == nil {
		catalog, err := quiz.NewCatalog(cfg.Quiz.Dir, cfg.Quiz.Catalog)
		if err != nil {
			return nil, fmt.Errorf("quizbot: %w", err)
		}
		app.engine = quiz.NewEngine(catalog, nil, state.NewMemory[quiz.Session](), quiz.Options{
			SharedOrder: cfg.Quiz.SharedOrder,
		})
	}

	app.registry = coretelegram.NewRegistry()
	if err := app.register(); err != nil {
		return nil, err
	}

	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "app.init",
		slog.String("storage", cfg.Storage.Driver),
		slog.String("quiz_dir", cfg.Quiz.Dir),
		slog.String("quizzes", logger.Preview(app.engine.Names(), 5)),
		slog.Bool("shared_order", cfg.Quiz.SharedOrder),
	)
	return app, nil
}

func (a *App) buildStore() (access.Store, error) {
	switch a.cfg.Storage.Driver {
	case StorageFile, "":
		return access.NewFileStore(a.cfg.Storage.AllowlistPath), nil
	case StorageSQLite, StoragePostgres:
		if a.db == nil {
			return nil, fmt.Errorf("quizbot: storage driver %q requires a database connection", a.cfg.Storage.Driver)
		}
		return access.NewSQLStore(a.db), nil
	default:
		return nil, fmt.Errorf("quizbot: unknown storage driver %q", a.cfg.Storage.Driver)
	}
}

func (a *App) register() error {
	cmds := []struct {
		name string
		cmd  coretelegram.Command
	}{
		{"/start", coretelegram.Command{Handler: a.handleStart, Description: "Start a quiz"}},
		{"/cancel", coretelegram.Command{Handler: a.handleCancel, Description: "Cancel the current quiz"}},
	}
	for _, c := range cmds {
		if err := a.registry.RegisterCommand(c.name, c.cmd); err != nil {
			return fmt.Errorf("quizbot: %w", err)
		}
	}

	adminOnly := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  a.cfg.Telegram.AdminID,
		OnReject: rejectNonAdmin,
	})
	if err := a.registry.RegisterCallback(callbackAccess, adminOnly(a.handleAccessDecision)); err != nil {
		return fmt.Errorf("quizbot: %w", err)
	}
	a.registry.SetCallbackNotFound(handleStaleButton)
	a.registry.SetTextFallback(a.handleIdleText)
	return nil
}

// Registry exposes the command and callback registry.
func (a *App) Registry() *coretelegram.Registry { return a.registry }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.cfg }

func (a *App) setMessenger(m Messenger) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.messenger == nil {
		a.messenger = m
	}
}

func (a *App) outbound() Messenger {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.messenger
}

// TelegramRunOptions assembles middlewares, routes and lifecycle hooks for the runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()

	routes := router.CommandRoutes(a.registry, router.CommandRouteOptions{
		AdminID: core.Telegram.AdminID,
	})
	routes = append(routes, router.TextRoutes(sessionFSM{a}, a.registry, router.TextOptions{
		UnknownDocument: a.handleIdleText,
	})...)
	routes = append(routes, router.CallbackRoute(a.registry, router.CallbackOptions{}))

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    a.registry,
		Middlewares: coretelegram.DefaultMiddlewares(core, onRateLimited),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.setMessenger(rt.Bot)
			return nil
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			return a.Close()
		},
	}, nil
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("quizbot: close database: %w", err)
	}
	return nil
}

// sessionFSM routes free text of users with an active quiz session to the engine.
type sessionFSM struct{ app *App }

func (f sessionFSM) InProgress(userID int64) bool {
	return f.app.engine.InProgress(userID)
}

func (f sessionFSM) ManagerHandler(c tele.Context) error {
	return f.app.handleQuizText(c)
}
