package bootstrap

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
)

func TestRunWithoutDatabase(t *testing.T) {
	var loggerCalled bool
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { loggerCalled = true; return nil },
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("connect must not run without a database")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !loggerCalled || res.DB != nil {
		t.Fatalf("unexpected result: logger=%v db=%v", loggerCalled, res.DB)
	}
}

func TestRunMigratesBeforeConnect(t *testing.T) {
	var steps []string
	_, err := Run(Options{
		Config:      &coreconfig.Config{},
		UseDatabase: true,
		LoggerInit:  func(*coreconfig.Config) error { steps = append(steps, "logger"); return nil },
		Migrate:     func(coredatabase.Config) error { steps = append(steps, "migrate"); return nil },
		Connect: func(coredatabase.Config) (*sqlx.DB, error) {
			steps = append(steps, "connect")
			return nil, errors.New("refused")
		},
	})
	if err == nil {
		t.Fatal("expected connect error")
	}
	if len(steps) != 3 || steps[1] != "migrate" || steps[2] != "connect" {
		t.Fatalf("steps = %v", steps)
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
