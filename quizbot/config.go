package quizbot

import (
	"fmt"
	"strings"

	coreconfig "github.com/m3rciful/quizbot/core/config"
	coredatabase "github.com/m3rciful/quizbot/core/database"
	"github.com/m3rciful/quizbot/quiz"
)

// Allow-list storage drivers.
const (
	StorageFile     = "file"
	StoragePostgres = coredatabase.DriverPostgres
	StorageSQLite   = coredatabase.DriverSQLite
)

const (
	defaultQuizDir       = "quizzes"
	defaultAllowlistPath = "allowed_users.txt"
	defaultSQLitePath    = "data/quizbot.db"
)

// QuizConfig selects where question banks live and how they are shuffled.
type QuizConfig struct {
	Dir string `yaml:"dir" envconfig:"QUIZ_DIR"`
	// Catalog overrides the built-in list of quizzes.
	Catalog []quiz.Entry `yaml:"catalog" ignored:"true"`
	// SharedOrder gives every user the same shuffled order, fixed at first load.
	SharedOrder bool `yaml:"shared_order" envconfig:"QUIZ_SHARED_ORDER"`
}

// StorageConfig selects the allow-list backend.
type StorageConfig struct {
	Driver        string `yaml:"driver" envconfig:"STORAGE_DRIVER"`
	AllowlistPath string `yaml:"allowlist_path" envconfig:"ALLOWLIST_PATH"`
}

// Config is the quiz bot configuration. The core section is inlined at the top level.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Quiz     QuizConfig          `yaml:"quiz"`
	Storage  StorageConfig       `yaml:"storage"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// UsesDatabase reports whether the allow-list lives in a SQL database.
func (c *Config) UsesDatabase() bool {
	return c.Storage.Driver != StorageFile
}

// LoadConfig reads the YAML file at path, applies environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	c.Quiz.Dir = strings.TrimSpace(c.Quiz.Dir)
	if c.Quiz.Dir == "" {
		c.Quiz.Dir = defaultQuizDir
	}
	if len(c.Quiz.Catalog) == 0 {
		c.Quiz.Catalog = quiz.DefaultEntries()
	}

	driver := strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if driver == "" {
		driver = StorageFile
	}
	c.Storage.Driver = driver

	switch driver {
	case StorageFile:
		if strings.TrimSpace(c.Storage.AllowlistPath) == "" {
			c.Storage.AllowlistPath = defaultAllowlistPath
		}
	case StorageSQLite:
		c.Database.Driver = coredatabase.DriverSQLite
		if strings.TrimSpace(c.Database.Path) == "" {
			c.Database.Path = defaultSQLitePath
		}
	case StoragePostgres:
		c.Database.Driver = coredatabase.DriverPostgres
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("database.host and database.name are required when storage.driver is 'postgres'")
		}
		if c.Database.Port == "" {
			c.Database.Port = "5432"
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	default:
		return fmt.Errorf("invalid storage.driver %q; allowed: file, sqlite, postgres", c.Storage.Driver)
	}
	return nil
}
