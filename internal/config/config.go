package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"
	_ "time/tzdata"

	"camp-export/internal/textsafe"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultMealTypes is the category order used when no meal types file is
// configured.
var DefaultMealTypes = []string{
	"Zmorgen",
	"Znüni",
	"Zmittag",
	"Zvieri",
	"Znacht",
	"Dessert",
	"Leitersnack",
	"Vorbereiten",
}

// Config holds the configuration for the application.
type Config struct {
	FirestoreProjectID    string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreDatabaseID   string `env:"FIRESTORE_DATABASE_ID" envDefault:"(default)"`
	FirestoreEndpoint     string `env:"FIRESTORE_ENDPOINT"`
	FirestoreEmulatorHost string `env:"FIRESTORE_EMULATOR_HOST"`
	CredentialsFile       string `env:"GOOGLE_APPLICATION_CREDENTIALS"`

	MealTypesFile string `env:"MEAL_TYPES_FILE"`
	Timezone      string `env:"EXPORT_TIMEZONE" envDefault:"Europe/Zurich"`
	// Escaper names the text escaping applied for the typesetter, e.g.
	// "ampersand", "latex" or "und,latex".
	Escaper string `env:"EXPORT_ESCAPER" envDefault:"ampersand"`

	SnapshotPath string `env:"SNAPSHOT_PATH" envDefault:"snapshots"`
	SnapshotKeep int    `env:"SNAPSHOT_KEEP" envDefault:"10"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"camp-export.db"`

	// Telegram Config (optional, notifications are skipped without a token)
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`

	OTelEndpoint string `env:"OTEL_EXPORTER_ENDPOINT"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	// MealTypes is read from MealTypesFile, or DefaultMealTypes.
	MealTypes []string
	// Location is the parsed Timezone.
	Location *time.Location
	// Sanitizer is the parsed Escaper.
	Sanitizer textsafe.Sanitizer
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	cfg.Sanitizer, err = textsafe.Named(cfg.Escaper)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_ESCAPER: %w", err)
	}

	if cfg.MealTypesFile == "" {
		cfg.MealTypes = slices.Clone(DefaultMealTypes)
	} else {
		cfg.MealTypes, err = LoadMealTypes(cfg.MealTypesFile)
		if err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// RequireFirestore reports an error when the settings needed to reach
// Firestore are missing.
func (c *Config) RequireFirestore() error {
	if c.FirestoreProjectID == "" {
		return errors.New("FIRESTORE_PROJECT_ID environment variable not set")
	}
	return nil
}

type mealTypesFile struct {
	MealTypes []string `yaml:"meal_types"`
}

// LoadMealTypes reads the ordered meal categories from a YAML file of the form
//
//	meal_types:
//	  - Zmorgen
//	  - Zmittag
func LoadMealTypes(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read meal types file: %w", err)
	}

	var f mealTypesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse meal types file %s: %w", path, err)
	}
	if len(f.MealTypes) == 0 {
		return nil, fmt.Errorf("meal types file %s lists no meal types", path)
	}
	for i, t := range f.MealTypes {
		if t == "" {
			return nil, fmt.Errorf("meal types file %s: entry %d is empty", path, i)
		}
	}
	return f.MealTypes, nil
}
