package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("FIRESTORE_PROJECT_ID", "pfadi-kochbuch")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.FirestoreProjectID != "pfadi-kochbuch" {
			t.Errorf("Expected FirestoreProjectID to be 'pfadi-kochbuch', got '%s'", cfg.FirestoreProjectID)
		}
		if cfg.FirestoreDatabaseID != "(default)" {
			t.Errorf("Expected FirestoreDatabaseID to be '(default)', got '%s'", cfg.FirestoreDatabaseID)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("Expected LogLevel to be 'info', got '%s'", cfg.LogLevel)
		}
		if len(cfg.MealTypes) != len(DefaultMealTypes) {
			t.Fatalf("Expected %d meal types, got %d", len(DefaultMealTypes), len(cfg.MealTypes))
		}
		if cfg.MealTypes[0] != "Zmorgen" || cfg.MealTypes[7] != "Vorbereiten" {
			t.Errorf("Unexpected meal types: %v", cfg.MealTypes)
		}
		if cfg.Location == nil {
			t.Error("Expected Location to be set")
		}
	})

	t.Run("MealTypesNotShared", func(t *testing.T) {
		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		cfg.MealTypes[0] = "Brunch"
		if DefaultMealTypes[0] != "Zmorgen" {
			t.Errorf("Expected DefaultMealTypes to stay unchanged, got %v", DefaultMealTypes)
		}
	})

	t.Run("TelegramChatID", func(t *testing.T) {
		t.Setenv("TELEGRAM_BOT_TOKEN", "token")
		t.Setenv("TELEGRAM_CHAT_ID", "-100123")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.TelegramChatID != -100123 {
			t.Errorf("Expected TelegramChatID to be -100123, got %d", cfg.TelegramChatID)
		}
	})

	t.Run("InvalidChatID", func(t *testing.T) {
		t.Setenv("TELEGRAM_CHAT_ID", "abc")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for an invalid TELEGRAM_CHAT_ID, got nil")
		}
	})

	t.Run("InvalidTimezone", func(t *testing.T) {
		t.Setenv("EXPORT_TIMEZONE", "Mars/Olympus")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for an invalid EXPORT_TIMEZONE, got nil")
		}
	})

	t.Run("DefaultEscaper", func(t *testing.T) {
		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got := cfg.Sanitizer.Sanitize("Salz & 5%"); got != `Salz \& 5%` {
			t.Errorf("Expected only the ampersand escaped, got '%s'", got)
		}
	})

	t.Run("LaTeXEscaper", func(t *testing.T) {
		t.Setenv("EXPORT_ESCAPER", "latex")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got := cfg.Sanitizer.Sanitize("Salz & 5%"); got != `Salz \& 5\%` {
			t.Errorf("Expected every special character escaped, got '%s'", got)
		}
	})

	t.Run("InvalidEscaper", func(t *testing.T) {
		t.Setenv("EXPORT_ESCAPER", "html")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for an invalid EXPORT_ESCAPER, got nil")
		}
	})

	t.Run("MealTypesFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "meal_types.yaml")
		if err := os.WriteFile(path, []byte("meal_types:\n  - Zmorgen\n  - Brunch\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("MEAL_TYPES_FILE", path)
		t.Setenv("EXPORT_TIMEZONE", "UTC")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(cfg.MealTypes) != 2 || cfg.MealTypes[1] != "Brunch" {
			t.Errorf("Expected meal types [Zmorgen Brunch], got %v", cfg.MealTypes)
		}
	})

	t.Run("MissingMealTypesFile", func(t *testing.T) {
		t.Setenv("MEAL_TYPES_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
		t.Setenv("EXPORT_TIMEZONE", "UTC")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for a missing meal types file, got nil")
		}
	})
}

func TestRequireFirestore(t *testing.T) {
	cfg := &Config{}
	err := cfg.RequireFirestore()
	if err == nil {
		t.Fatal("Expected an error for missing FIRESTORE_PROJECT_ID, got nil")
	}
	expectedError := "FIRESTORE_PROJECT_ID environment variable not set"
	if err.Error() != expectedError {
		t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
	}

	cfg.FirestoreProjectID = "p"
	if err := cfg.RequireFirestore(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestLoadMealTypes(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "meal_types.yaml")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("Empty", func(t *testing.T) {
		if _, err := LoadMealTypes(write(t, "meal_types: []\n")); err == nil {
			t.Fatal("Expected an error for an empty list, got nil")
		}
	})

	t.Run("BlankEntry", func(t *testing.T) {
		if _, err := LoadMealTypes(write(t, "meal_types:\n  - Zmorgen\n  - \"\"\n")); err == nil {
			t.Fatal("Expected an error for a blank entry, got nil")
		}
	})

	t.Run("InvalidYAML", func(t *testing.T) {
		if _, err := LoadMealTypes(write(t, "meal_types: [unclosed\n")); err == nil {
			t.Fatal("Expected an error for invalid YAML, got nil")
		}
	})
}
