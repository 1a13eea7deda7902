package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mscrnt/emgd_confgen/pkg/db"
	"github.com/mscrnt/emgd_confgen/pkg/form"
)

// getDBPath returns the path to the profile database file
func getDBPath() string {
	// Check environment variable first
	if dbPath := os.Getenv("EMGDCONF_DB_PATH"); dbPath != "" {
		return dbPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "emgdconf.db"
	}

	confDir := filepath.Join(homeDir, ".emgdconf")
	if err := os.MkdirAll(confDir, 0o755); err == nil {
		return filepath.Join(confDir, "emgdconf.db")
	}

	return "emgdconf.db"
}

// openDB opens the profile database
func openDB() (*db.DB, error) {
	database, err := db.Open(getDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// newLogger returns a prefixed logger writing to stderr, or to logFile when
// set. The returned function closes the log file.
func newLogger(prefix, logFile string) (*log.Logger, func(), error) {
	if logFile == "" {
		return log.New(os.Stderr, "["+prefix+"] ", log.LstdFlags), func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666) // #nosec G304 -- log path comes from a command line flag
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return log.New(f, "["+prefix+"] ", log.LstdFlags), func() { _ = f.Close() }, nil
}

// loadForm assembles form values from a saved profile, a TOML file and
// key=value overrides, in that order
func loadForm(profile, formPath string, overrides map[string]string) (form.Values, error) {
	values := form.Values{}

	if profile != "" {
		database, err := openDB()
		if err != nil {
			return nil, err
		}
		defer func() { _ = database.Close() }()

		p, err := database.GetProfile(profile)
		if err != nil {
			return nil, err
		}
		values.Merge(p.Form.Values())
	}

	if formPath != "" {
		fileValues, err := form.LoadTOML(formPath)
		if err != nil {
			return nil, err
		}
		values.Merge(fileValues)
	}

	for k, v := range overrides {
		values[form.Field(k)] = v
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("no form input: use --form, --profile or --set")
	}
	return values, nil
}

// openOutput returns stdout or the created file at path
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path) // #nosec G304 -- output path comes from a command line flag
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// encode writes v as indented JSON or YAML
func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}
