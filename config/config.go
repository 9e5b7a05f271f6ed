// Package config handles client configuration.
//
// Values are resolved in order of increasing precedence: built-in
// defaults, the config file, IPDB_* environment variables, then
// command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/Klingon-tech/ipdb-go/internal/ledger"
	"github.com/Klingon-tech/ipdb-go/internal/settlement"
)

// SignerMode selects the signer implementation.
type SignerMode string

const (
	SignerLocal   SignerMode = "local"   // in-process Ed25519
	SignerCommand SignerMode = "command" // external binary
)

// Config holds client settings. The `conf` tags name the config file
// keys; nested sections are prefixed with the section name and a dot.
type Config struct {
	DataDir string `conf:"datadir"`

	Ledger  LedgerConfig  `conf:"ledger"`
	Poll    PollConfig    `conf:"poll"`
	Signer  SignerConfig  `conf:"signer"`
	Journal JournalConfig `conf:"journal"`
	Log     LogConfig     `conf:"log"`
}

// LedgerConfig identifies the ledger node and its credentials.
type LedgerConfig struct {
	URL     string        `conf:"url"`
	AppID   string        `conf:"app_id"`
	AppKey  string        `conf:"app_key"`
	Timeout time.Duration `conf:"timeout"`
}

// PollConfig bounds confirmation polling.
type PollConfig struct {
	Attempts int           `conf:"attempts"`
	Delay    time.Duration `conf:"delay"`
}

// SignerConfig selects and configures the signer.
type SignerConfig struct {
	Mode    SignerMode    `conf:"mode"`
	Binary  string        `conf:"binary"`
	Timeout time.Duration `conf:"timeout"`
}

// JournalConfig controls the local operation journal.
type JournalConfig struct {
	Enabled bool `conf:"enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"level"`
	File  string `conf:"file"`
	JSON  bool   `conf:"json"`
}

// Endpoint returns the ledger endpoint to pass to each call.
func (c *Config) Endpoint() ledger.Endpoint {
	return ledger.Endpoint{
		BaseURL: c.Ledger.URL,
		AppID:   c.Ledger.AppID,
		AppKey:  c.Ledger.AppKey,
	}
}

// PollPolicy returns the confirmation poll policy.
func (c *Config) PollPolicy() settlement.PollPolicy {
	return settlement.PollPolicy{Attempts: c.Poll.Attempts, Delay: c.Poll.Delay}
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.ipdb
//	macOS:   ~/Library/Application Support/IPDB
//	Windows: %APPDATA%\IPDB
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ipdb"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "IPDB")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "IPDB")
		}
		return filepath.Join(home, "AppData", "Roaming", "IPDB")
	default:
		return filepath.Join(home, ".ipdb")
	}
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.DataDir, "keystore")
}

// JournalDir returns the journal database directory.
func (c *Config) JournalDir() string {
	return filepath.Join(c.DataDir, "journal")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "ipdb.conf")
}
