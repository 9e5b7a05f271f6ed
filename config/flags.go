package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"
)

// Flags holds the global command-line flags. Parsing stops at the first
// non-flag argument, the command name.
type Flags struct {
	Help    bool
	Version bool

	DataDir string
	Config  string

	URL     string
	AppID   string
	AppKey  string
	Timeout time.Duration

	PollAttempts int
	PollDelay    time.Duration

	Signer       string
	SignerBinary string
	NoJournal    bool

	LogLevel string
	LogFile  string
	LogJSON  bool

	// Args holds the command and its arguments.
	Args []string

	// Explicitly-set flags whose zero value is meaningful.
	SetPollDelay bool
	SetLogJSON   bool
}

// ParseFlags parses global flags from args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("ipdb-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	fs.StringVar(&f.URL, "url", "", "Ledger API base URL")
	fs.StringVar(&f.AppID, "app-id", "", "Ledger app id")
	fs.StringVar(&f.AppKey, "app-key", "", "Ledger app key")
	fs.DurationVar(&f.Timeout, "timeout", 0, "HTTP request timeout")

	fs.IntVar(&f.PollAttempts, "poll-attempts", 0, "Status checks per submission")
	fs.DurationVar(&f.PollDelay, "poll-delay", 0, "Wait before each status check")

	fs.StringVar(&f.Signer, "signer", "", "Signer mode: local or command")
	fs.StringVar(&f.SignerBinary, "signer-binary", "", "External signer executable")
	fs.BoolVar(&f.NoJournal, "no-journal", false, "Do not record operations in the journal")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error, off)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	f.Args = fs.Args()
	f.SetPollDelay = isFlagSet(fs, "poll-delay")
	f.SetLogJSON = isFlagSet(fs, "log-json")
	return f, nil
}

// ApplyFlags applies command-line flags to cfg.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	if f.URL != "" {
		cfg.Ledger.URL = f.URL
	}
	if f.AppID != "" {
		cfg.Ledger.AppID = f.AppID
	}
	if f.AppKey != "" {
		cfg.Ledger.AppKey = f.AppKey
	}
	if f.Timeout != 0 {
		cfg.Ledger.Timeout = f.Timeout
	}

	if f.PollAttempts != 0 {
		cfg.Poll.Attempts = f.PollAttempts
	}
	if f.SetPollDelay {
		cfg.Poll.Delay = f.PollDelay
	}

	if f.Signer != "" {
		cfg.Signer.Mode = SignerMode(f.Signer)
	}
	if f.SignerBinary != "" {
		cfg.Signer.Binary = f.SignerBinary
	}
	if f.NoJournal {
		cfg.Journal.Enabled = false
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// Load resolves the configuration:
//  1. defaults
//  2. data directory and default config file, created if missing
//  3. config file
//  4. environment
//  5. flags
func Load(args []string, getenv func(string) string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg := Default()
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	values, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, values); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}
	// A datadir flag beats a datadir in the file.
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	ApplyEnv(cfg, getenv)
	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory layout and a default config
// file when they do not exist yet. It is safe to call on every start.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.KeystoreDir(), cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	path := cfg.ConfigFile()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := WriteDefaultConfig(path); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
