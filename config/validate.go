package config

import (
	"fmt"
	"net/url"

	klog "github.com/Klingon-tech/ipdb-go/internal/log"
)

// Validate checks the configuration for obvious mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}

	u, err := url.Parse(cfg.Ledger.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("ledger.url must be an http(s) URL, got %q", cfg.Ledger.URL)
	}
	if (cfg.Ledger.AppID == "") != (cfg.Ledger.AppKey == "") {
		return fmt.Errorf("ledger.app_id and ledger.app_key must be set together")
	}
	if cfg.Ledger.Timeout <= 0 {
		return fmt.Errorf("ledger.timeout must be positive")
	}

	if cfg.Poll.Attempts < 1 {
		return fmt.Errorf("poll.attempts must be at least 1")
	}
	if cfg.Poll.Delay < 0 {
		return fmt.Errorf("poll.delay must not be negative")
	}

	switch cfg.Signer.Mode {
	case SignerLocal:
	case SignerCommand:
		if cfg.Signer.Binary == "" {
			return fmt.Errorf("signer.binary is required when signer.mode = command")
		}
	default:
		return fmt.Errorf("signer.mode must be %q or %q", SignerLocal, SignerCommand)
	}

	if !klog.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, error or off")
	}
	return nil
}
