package config

import (
	"time"

	"github.com/Klingon-tech/ipdb-go/internal/settlement"
	"github.com/Klingon-tech/ipdb-go/internal/signer"
)

// DefaultLedgerURL is the public IPDB test network.
const DefaultLedgerURL = "https://test.ipdb.io/api/v1"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Ledger: LedgerConfig{
			URL:     DefaultLedgerURL,
			Timeout: 10 * time.Second,
		},
		Poll: PollConfig{
			Attempts: settlement.DefaultPollAttempts,
			Delay:    settlement.DefaultPollDelay,
		},
		Signer: SignerConfig{
			Mode:    SignerLocal,
			Binary:  signer.DefaultBinary,
			Timeout: 30 * time.Second,
		},
		Journal: JournalConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}
