package config

// Environment variables read by ApplyEnv.
const (
	EnvURL    = "IPDB_URL"
	EnvAppID  = "IPDB_APP_ID"
	EnvAppKey = "IPDB_APP_KEY"
)

// ApplyEnv overrides ledger settings from the environment. Empty
// variables are ignored. getenv is usually os.Getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvURL); v != "" {
		cfg.Ledger.URL = v
	}
	if v := getenv(EnvAppID); v != "" {
		cfg.Ledger.AppID = v
	}
	if v := getenv(EnvAppKey); v != "" {
		cfg.Ledger.AppKey = v
	}
}
