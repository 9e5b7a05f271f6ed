package config

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// LoadFile reads a .conf file of `key = value` lines; `#` starts a comment.
// A missing file yields no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return nil, fmt.Errorf("line %d: empty key", lineNum)
		}
		values[key] = unquote(strings.TrimSpace(value))
	}
	return values, scanner.Err()
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' && v[len(v)-1] == '"' || v[0] == '\'' && v[len(v)-1] == '\'') {
		return v[1 : len(v)-1]
	}
	return v
}

// ApplyFileConfig decodes flat `section.key` values onto cfg. Keys not
// present keep their current value; unknown keys are ignored.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "conf",
		WeaklyTypedInput: true,
		Result:           cfg,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToBoolHook,
		),
	})
	if err != nil {
		return fmt.Errorf("config decoder: %w", err)
	}
	if err := dec.Decode(nest(values)); err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	return nil
}

// nest turns {"ledger.url": v} into {"ledger": {"url": v}}.
func nest(values map[string]string) map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range values {
		section, field, ok := strings.Cut(key, ".")
		if !ok {
			out[key] = value
			continue
		}
		m, isMap := out[section].(map[string]interface{})
		if !isMap {
			m = make(map[string]interface{})
			out[section] = m
		}
		m[field] = value
	}
	return out
}

// stringToBoolHook accepts yes/no and on/off as well as what
// strconv.ParseBool does.
func stringToBoolHook(f, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String || t.Kind() != reflect.Bool {
		return data, nil
	}
	return parseBool(data.(string))
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on", "t":
		return true, nil
	case "false", "0", "no", "off", "f", "":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// WriteDefaultConfig writes a commented default configuration file.
func WriteDefaultConfig(path string) error {
	d := Default()
	content := `# IPDB client configuration
#
# Environment variables IPDB_URL, IPDB_APP_ID and IPDB_APP_KEY override
# the ledger settings below; command-line flags override both.

# ============================================================================
# Ledger
# ============================================================================

ledger.url = ` + d.Ledger.URL + `
# ledger.app_id =
# ledger.app_key =
ledger.timeout = ` + d.Ledger.Timeout.String() + `

# ============================================================================
# Confirmation polling
# ============================================================================

# Status checks after a submission, each preceded by poll.delay.
poll.attempts = ` + fmt.Sprint(d.Poll.Attempts) + `
poll.delay = ` + d.Poll.Delay.String() + `

# ============================================================================
# Signer
# ============================================================================

# local (in-process) or command (external binary)
signer.mode = ` + string(d.Signer.Mode) + `
# signer.binary = ` + d.Signer.Binary + `
# signer.timeout = ` + d.Signer.Timeout.String() + `

# ============================================================================
# Journal and logging
# ============================================================================

journal.enabled = true
log.level = ` + d.Log.Level + `
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
