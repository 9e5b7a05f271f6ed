package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Klingon-tech/ipdb-go/internal/settlement"
	"gopkg.in/yaml.v2"
)

// parseRecipient parses an inline "<pubkey>:<amount>" recipient.
func parseRecipient(s string) (settlement.Recipient, error) {
	pub, amountStr, ok := strings.Cut(s, ":")
	if !ok || pub == "" {
		return settlement.Recipient{}, fmt.Errorf("recipient %q: expected <pubkey>:<amount>", s)
	}
	amount, err := strconv.ParseInt(amountStr, 10, 64)
	if err != nil {
		return settlement.Recipient{}, fmt.Errorf("recipient %q: invalid amount: %w", s, err)
	}
	return settlement.Recipient{PublicKey: pub, Amount: amount}, nil
}

// loadRecipients reads a list of {public_key, amount} entries. Files
// ending in .yaml or .yml are YAML; anything else is JSON.
func loadRecipients(path string) ([]settlement.Recipient, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipients file: %w", err)
	}

	var recipients []settlement.Recipient
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &recipients)
	default:
		err = json.Unmarshal(data, &recipients)
	}
	if err != nil {
		return nil, fmt.Errorf("parse recipients file: %w", err)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("recipients file %s is empty", path)
	}
	for i, r := range recipients {
		if r.PublicKey == "" {
			return nil, fmt.Errorf("recipient %d: public_key is required", i)
		}
	}
	return recipients, nil
}

// jsonArg validates an optional JSON flag value. Empty yields nil.
func jsonArg(name, v string) (json.RawMessage, error) {
	if v == "" {
		return nil, nil
	}
	if !json.Valid([]byte(v)) {
		return nil, fmt.Errorf("--%s is not valid JSON", name)
	}
	return json.RawMessage(v), nil
}
