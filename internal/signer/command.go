package signer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	klog "github.com/Klingon-tech/ipdb-go/internal/log"
	"github.com/Klingon-tech/ipdb-go/pkg/crypto"
	"github.com/Klingon-tech/ipdb-go/pkg/tx"
)

// DefaultBinary is the external signer executable name.
const DefaultBinary = "bdb"

// Command delegates to an external signer binary that speaks JSON on
// stdout (generate_keys, generate_output, sign, spend).
type Command struct {
	binary  string
	timeout time.Duration
	ctx     context.Context
}

// NewCommand returns a signer that runs binary. An empty binary uses
// DefaultBinary; a non-positive timeout uses 30 seconds.
func NewCommand(binary string, timeout time.Duration) *Command {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Command{binary: binary, timeout: timeout, ctx: context.Background()}
}

// WithContext returns a copy of c whose invocations are killed when ctx
// is done. The per-call timeout still applies.
func (c *Command) WithContext(ctx context.Context) *Command {
	cc := *c
	cc.ctx = ctx
	return &cc
}

// run executes the binary and decodes its stdout into out.
func (c *Command) run(out interface{}, args ...string) error {
	parent := c.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children of the binary may hold the output pipes after it is killed.
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	klog.Signer.Debug().
		Str("binary", c.binary).
		Str("command", args[0]).
		Dur("took", time.Since(start)).
		Err(err).
		Msg("Signer invoked")
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if ctx.Err() != nil {
			msg = ctx.Err().Error()
		} else if msg == "" {
			msg = err.Error()
		}
		return fmt.Errorf("%w: %s %s: %s", ErrSignerFailure, c.binary, args[0], msg)
	}
	if err := json.Unmarshal(stdout.Bytes(), out); err != nil {
		return fmt.Errorf("%w: %s %s: decode output: %v", ErrSignerFailure, c.binary, args[0], err)
	}
	return nil
}

// GenerateKeyPair runs `generate_keys`.
func (c *Command) GenerateKeyPair() (crypto.KeyPair, error) {
	var kp crypto.KeyPair
	if err := c.run(&kp, "generate_keys"); err != nil {
		return crypto.KeyPair{}, err
	}
	if kp.PublicKey == "" || kp.PrivateKey == "" {
		return crypto.KeyPair{}, fmt.Errorf("%w: generate_keys returned an incomplete keypair", ErrSignerFailure)
	}
	return kp, nil
}

// Sign runs `sign <tx> <key>`.
func (c *Command) Sign(t *tx.Transaction, privateKey string) (*tx.Transaction, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("%w: encode tx: %v", ErrSignerFailure, err)
	}
	var signed tx.Transaction
	if err := c.run(&signed, "sign", string(raw), privateKey); err != nil {
		return nil, err
	}
	if signed.ID == "" {
		return nil, fmt.Errorf("%w: sign returned a transaction without id", ErrSignerFailure)
	}
	return &signed, nil
}

// BuildCondition runs `generate_output --amount <n> <owner>`.
func (c *Command) BuildCondition(ownerAfter string, amount uint64) (tx.Output, error) {
	var out tx.Output
	if err := c.run(&out, "generate_output", "--amount", strconv.FormatUint(amount, 10), ownerAfter); err != nil {
		return tx.Output{}, err
	}
	return out, nil
}

// SpendReferences runs `spend <tx> <indices>`.
func (c *Command) SpendReferences(t *tx.Transaction, outputIndices []int) ([]tx.Input, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("%w: encode tx: %v", ErrSignerFailure, err)
	}
	idx, err := json.Marshal(outputIndices)
	if err != nil {
		return nil, fmt.Errorf("%w: encode indices: %v", ErrSignerFailure, err)
	}
	var inputs []tx.Input
	if err := c.run(&inputs, "spend", string(raw), string(idx)); err != nil {
		return nil, err
	}
	want := len(outputIndices)
	if want == 0 {
		want = len(t.Outputs)
	}
	if len(inputs) != want {
		return nil, fmt.Errorf("%w: spend returned %d inputs for %d outputs", ErrSignerFailure, len(inputs), want)
	}
	return inputs, nil
}
