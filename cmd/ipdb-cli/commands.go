package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Klingon-tech/ipdb-go/internal/journal"
	"github.com/Klingon-tech/ipdb-go/internal/ledger"
	klog "github.com/Klingon-tech/ipdb-go/internal/log"
	"github.com/Klingon-tech/ipdb-go/internal/settlement"
	"github.com/Klingon-tech/ipdb-go/pkg/tx"
)

// ── create ──────────────────────────────────────────────────────────────

func (a *app) cmdCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	keyName := fs.String("key", "", "Issuer key name")
	amount := fs.Int64("amount", 1, "Units to mint")
	dataStr := fs.String("data", "", "Asset data (JSON)")
	metaStr := fs.String("metadata", "", "Transaction metadata (JSON)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keyName == "" {
		return errors.New("usage: ipdb-cli create --key <name> [--amount <n>] [--data <json>] [--metadata <json>]")
	}
	data, err := jsonArg("data", *dataStr)
	if err != nil {
		return err
	}
	meta, err := jsonArg("metadata", *metaStr)
	if err != nil {
		return err
	}

	kp, err := a.unlockKey(*keyName)
	if err != nil {
		return err
	}

	defer klog.Benchmark("create")()
	res, err := a.engine.CreateAsset(ctx, a.ep, settlement.CreateRequest{
		IssuerPublicKey:  kp.PublicKey,
		IssuerPrivateKey: kp.PrivateKey,
		AssetData:        data,
		Amount:           *amount,
		Metadata:         meta,
	})
	if err != nil {
		return describe(err)
	}

	fmt.Printf("Asset:    %s\n", res.AssetID)
	fmt.Printf("Amount:   %d\n", *amount)
	fmt.Printf("Checks:   %d\n", res.Attempts)
	return nil
}

// ── transfer ────────────────────────────────────────────────────────────

func (a *app) cmdTransfer(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transfer", flag.ContinueOnError)
	keyName := fs.String("key", "", "Sender key name")
	assetID := fs.String("asset", "", "Asset id")
	recipientsFile := fs.String("recipients", "", "Recipients file (.yaml/.yml or JSON)")
	metaStr := fs.String("metadata", "", "Transaction metadata (JSON)")
	var to, inputs multiFlag
	fs.Var(&to, "to", "Recipient as <pubkey>:<amount> (repeatable)")
	fs.Var(&inputs, "input", "Transaction id to spend from instead of the ledger index (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keyName == "" || *assetID == "" || (len(to) == 0) == (*recipientsFile == "") {
		return errors.New("usage: ipdb-cli transfer --key <name> --asset <id> (--to <pubkey:amount>... | --recipients <file>)")
	}

	var recipients []settlement.Recipient
	if *recipientsFile != "" {
		var err error
		if recipients, err = loadRecipients(*recipientsFile); err != nil {
			return err
		}
	}
	for _, s := range to {
		r, err := parseRecipient(s)
		if err != nil {
			return err
		}
		recipients = append(recipients, r)
	}
	meta, err := jsonArg("metadata", *metaStr)
	if err != nil {
		return err
	}

	var explicit []*tx.Transaction
	for _, id := range inputs {
		t, err := a.client.GetTransaction(ctx, a.ep, id)
		if err != nil {
			return fmt.Errorf("fetch input %s: %w", id, err)
		}
		explicit = append(explicit, t)
	}

	kp, err := a.unlockKey(*keyName)
	if err != nil {
		return err
	}

	defer klog.Benchmark("transfer")()
	res, err := a.engine.TransferAsset(ctx, a.ep, settlement.TransferRequest{
		Recipients:       recipients,
		SenderPublicKey:  kp.PublicKey,
		SenderPrivateKey: kp.PrivateKey,
		Inputs:           explicit,
		AssetID:          *assetID,
		Metadata:         meta,
	})
	if err != nil {
		return describe(err)
	}

	fmt.Printf("Transaction: %s\n", res.Transaction.ID)
	fmt.Printf("Inputs:      %d (total %d)\n", len(res.Transaction.Inputs), res.ResolvedTotal)
	fmt.Printf("Sent:        %d to %d recipient(s)\n", res.Outgoing, len(recipients))
	if res.Change > 0 {
		fmt.Printf("Change:      %d\n", res.Change)
	}
	fmt.Printf("Checks:      %d\n", res.Attempts)
	return nil
}

// describe points the user at the status command when confirmation timed
// out, since the transaction may still be committed.
func describe(err error) error {
	var timeout *settlement.TimeoutError
	if errors.As(err, &timeout) {
		return fmt.Errorf("%w\ncheck later with: ipdb-cli status %s", err, timeout.TxID)
	}
	return err
}

// ── balance ─────────────────────────────────────────────────────────────

func (a *app) cmdBalance(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("balance", flag.ContinueOnError)
	keyName := fs.String("key", "", "Key name")
	assetID := fs.String("asset", "", "Asset id")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if *assetID == "" {
		return errors.New("usage: ipdb-cli balance (<pubkey> | --key <name>) --asset <id>")
	}
	pub, err := a.publicKeyArg(positional, *keyName)
	if err != nil {
		return err
	}

	balance, err := a.engine.Balance(ctx, a.ep, pub, *assetID)
	if err != nil {
		return err
	}
	fmt.Printf("Owner:   %s\n", pub)
	fmt.Printf("Asset:   %s\n", *assetID)
	fmt.Printf("Balance: %d\n", balance)
	return nil
}

// ── tx / outputs / status / assets ──────────────────────────────────────

func (a *app) cmdTx(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tx", flag.ContinueOnError)
	assetID := fs.String("asset", "", "List every transaction of an asset")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}

	if *assetID != "" {
		if len(positional) != 0 {
			return errors.New("usage: ipdb-cli tx (<id> | --asset <id>)")
		}
		txs, err := a.client.GetTransactionsByAsset(ctx, a.ep, *assetID)
		if err != nil {
			return err
		}
		printAssetTxs(os.Stdout, txs)
		return nil
	}

	if len(positional) != 1 {
		return errors.New("usage: ipdb-cli tx (<id> | --asset <id>)")
	}
	t, err := a.client.GetTransaction(ctx, a.ep, positional[0])
	if err != nil {
		return err
	}
	return printJSON(t)
}

func printAssetTxs(w io.Writer, txs []tx.Transaction) {
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions.")
		return
	}
	for i := range txs {
		t := &txs[i]
		total, _ := t.TotalOutputValue()
		fmt.Fprintf(w, "%s  %-8s inputs=%d outputs=%d amount=%d\n", t.ID, t.Operation, len(t.Inputs), len(t.Outputs), total)
	}
}

func (a *app) cmdOutputs(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("outputs", flag.ContinueOnError)
	keyName := fs.String("key", "", "Key name")
	spent := fs.Bool("spent", false, "Only spent outputs")
	unspent := fs.Bool("unspent", false, "Only unspent outputs")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if *spent && *unspent {
		return errors.New("--spent and --unspent are exclusive")
	}
	pub, err := a.publicKeyArg(positional, *keyName)
	if err != nil {
		return err
	}

	filter := ledger.SpentAny
	switch {
	case *spent:
		filter = ledger.SpentOnly
	case *unspent:
		filter = ledger.UnspentOnly
	}
	records, err := a.client.GetOutputs(ctx, a.ep, pub, filter)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No outputs.")
		return nil
	}
	for _, r := range records {
		fmt.Println(r.OutputRef.String())
	}
	return nil
}

func (a *app) cmdStatus(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: ipdb-cli status <id>")
	}
	st, err := a.client.GetStatus(ctx, a.ep, args[0])
	if err != nil {
		return err
	}
	if st.Status != "" {
		fmt.Printf("Status: %s\n", st.Status)
	} else {
		fmt.Printf("Status: unknown (HTTP %d)\n", st.Code)
	}
	fmt.Printf("Valid:  %t\n", st.Valid())
	return nil
}

func (a *app) cmdAssets(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("assets", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "Maximum results (0 = server default)")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return errors.New("usage: ipdb-cli assets <query> [--limit <n>]")
	}
	assets, err := a.client.SearchAssets(ctx, a.ep, positional[0], *limit)
	if err != nil {
		return err
	}
	return printJSON(assets)
}

// ── history ─────────────────────────────────────────────────────────────

func (a *app) cmdHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "Entries to show (0 = all)")
	opID := fs.String("op", "", "Show one operation")
	txID := fs.String("tx", "", "Show the operation that submitted a transaction")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if a.journal == nil {
		return errors.New("journal is disabled")
	}

	switch {
	case *opID != "":
		e, err := a.journal.Get(*opID)
		if err != nil {
			return err
		}
		return printJSON(e)
	case *txID != "":
		e, err := a.journal.FindByTx(*txID)
		if err != nil {
			return err
		}
		return printJSON(e)
	}

	entries, err := a.journal.List(*limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No operations recorded.")
		return nil
	}
	for _, e := range entries {
		printEntry(e)
	}
	return nil
}

func printEntry(e journal.Entry) {
	id := e.TxID
	if id == "" {
		id = "-"
	}
	fmt.Printf("%s  %-8s %-10s %s", e.Started.Local().Format(time.DateTime), e.Operation, e.State, id)
	if e.Error != "" {
		fmt.Printf("  (%s)", e.Error)
	}
	fmt.Println()
}

// parseInterspersed parses flags that may follow positional arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}
