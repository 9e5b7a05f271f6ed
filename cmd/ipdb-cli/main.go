// ipdb-cli is a command-line client for an IPDB/BigchainDB ledger.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Klingon-tech/ipdb-go/config"
	"github.com/Klingon-tech/ipdb-go/internal/journal"
	"github.com/Klingon-tech/ipdb-go/internal/ledger"
	klog "github.com/Klingon-tech/ipdb-go/internal/log"
	"github.com/Klingon-tech/ipdb-go/internal/settlement"
	"github.com/Klingon-tech/ipdb-go/internal/signer"
	"github.com/Klingon-tech/ipdb-go/internal/storage"
	"github.com/Klingon-tech/ipdb-go/internal/wallet"
	"golang.org/x/term"
)

const version = "0.1.0"

// app carries what every command needs.
type app struct {
	cfg      *config.Config
	ep       ledger.Endpoint
	client   *ledger.Client
	signer   signer.Signer
	engine   *settlement.Engine
	keystore *wallet.Keystore
	journal  *journal.Store
	db       storage.DB
}

func main() {
	cfg, flags, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage()
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		usage()
		os.Exit(1)
	}
	if flags.Version {
		fmt.Printf("ipdb-cli %s\n", version)
		return
	}
	if flags.Help || len(flags.Args) == 0 {
		usage()
		return
	}

	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a, err := newApp(ctx, cfg)
	if err != nil {
		stop()
		fatal("%v", err)
	}

	err = a.run(ctx, flags.Args[0], flags.Args[1:])
	stop()
	a.close()
	if err != nil {
		fatal("%v", err)
	}
}

// newApp wires the client, signer and engine. An external signer is bound
// to ctx so an interrupt kills a running signer binary.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		ep:     cfg.Endpoint(),
		client: ledger.NewWithTimeout(cfg.Ledger.Timeout),
	}

	switch cfg.Signer.Mode {
	case config.SignerCommand:
		a.signer = signer.NewCommand(cfg.Signer.Binary, cfg.Signer.Timeout).WithContext(ctx)
	default:
		a.signer = signer.NewLocal()
	}

	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		return nil, fmt.Errorf("open keystore: %w", err)
	}
	a.keystore = ks

	a.engine = settlement.New(a.client, a.signer)
	a.engine.SetPollPolicy(cfg.PollPolicy())
	observers := []settlement.Observer{settlement.LogObserver(klog.Settlement)}

	if cfg.Journal.Enabled {
		db, err := storage.NewBadger(cfg.JournalDir())
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		a.db = db
		a.journal = journal.New(db)
		observers = append(observers, a.journal)
	}
	a.engine.SetObserver(settlement.Observers(observers...))
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			klog.CLI.Warn().Err(err).Msg("Failed to close journal")
		}
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "keys":
		return a.cmdKeys(args)
	case "create":
		return a.cmdCreate(ctx, args)
	case "transfer":
		return a.cmdTransfer(ctx, args)
	case "balance":
		return a.cmdBalance(ctx, args)
	case "tx":
		return a.cmdTx(ctx, args)
	case "outputs":
		return a.cmdOutputs(ctx, args)
	case "status":
		return a.cmdStatus(ctx, args)
	case "assets":
		return a.cmdAssets(ctx, args)
	case "history":
		return a.cmdHistory(args)
	case "help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: ipdb-cli [global flags] <command> [flags]

Global flags:
  --datadir <path>        Data directory (default: %s)
  -c, --config <file>     Config file (default: <datadir>/ipdb.conf)
  --url <url>             Ledger API base URL (env IPDB_URL)
  --app-id <id>           Ledger app id (env IPDB_APP_ID)
  --app-key <key>         Ledger app key (env IPDB_APP_KEY)
  --timeout <dur>         HTTP request timeout
  --poll-attempts <n>     Status checks per submission (default 3)
  --poll-delay <dur>      Wait before each status check (default 5s)
  --signer <mode>         local (default) or command
  --signer-binary <path>  External signer executable (default bdb)
  --no-journal            Do not record operations locally
  --log-level <lvl>       debug, info, warn, error, off
  --log-file <path>       Also write JSON logs to a file
  --log-json              JSON logs on stderr

Commands:
  keys generate --name <n> [--mnemonic]
                                  Create and store a new keypair
  keys import --name <n> (--mnemonic "..." | --private <base58>)
                                  Store an existing keypair
  keys list                       List stored keypairs
  keys show <name> [--private]    Show a stored keypair
  keys delete <name>              Delete a stored keypair

  create --key <n> [--amount 1] [--data <json>] [--metadata <json>]
                                  Mint a new asset and wait for it to be valid
  transfer --key <n> --asset <id> (--to <pubkey:amount>... | --recipients <file>)
           [--input <txid>...] [--metadata <json>]
                                  Transfer units of an asset, returning change
  balance (<pubkey> | --key <n>) --asset <id>
                                  Show the unspent amount of an asset

  tx <id>                         Show a committed transaction
  tx --asset <id>                 List every transaction of an asset
  outputs (<pubkey> | --key <n>) [--spent | --unspent]
                                  List output references of a key
  status <id>                     Show a transaction's status
  assets <query> [--limit <n>]    Search asset data
  history [--limit <n>] [--op <id> | --tx <id>]
                                  Show journaled operations
`, config.DefaultDataDir())
}

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

func readNewPassword() ([]byte, error) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	if string(password) != string(confirm) {
		return nil, errors.New("passwords do not match")
	}
	return password, nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
