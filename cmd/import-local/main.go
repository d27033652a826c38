// Command import-local uploads expenses kept on this device, either in the
// local store or in a backup file, into a user's cloud collection.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/MrJamesThe3rd/spendly/internal/config"
	"github.com/MrJamesThe3rd/spendly/internal/expense"
	"github.com/MrJamesThe3rd/spendly/internal/expenselist"
	"github.com/MrJamesThe3rd/spendly/internal/export"
	"github.com/MrJamesThe3rd/spendly/internal/importer"
	"github.com/MrJamesThe3rd/spendly/internal/localstore"
	"github.com/MrJamesThe3rd/spendly/internal/remote"
)

const (
	probeTimeout  = 3 * time.Second
	importTimeout = 5 * time.Minute
)

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	file     string
	dbPath   string
	email    string
	password string
	mode     remote.Mode
	clear    bool
	dryRun   bool
}

func parseFlags(args []string, stderr io.Writer, defaultDB string) (options, error) {
	fs := flag.NewFlagSet("import-local", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts options
		mode string
	)

	fs.StringVar(&opts.file, "file", "", "Backup file (.json or .csv) to import instead of the local store")
	fs.StringVar(&opts.dbPath, "db", defaultDB, "Path to the local store")
	fs.StringVar(&opts.email, "email", "", "Account email")
	fs.StringVar(&opts.password, "password", "", "Account password (prompted if omitted)")
	fs.StringVar(&mode, "mode", "login", "login or signup")
	fs.BoolVar(&opts.clear, "clear", false, "Clear the local store after a complete import")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Only report what would be imported")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	m, err := remote.ParseMode(mode)
	if err != nil {
		return options{}, err
	}

	opts.mode = m

	if opts.clear && opts.file != "" {
		return options{}, errors.New("-clear only applies when importing from the local store")
	}

	if !opts.dryRun && !strings.Contains(opts.email, "@") {
		fs.PrintDefaults()
		return options{}, errors.New("missing or invalid -email")
	}

	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	opts, err := parseFlags(args, stderr, cfg.Local.Path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()

	records, local, err := loadRecords(ctx, opts)
	if err != nil {
		return err
	}

	if local != nil {
		defer local.Close()
	}

	if opts.dryRun {
		return report(stdout, records)
	}

	if opts.password == "" {
		fmt.Fprint(stdout, "Password: ")

		opts.password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Fprintln(stdout)
	}

	if len(opts.password) < 6 {
		return errors.New("password must be at least 6 characters")
	}

	prober, err := remote.NewDialProber(cfg.Store.URL, probeTimeout)
	if err != nil {
		return fmt.Errorf("invalid store url: %w", err)
	}

	client := remote.NewClient(remote.Config{
		StoreURL:    cfg.Store.URL,
		IdentityURL: cfg.Store.IdentityURL,
		APIKey:      cfg.Store.APIKey,
		Timeout:     cfg.Store.Timeout,
	}, prober)

	sess, err := client.Authenticate(ctx, opts.mode, opts.email, opts.password)
	if err != nil {
		return fmt.Errorf("%s: %w", expenselist.UserMessage(err), err)
	}

	res, err := importer.NewService(client, slog.Default()).Import(ctx, sess, records)

	fmt.Fprintf(stdout, "Imported %d expenses, skipped %d invalid.\n", res.Imported(), res.Skipped)

	if err != nil {
		return fmt.Errorf("import stopped: %s: %w", expenselist.UserMessage(err), err)
	}

	if opts.clear && local != nil {
		if err := local.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear local store: %w", err)
		}

		fmt.Fprintln(stdout, "Local store cleared.")
	}

	return nil
}

// loadRecords reads the backup file, or the local store when no file is
// given. The local store is returned open so it can be cleared afterwards.
func loadRecords(ctx context.Context, opts options) ([]expense.Record, *localstore.Store, error) {
	if opts.file != "" {
		records, err := parseFile(opts.file)
		return records, nil, err
	}

	if _, err := os.Stat(opts.dbPath); err != nil {
		return nil, nil, fmt.Errorf("local store %s: %w", opts.dbPath, err)
	}

	store, err := localstore.Open(opts.dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local store: %w", err)
	}

	records, err := store.ListExpenses(ctx, expense.Session{})
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to read local store: %w", err)
	}

	return records, store, nil
}

func parseFile(path string) ([]expense.Record, error) {
	format, err := importer.DetectFormat(path)
	if err != nil {
		return nil, err
	}

	parser, err := importer.ParserFor(format)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parser.Parse(f)
}

func report(w io.Writer, records []expense.Record) error {
	valid := make([]expense.Record, 0, len(records))

	for _, r := range records {
		if n := importer.Normalize(r); n.Validate() == nil {
			valid = append(valid, n)
		}
	}

	fmt.Fprintf(w, "%d expenses found, %d would be imported, total %s.\n",
		len(records), len(valid), expense.Total(valid).StringFixed(2))

	if len(valid) > 0 {
		fmt.Fprint(w, export.GenerateSummary(valid))
	}

	return nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}

		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}
