package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/simaogato/stocksim-backend/internal/app"
	"github.com/simaogato/stocksim-backend/internal/config"
	"github.com/simaogato/stocksim-backend/internal/domain"
)

var timeNow = time.Now

// env carries what every command needs
type env struct {
	out  io.Writer
	open func(ctx context.Context) (*app.App, error)
}

func openFromConfig(configPath *string) func(ctx context.Context) (*app.App, error) {
	return func(ctx context.Context) (*app.App, error) {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return nil, err
		}
		if err := cfg.ValidateClient(); err != nil {
			return nil, err
		}
		return app.New(ctx, cfg, nil)
	}
}

func commands(e *env) []subcommands.Command {
	return []subcommands.Command{
		&quoteCmd{env: e},
		&searchCmd{env: e},
		&migrateCmd{env: e},
		&accountCmd{env: e},
	}
}

// run opens the application, calls fn and maps its error to an exit status
func (e *env) run(ctx context.Context, fn func(a *app.App) error) subcommands.ExitStatus {
	a, err := e.open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := fn(a); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type quoteCmd struct{ env *env }

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "print the current quote of a symbol" }
func (*quoteCmd) Usage() string {
	return `stockctl quote <SYMBOL>

  Looks up the current quote through the configured cache and provider.
`
}
func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "quote takes exactly one symbol")
		return subcommands.ExitUsageError
	}

	return c.env.run(ctx, func(a *app.App) error {
		q, err := a.Quotes.FetchQuote(ctx, f.Arg(0))
		if err != nil {
			return err
		}
		if q == nil {
			return fmt.Errorf("no quote available for %s", domain.NormalizeSymbol(f.Arg(0)))
		}
		fmt.Fprintf(c.env.out, "%s\t%s\t%s (%s%%)\n", q.Symbol, domain.FormatUSD(q.Price), q.Change.StringFixed(2), q.PercentChange.StringFixed(2))
		return nil
	})
}

type searchCmd struct{ env *env }

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search symbols and print their quotes" }
func (*searchCmd) Usage() string {
	return `stockctl search <query>

  Runs the symbol search used by the game and prints at most the configured
  number of quoted results.
`
}
func (*searchCmd) SetFlags(*flag.FlagSet) {}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "search needs a query")
		return subcommands.ExitUsageError
	}

	query := f.Arg(0)
	for _, arg := range f.Args()[1:] {
		query += " " + arg
	}

	return c.env.run(ctx, func(a *app.App) error {
		w := tabwriter.NewWriter(c.env.out, 0, 4, 2, ' ', 0)
		for _, q := range a.Search.Search(ctx, query) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", q.Symbol, q.DisplayName, domain.FormatUSD(q.Price))
		}
		return w.Flush()
	})
}

type migrateCmd struct{ env *env }

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create the document store tables" }
func (*migrateCmd) Usage() string {
	return `stockctl migrate

  Creates the users and completed_games tables if they do not exist.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(a *app.App) error {
		if err := a.Store.Migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.env.out, "migrated")
		return nil
	})
}

type accountCmd struct{ env *env }

func (*accountCmd) Name() string     { return "account" }
func (*accountCmd) Synopsis() string { return "print the stored account of an identity" }
func (*accountCmd) Usage() string {
	return `stockctl account <identity>

  Prints the stored game account, or reports that none exists.
`
}
func (*accountCmd) SetFlags(*flag.FlagSet) {}

func (c *accountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "account takes exactly one identity")
		return subcommands.ExitUsageError
	}

	return c.env.run(ctx, func(a *app.App) error {
		acct, err := a.Accounts.Get(ctx, f.Arg(0))
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no account for %s", f.Arg(0))
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(c.env.out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "email\t%s\n", acct.Email)
		fmt.Fprintf(w, "cash\t%s\n", domain.FormatUSD(acct.CashBalance))
		fmt.Fprintf(w, "portfolio\t%s\n", domain.FormatUSD(acct.PortfolioValue))
		fmt.Fprintf(w, "mode\t%s\n", acct.GameMode)
		if acct.GameEndDate != nil {
			fmt.Fprintf(w, "ends\t%s\n", domain.FormatTimeRemaining(*acct.GameEndDate, timeNow()))
		}
		for _, h := range acct.Holdings {
			fmt.Fprintf(w, "holding\t%s\t%d @ %s\n", h.Symbol, h.Shares, domain.FormatUSD(h.AvgCostPerShare))
		}
		return w.Flush()
	})
}
