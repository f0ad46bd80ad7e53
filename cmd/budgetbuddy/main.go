package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"budgetbuddy/internal/amqp"
	appcli "budgetbuddy/internal/cli"
	"budgetbuddy/internal/config"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/services"
	"budgetbuddy/internal/worker"
)

const inputDateLayout = "2006-01-02"

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// session carries what Before resolved to the command actions.
type session struct {
	cfg    *config.Config
	logger *log.Logger
	stderr io.Writer
}

func usageError(_ *cli.Context, err error, _ bool) error {
	return cli.Exit(err.Error(), 2)
}

func newApp(stdout, stderr io.Writer) *cli.App {
	s := &session{stderr: stderr}

	app := &cli.App{
		Name:      "budgetbuddy",
		Usage:     "track income and expenses in a local ledger",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before reading the environment",
			},
		},
		Before:       s.before,
		OnUsageError: usageError,
		// Exit codes are handled in main so tests can run the app in-process
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:   "home",
				Usage:  "show balance, totals and recent transactions",
				Action: s.home,
			},
			{
				Name:  "add",
				Usage: "record a new transaction",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "what the transaction was for"},
					&cli.StringFlag{Name: "amount", Aliases: []string{"a"}, Usage: "positive amount, dot or comma decimal separator"},
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: string(core.Expense), Usage: "Income or Expense"},
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "one of the categories for the type"},
					&cli.StringFlag{Name: "icon", Usage: "icon name; defaults to the category icon"},
					&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "transaction date as YYYY-MM-DD"},
				},
				Action: s.add,
			},
			{
				Name:      "delete",
				Usage:     "remove a transaction by id",
				ArgsUsage: "<id>",
				Action:    s.delete,
			},
			{
				Name:  "categories",
				Usage: "list the category choices and their icons",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "only list Income or Expense categories"},
				},
				Action: s.categories,
			},
			{
				Name:   "watch",
				Usage:  "print refreshed totals whenever the ledger changes",
				Action: s.watch,
			},
		},
	}
	for _, cmd := range app.Commands {
		cmd.OnUsageError = usageError
	}
	return app
}

func (s *session) before(c *cli.Context) error {
	appcli.LoadEnvFile(c.String("env-file"))

	cfg, err := appcli.LoadAndValidateConfig()
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	s.cfg = cfg
	s.logger = appcli.SetupLogger(cfg.LogLevel, s.stderr)
	c.Context = log.WithLogger(c.Context, s.logger)
	return nil
}

// withApp opens the ledger for a single command and closes it afterwards.
func (s *session) withApp(c *cli.Context, fn func(ctx context.Context, app *appcli.App) error) error {
	ctx, cancel := context.WithTimeout(c.Context, s.cfg.OperationTimeout)
	defer cancel()

	app, err := appcli.Open(ctx, s.cfg, s.logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not open storage: %v", err), 1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			s.logger.Warn("Failed to close resources", log.FieldError, err.Error())
		}
	}()

	return fn(ctx, app)
}

func (s *session) home(c *cli.Context) error {
	return s.withApp(c, func(ctx context.Context, app *appcli.App) error {
		view := app.Service.Home(ctx)
		renderHome(c.App.Writer, s.cfg.CurrencySymbol, view)
		if view.State == services.HomeLoadFailed {
			log.FromContext(ctx).ErrorContext(ctx, "Home screen load failed", log.FieldError, view.Err.Error())
			return cli.Exit("", 1)
		}
		return nil
	})
}

func (s *session) add(c *cli.Context) error {
	draft := core.Draft{
		Name:     c.String("name"),
		Amount:   c.String("amount"),
		Category: c.String("category"),
		Icon:     c.String("icon"),
	}

	typ, err := core.ParseTransactionType(c.String("type"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Unknown transaction type %q: use Income or Expense", c.String("type")), 2)
	}
	draft.Type = typ

	if raw := c.String("date"); raw != "" {
		date, err := time.ParseInLocation(inputDateLayout, raw, time.UTC)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Invalid date %q: use YYYY-MM-DD", raw), 2)
		}
		draft.Date = &date
	}

	return s.withApp(c, func(ctx context.Context, app *appcli.App) error {
		tx, err := app.Service.AddTransaction(ctx, draft)
		var verr *core.ValidationError
		switch {
		case errors.As(err, &verr):
			fmt.Fprintln(c.App.Writer, verr.Prompt())
			return cli.Exit(verr.Error(), 2)
		case err != nil:
			return cli.Exit(fmt.Sprintf("Could not add transaction: %v", err), 1)
		}

		fmt.Fprintf(c.App.Writer, "Added %s %s (%s)\n", tx.ID, tx.Name, signedAmount(s.cfg.CurrencySymbol, tx))
		return nil
	})
}

func (s *session) delete(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return cli.Exit("delete needs a transaction id", 2)
	}

	return s.withApp(c, func(ctx context.Context, app *appcli.App) error {
		if err := app.Service.DeleteTransaction(ctx, id); err != nil {
			return cli.Exit(fmt.Sprintf("Could not delete transaction: %v", err), 1)
		}
		fmt.Fprintf(c.App.Writer, "Deleted %s\n", id)
		return nil
	})
}

func (s *session) categories(c *cli.Context) error {
	types := []core.TransactionType{core.Income, core.Expense}
	if raw := c.String("type"); raw != "" {
		typ, err := core.ParseTransactionType(raw)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Unknown transaction type %q: use Income or Expense", raw), 2)
		}
		types = []core.TransactionType{typ}
	}
	renderCategories(c.App.Writer, types)
	return nil
}

// watch runs until interrupted. It opens the ledger without the per-command
// timeout, since the consumer is long-lived.
func (s *session) watch(c *cli.Context) error {
	app, err := appcli.Open(c.Context, s.cfg, s.logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not open storage: %v", err), 1)
	}
	defer app.Close()

	if app.Notifier == nil {
		return cli.Exit("watch needs a reachable broker: set AMQP_URL", 2)
	}

	out := c.App.Writer
	w := worker.NewChangeWorker(app.Service, func(msg *amqp.LedgerChangeMessage, totals core.Totals, err error) {
		if msg != nil {
			fmt.Fprintf(out, "\n%s %s (%d transactions)\n", msg.Timestamp.Local().Format(time.Kitchen), msg.Op, msg.Count)
		}
		if err != nil {
			fmt.Fprintln(out, loadFailedMessage)
			return
		}
		renderTotals(out, s.cfg.CurrencySymbol, totals)
	}, s.cfg.OperationTimeout, s.logger)

	if err := w.Refresh(c.Context); err != nil {
		s.logger.Warn("Initial totals unavailable", log.FieldError, err.Error())
	}

	g, ctx := errgroup.WithContext(c.Context)
	g.Go(func() error {
		return appcli.WaitForSignal(ctx, s.logger)
	})
	g.Go(func() error {
		return app.Notifier.ConsumeLedgerChanges(ctx, w.HandleChangeMessage)
	})

	err = g.Wait()
	if errors.Is(err, appcli.ErrShutdownSignal) || errors.Is(err, context.Canceled) {
		s.logger.Info("Watch stopped", log.FieldOperation, log.OpShutdown)
		return nil
	}
	return err
}
