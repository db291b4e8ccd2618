package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-theater/internal/config"
	"github.com/noah-isme/backend-theater/internal/currency"
	"github.com/noah-isme/backend-theater/internal/obs"
	"github.com/noah-isme/backend-theater/internal/statement"
	"github.com/noah-isme/backend-theater/internal/theater"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(2)
	}

	var (
		invoicesPath = flag.String("invoices", "data/invoices.json", "path to a JSON array of invoices")
		playsPath    = flag.String("plays", "data/plays.json", "path to a JSON object of plays keyed by id")
		locale       = flag.String("locale", cfg.Currency.Locale, "BCP 47 locale used for digit grouping")
		symbol       = flag.String("symbol", cfg.Currency.Symbol, "currency symbol")
		decimalSep   = flag.String("decimal", cfg.Currency.Decimal, "decimal separator")
		logLevel     = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	logger := obs.NewLoggerTo(os.Stderr, "console", *logLevel)
	formatter, err := currency.New(*locale, *symbol, *decimalSep)
	if err != nil {
		logger.Fatal().Err(err).Msg("configure currency formatter")
	}

	out := bufio.NewWriter(os.Stdout)
	if err := run(out, logger, formatter, *invoicesPath, *playsPath); err != nil {
		_ = out.Flush()
		logger.Error().Err(err).Msg("print statements")
		os.Exit(1)
	}
	if err := out.Flush(); err != nil {
		logger.Fatal().Err(err).Msg("flush output")
	}
}

func run(w io.Writer, logger zerolog.Logger, formatter currency.Formatter, invoicesPath, playsPath string) error {
	invoices, err := loadFile(invoicesPath, theater.LoadInvoices)
	if err != nil {
		return err
	}
	plays, err := loadFile(playsPath, theater.LoadPlays)
	if err != nil {
		return err
	}
	logger.Debug().Int("invoices", len(invoices)).Int("plays", len(plays)).Msg("loaded input")

	for i, invoice := range invoices {
		text, err := statement.New(invoice, plays, formatter).Render()
		if err != nil {
			return fmt.Errorf("invoice %d (%s): %w", i, invoice.Customer, err)
		}
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
	}
	return nil
}

func loadFile[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	v, err := decode(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
