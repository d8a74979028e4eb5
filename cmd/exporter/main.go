// Command exporter filters the scraped data set and writes it as CSV, a JSON
// document or a text report. With -serve it exposes the same data over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sjsage522/propertyscraper/internal/api"
	"sjsage522/propertyscraper/internal/export"
	"sjsage522/propertyscraper/logger"
	apperrors "sjsage522/propertyscraper/pkg/errors"

	"github.com/joho/godotenv"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var formats = []string{"csv", "json", "report"}

func main() {
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

type options struct {
	dataDir string
	format  string
	output  string
	search  string
	serve   string
	filters export.Filters
}

func parseFlags(args []string, out io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("exporter", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&opts.dataDir, "data-dir", "buyrentkenya_data", "scraper output directory")
	fs.StringVar(&opts.format, "format", "all", "csv, json, report or all")
	fs.StringVar(&opts.output, "o", "", "output file (single format only)")
	fs.StringVar(&opts.search, "search", "", "keep listings whose title or location contains this text")
	fs.StringVar(&opts.serve, "serve", "", "serve the data over HTTP on this address instead of exporting")
	fs.Func("price-min", "minimum price", floatFlag(&opts.filters.PriceMin))
	fs.Func("price-max", "maximum price", floatFlag(&opts.filters.PriceMax))
	fs.StringVar(&opts.filters.Location, "location", "", "location contains (case-insensitive)")
	fs.StringVar(&opts.filters.PropertyType, "property-type", "", "property type, e.g. Apartment")
	fs.StringVar(&opts.filters.TransactionType, "transaction-type", "", "Rent or Sale")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch opts.format {
	case "csv", "json", "report":
	case "all":
		if opts.output != "" {
			fmt.Fprintln(out, "-o requires a single -format")
			return nil, errors.New("-o with -format all")
		}
	default:
		fmt.Fprintf(out, "unknown format %q\n", opts.format)
		return nil, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

func floatFlag(dst **float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", s)
		}
		*dst = &v
		return nil
	}
}

func run(ctx context.Context, args []string, out io.Writer) int {
	opts, err := parseFlags(args, out)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if err := logger.Setup(logger.Options{}); err != nil {
		logger.Default.Warn().Err(err).Msg("Logging to console only")
	}
	defer logger.Close()

	data, err := export.Load(opts.dataDir)
	if err != nil {
		logger.Error("Failed to load data from %s: %v", opts.dataDir, err)
		fmt.Fprintf(out, "✗ Failed to load data from %s: %v\n", opts.dataDir, err)
		return exitFailure
	}
	data.Properties = export.Search(data.Properties, opts.search)

	if opts.serve != "" {
		return serve(ctx, opts.serve, data, out)
	}

	selected := formats
	if opts.format != "all" {
		selected = []string{opts.format}
	}

	exporter := export.NewExporter(data)
	code := exitOK
	for _, format := range selected {
		var path string
		switch format {
		case "csv":
			path, err = exporter.ExportCSV(opts.output, opts.filters)
		case "json":
			path, err = exporter.ExportJSON(opts.output, opts.filters)
		case "report":
			path, err = exporter.ExportReport(opts.output)
		}

		if err != nil {
			logger.LogError("exporter", err, "%s export failed", format)
			fmt.Fprintf(out, "✗ %s export failed: %v\n", format, err)
			// nothing to export is reported but is not an I/O failure
			if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				code = exitFailure
			}
			continue
		}
		fmt.Fprintf(out, "✓ %s exported to %s\n", format, path)
	}
	return code
}

func serve(ctx context.Context, addr string, data *export.Dataset, out io.Writer) int {
	server := api.NewServer(addr, data)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()
	logger.LogInfo("api", "Serving %d records on %s", data.Total(), addr)
	fmt.Fprintf(out, "Serving %d records on %s\n", data.Total(), addr)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(out, "✗ Server failed: %v\n", err)
			return exitFailure
		}
		return exitOK
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		fmt.Fprintf(out, "✗ Shutdown failed: %v\n", err)
		return exitFailure
	}
	return exitOK
}
