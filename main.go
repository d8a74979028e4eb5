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
	"syscall"
	"time"

	"sjsage522/propertyscraper/config"
	"sjsage522/propertyscraper/internal"
	"sjsage522/propertyscraper/internal/extract"
	"sjsage522/propertyscraper/internal/fetch"
	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/internal/source"
	"sjsage522/propertyscraper/internal/store"
	"sjsage522/propertyscraper/logger"
	"sjsage522/propertyscraper/services/cache"
	"sjsage522/propertyscraper/services/publisher"
	"sjsage522/propertyscraper/services/worker"

	"github.com/joho/godotenv"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	// Load environment variables
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// options holds the command line flags
type options struct {
	configPath  string
	all         bool
	listings    bool
	projects    bool
	articles    bool
	agents      bool
	maxListings int
	noImages    bool
	outputDir   string
	verbose     bool
	quiet       bool
}

func parseFlags(args []string, out io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "configuration file (JSON or YAML)")
	fs.BoolVar(&opts.all, "all", false, "scrape every category (default when none is selected)")
	fs.BoolVar(&opts.listings, "listings", false, "scrape property listings")
	fs.BoolVar(&opts.projects, "projects", false, "collect projects")
	fs.BoolVar(&opts.articles, "articles", false, "scrape articles")
	fs.BoolVar(&opts.agents, "agents", false, "collect estate agents")
	fs.IntVar(&opts.maxListings, "max-listings", 0, "maximum listings per run (overrides config)")
	fs.BoolVar(&opts.noImages, "no-images", false, "skip image downloads")
	fs.StringVar(&opts.outputDir, "output-dir", "", "output directory (overrides config)")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	fs.BoolVar(&opts.quiet, "q", false, "errors only")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.verbose && opts.quiet {
		fmt.Fprintln(out, "-v and -q are mutually exclusive")
		return nil, errors.New("conflicting verbosity flags")
	}
	return opts, nil
}

// categories returns the selected categories, all of them when none is set
func (o *options) categories() []record.Category {
	selected := map[record.Category]bool{
		record.CategoryListings: o.listings,
		record.CategoryProjects: o.projects,
		record.CategoryArticles: o.articles,
		record.CategoryAgents:   o.agents,
	}

	var out []record.Category
	for _, c := range record.Categories {
		if o.all || selected[c] {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return record.Categories
	}
	return out
}

func (o *options) apply(cfg *config.Config) {
	if o.maxListings > 0 {
		cfg.MaxListingsPerRun = o.maxListings
	}
	if o.noImages {
		cfg.DownloadImages = false
	}
	if o.outputDir != "" {
		cfg.OutputDirectory = o.outputDir
	}
}

func (o *options) logLevel() string {
	switch {
	case o.verbose:
		return "debug"
	case o.quiet:
		return "error"
	}
	return ""
}

func run(ctx context.Context, args []string, out io.Writer) int {
	opts, err := parseFlags(args, out)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	// Load and validate configuration
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return exitFailure
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return exitFailure
	}

	if err := logger.Setup(logger.Options{
		Level:    cfg.LogLevel,
		Override: opts.logLevel(),
		File:     cfg.LogFilePath(),
	}); err != nil {
		logger.Default.Warn().Err(err).Msg("Logging to console only")
	}
	defer logger.Close()
	log := logger.Default

	log.Info().
		Str("base_url", cfg.BaseURL).
		Str("output_directory", cfg.OutputDirectory).
		Msg("Starting application")

	// Initialize services
	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	sources, err := buildSources(cfg, opts.categories(), services.Dependencies)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create sources")
		fmt.Fprintf(out, "Error: %v\n", err)
		return exitFailure
	}

	w := worker.NewWorker(sources, store.New(cfg.ValidateData, cfg.RemoveDuplicates), services.Dependencies, cfg.JSONDir())
	counts, err := w.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(out, "Scraping interrupted; partial data saved to", cfg.JSONDir())
		return exitInterrupted
	case err != nil:
		logger.LogError("worker", err, "Scraping failed")
		fmt.Fprintf(out, "Error: %v\n", err)
		return exitFailure
	}

	printSummary(out, w.Stats(), counts, cfg.JSONDir())
	return exitOK
}

// Services holds the optional external services
type Services struct {
	internal.Dependencies
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Sink != nil {
		s.Sink.Close()
	}
}

// initializeServices connects the services that are configured. A service
// that cannot be reached is disabled for the run.
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}
	log := logger.Default

	if cfg.MemcacheAddr != "" {
		cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := cacheService.Ping(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache unavailable, page cache disabled")
		} else {
			services.Cache = cacheService
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, cfg.RedisStreamMaxLength)
		if err := redisPublisher.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, publishing disabled")
			redisPublisher.Close()
		} else {
			services.Publisher = redisPublisher
			logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
		}
	}

	if cfg.PostgresDSN != "" {
		sink, err := store.NewPostgresSink(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Warn().Err(err).Msg("Postgres unavailable, listing sink disabled")
		} else {
			services.Sink = sink
			logger.Info("Connected to Postgres")
		}
	}

	return services
}

// buildSources creates one source per category. Listings and articles are
// scraped live when URLs are configured; every other category is served
// from the fixture file, if any.
func buildSources(cfg *config.Config, categories []record.Category, deps internal.Dependencies) ([]worker.Source, error) {
	var fixtures map[record.Category][]record.Record
	if cfg.FixtureFile != "" {
		var err error
		fixtures, err = source.LoadFixtures(cfg.FixtureFile, time.Now())
		if err != nil {
			return nil, err
		}
	}

	client := &http.Client{}
	fetcher := fetch.New(client, fetch.Options{
		MaxRetries:  cfg.MaxRetries,
		Timeout:     cfg.Timeout(),
		Delay:       cfg.Delay(),
		BackoffUnit: cfg.BackoffUnit(),
		UserAgent:   cfg.UserAgent,
		Cache:       deps.Cache,
		CacheTTL:    cfg.CacheTTL(),
	})

	var robots source.RobotsPolicy
	if cfg.RespectRobotsTxt {
		robots = fetch.NewRobotsChecker(client, cfg.UserAgent, cfg.Timeout())
	}
	pool := worker.NewPool(cfg.Workers)

	sources := make([]worker.Source, 0, len(categories))
	for _, c := range categories {
		switch {
		case c == record.CategoryListings && len(cfg.ListingURLs) > 0:
			src := &source.ListingSource{
				URLs:        cfg.ListingURLs,
				MaxListings: cfg.MaxListingsPerRun,
				Fetcher:     fetcher,
				Extractor:   extract.NewListingExtractor(cfg.BaseURL),
				Pool:        pool,
				Robots:      robots,
			}
			if cfg.DownloadImages {
				src.Images = &source.ImageDownloader{Fetcher: fetcher, Dir: cfg.ImagesDir(), RelDir: "images"}
			}
			sources = append(sources, src)

		case c == record.CategoryArticles && len(cfg.ArticleURLs) > 0:
			sources = append(sources, &source.ArticleSource{
				URLs:    cfg.ArticleURLs,
				Fetcher: fetcher,
				Pool:    pool,
				Robots:  robots,
			})

		default:
			if len(fixtures[c]) == 0 {
				logger.Default.Warn().Str("category", string(c)).Msg("No URLs or fixtures configured for category")
			}
			sources = append(sources, source.NewFixtureSource(c, fixtures[c]))
		}
	}
	return sources, nil
}

func printSummary(out io.Writer, stats *record.Stats, counts map[record.Category]int, dir string) {
	fmt.Fprintf(out, "Scraping completed in %s\n", stats.Duration().Round(time.Millisecond))
	for _, c := range record.Categories {
		fmt.Fprintf(out, "  %-18s %d\n", c, counts[c])
	}
	fmt.Fprintf(out, "  %-18s %d\n", "images downloaded", stats.ImagesDownloaded())
	fmt.Fprintf(out, "  %-18s %d\n", "errors", stats.Errors())
	fmt.Fprintf(out, "Data saved to %s\n", dir)
}
