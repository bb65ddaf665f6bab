package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/playlog/internal/app"
	"github.com/hyperifyio/playlog/internal/layout"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		configPath     string
		baseURL        string
		userAgent      string
		outputPath     string
		daysAgo        int
		maxPages       int
		minPageRecords int
		pageDelay      time.Duration
		maxAttempts    int
		requestTimeout time.Duration
		appendDedupe   bool
		insecure       bool
		debugDir       string
		verbose        bool
	)

	flag.StringVar(&configPath, "config", os.Getenv("PLAYLOG_CONFIG"), "Path to YAML/JSON config file (optional)")
	flag.StringVar(&baseURL, "base", app.DefaultBaseURL, "Playback-log search endpoint")
	flag.StringVar(&userAgent, "ua", app.DefaultUserAgent, "User-Agent header for page fetches")
	flag.StringVar(&outputPath, "out", app.DefaultOutputPath, "Path to write the CSV output")
	flag.IntVar(&daysAgo, "dt", 0, "Days ago to request (0 = today; the source serves up to 7)")
	flag.IntVar(&maxPages, "max.pages", app.DefaultMaxPages, "Upper bound on pages walked per run")
	flag.IntVar(&minPageRecords, "min.pageRecords", app.DefaultMinPageRecords, "Pages with fewer records are treated as the last page")
	flag.DurationVar(&pageDelay, "delay", app.DefaultPageDelay, "Politeness delay between page fetches")
	flag.IntVar(&maxAttempts, "fetch.attempts", app.DefaultMaxAttempts, "Fetch attempts per page, including the first")
	flag.DurationVar(&requestTimeout, "fetch.timeout", app.DefaultRequestTimeout, "Per-request timeout")
	flag.BoolVar(&appendDedupe, "append-dedupe", false, "Merge with the existing output file, keyed on (date, time, song, performer)")
	flag.BoolVar(&insecure, "insecure", false, "Disable TLS verification (public scraping only)")
	flag.StringVar(&debugDir, "debug.dir", os.Getenv("PLAYLOG_DEBUG_DIR"), "Directory for raw-page and token dumps (empty disables)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		BaseURL:        baseURL,
		UserAgent:      userAgent,
		AcceptLanguage: app.DefaultAcceptLanguage,
		Insecure:       insecure,
		DaysAgo:        daysAgo,
		MaxPages:       maxPages,
		MinPageRecords: minPageRecords,
		PageDelay:      pageDelay,
		MaxAttempts:    maxAttempts,
		RetryDelay:     app.DefaultRetryDelay,
		RequestTimeout: requestTimeout,
		OutputPath:     outputPath,
		AppendDedupe:   appendDedupe,
		DebugDir:       debugDir,
		Verbose:        verbose,
	}

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("config", configPath).Msg("load config failed")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
		if cfg.Verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	}
	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	if err := app.New(cfg).Run(context.Background()); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: 2 when the source has changed shape under us
		// (nothing parsed on page one, or no recognizable layout); 1 for
		// everything else.
		if errors.Is(err, app.ErrNoRecordsFirstPage) || errors.Is(err, layout.ErrNotRecognized) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
