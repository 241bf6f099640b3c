package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/artcaption/internal/config"
	"github.com/timmy/artcaption/internal/logger"
	"github.com/timmy/artcaption/internal/repository"
	"github.com/timmy/artcaption/internal/service"
	"github.com/timmy/artcaption/internal/source"
	"github.com/timmy/artcaption/internal/source/gallery"
	"github.com/timmy/artcaption/internal/source/manifest"
)

func main() {
	appLogger := newCLILogger()
	logger.SetDefaultLogger(appLogger)

	imagePath := flag.String("image", "", "Caption a single image file")
	dir := flag.String("dir", "", "Caption every image in a gallery directory")
	manifestDir := flag.String("manifest", "", "Caption the images listed in <dir>/manifest.jsonl")
	prompt := flag.String("prompt", "", "Prompt prefix (defaults to the configured prompt)")
	feedback := flag.String("feedback", "", "Feedback applied to every caption, e.g. 'make it more poetic'")
	interactive := flag.Bool("interactive", false, "Ask for feedback after a single-image caption")
	seed := flag.Int64("seed", 0, "Random seed for flourishes and title prefixes (0 = random)")
	limit := flag.Int("limit", 0, "Maximum number of gallery images (0 = all)")
	archive := flag.Bool("archive", false, "Store captions in the configured database")
	force := flag.Bool("force", false, "Re-caption gallery images that are already archived")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	if err := cfg.VLM.Validate(); err != nil {
		appLogger.WithError(err).Fatal("Invalid VLM configuration")
	}
	if *seed != 0 {
		cfg.Caption.Seed = *seed
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	vlmService := service.NewVLMService(&service.VLMConfig{
		Provider:  cfg.VLM.Provider,
		Model:     cfg.VLM.Model,
		APIKey:    cfg.VLM.APIKey,
		BaseURL:   cfg.VLM.BaseURL,
		MaxTokens: cfg.Caption.MaxTitleTokens,
		Timeout:   cfg.VLM.Timeout,
	})
	captionService := service.NewCaptionService(vlmService, appLogger, &service.CaptionConfig{
		DefaultPrompt:       cfg.Caption.DefaultPrompt,
		FlourishProbability: cfg.Caption.FlourishProbability,
		PrefixCandidates:    cfg.Caption.PrefixCandidates,
		DescriptionCutoff:   cfg.Caption.DescriptionCutoff,
		Seed:                cfg.Caption.Seed,
	})

	cli := &cli{captions: captionService, out: os.Stdout, in: os.Stdin}

	var src source.Source
	switch {
	case *imagePath != "":
		if err := cli.captionFile(ctx, *imagePath, *prompt, *feedback, *interactive); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	case *dir != "":
		src = gallery.NewAdapter(*dir)
	case *manifestDir != "":
		src = manifest.NewAdapter(*manifestDir)
	default:
		fmt.Fprintln(os.Stderr, "one of -image, -dir or -manifest is required")
		flag.Usage()
		os.Exit(2)
	}

	var store service.CaptionStore
	var jobs service.BatchJobStore
	if *archive {
		db, err := repository.InitDB(&cfg.Database, appLogger)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		store = repository.NewCaptionRepository(db)
		jobs = repository.NewBatchJobRepository(db)
	}

	batch := service.NewBatchService(captionService, store, jobs, appLogger, &service.BatchConfig{
		Workers:   cfg.Batch.Workers,
		BatchSize: cfg.Batch.BatchSize,
	})
	stats, err := cli.captionSource(ctx, batch, src, &service.BatchOptions{
		Limit:    *limit,
		Prompt:   *prompt,
		Feedback: *feedback,
		Force:    *force,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	if stats.FailedItems > 0 {
		os.Exit(1)
	}
}

// newCLILogger reads the usual LOG_* settings but always writes to stderr,
// so captions on stdout stay clean.
func newCLILogger() *logger.Logger {
	envCfg := logger.LoadFromEnv("artcaption-cli")
	envCfg.Output = os.Stderr
	return logger.NewFromEnv(envCfg)
}
