// Entry point for aligned-dataset.
// Builds the vocabulary, aligns every conversational sequence with reference
// sentences of its element, and writes train/validate/test matrices plus the
// vocabulary dictionary.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"aligned-dataset/internal/config"
	"aligned-dataset/internal/pipeline"
	"aligned-dataset/internal/types"
)

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		log.Printf("[config] %v", err)
		os.Exit(types.ExitCode(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	sum, err := pipeline.Run(ctx, cfg, logger)
	if err != nil {
		logger.Printf("[pipeline] failed: %v", err)
		stop()
		os.Exit(types.ExitCode(err))
	}
	logger.Printf("[pipeline] done (seed=%d vocab=%d train=%d validate=%d test=%d)",
		sum.Seed, sum.VocabularySize, sum.Quota.Train, sum.Quota.Validate, sum.Quota.Test)
}
