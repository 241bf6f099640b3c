package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/timmy/artcaption/internal/domain"
	"github.com/timmy/artcaption/internal/service"
	"github.com/timmy/artcaption/internal/source"
)

const feedbackQuestion = "Want to tweak the caption? (e.g. 'make it more poetic', 'simplify', 'add detail'): "

type cli struct {
	captions *service.CaptionService
	out      io.Writer
	in       io.Reader
}

func (c *cli) captionFile(ctx context.Context, path, prompt, feedback string, interactive bool) error {
	img, _, err := source.LoadImage(path)
	if err != nil {
		return err
	}

	result, err := c.captions.Generate(ctx, img, prompt, feedback)
	if err != nil {
		return err
	}
	printResult(c.out, result)

	if !interactive {
		return nil
	}

	reader := bufio.NewReader(c.in)
	caption := result.RefinedCaption
	for {
		fmt.Fprint(c.out, "\n"+feedbackQuestion)
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" {
			return nil
		}
		refined, rerr := c.captions.Refine(ctx, caption, line)
		if rerr != nil {
			return rerr
		}
		caption = refined
		fmt.Fprintf(c.out, "Improved Caption: %s\n", caption)
		if err != nil {
			// EOF after a final unterminated line
			return nil
		}
	}
}

func (c *cli) captionSource(ctx context.Context, batch *service.BatchService, src source.Source, opts *service.BatchOptions) (*service.BatchStats, error) {
	opts.OnResult = func(r service.BatchItemResult) {
		switch {
		case r.Skipped:
			fmt.Fprintf(c.out, "== %s (already captioned)\n\n", r.Item.SourceID)
		case r.Err != nil:
			fmt.Fprintf(c.out, "== %s\nError: %v\n\n", r.Item.SourceID, r.Err)
		default:
			fmt.Fprintf(c.out, "== %s\n", r.Item.SourceID)
			result := r.Record.Result()
			printResult(c.out, &result)
			fmt.Fprintln(c.out)
		}
	}

	stats, err := batch.CaptionSource(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(c.out, "Captioned %d of %d images (%d skipped, %d failed)\n",
		stats.ProcessedItems-stats.SkippedItems-stats.FailedItems, stats.TotalItems,
		stats.SkippedItems, stats.FailedItems)
	return stats, nil
}

func printResult(w io.Writer, r *domain.CaptionResult) {
	fmt.Fprintf(w, "Title: %s\n", r.Title)
	fmt.Fprintf(w, "Description: %s\n", r.Description)
	fmt.Fprintf(w, "Raw Caption: %s\n", r.RawCaption)
	fmt.Fprintf(w, "Refined Caption: %s\n", r.RefinedCaption)
	fmt.Fprintf(w, "Dominant Color (RGB): %s\n", r.DominantColor)
	fmt.Fprintf(w, "Mood: %s\n", r.Mood)
	fmt.Fprintf(w, "Art Style Guess: %s\n", r.Style)
}
