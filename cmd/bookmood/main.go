package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kapu/bookmood-go/internal/app"
	"github.com/kapu/bookmood-go/internal/config"
	"github.com/kapu/bookmood-go/internal/service"
	"github.com/kapu/bookmood-go/internal/util"
	"go.uber.org/zap"
)

func main() {
	var (
		title    = flag.String("title", "", "book title to analyze")
		author   = flag.String("author", "", "author name (optional)")
		batch    = flag.String("batch", "", "file with one 'title|author' per line")
		reviews  = flag.Int("reviews", 0, "override the maximum number of reviews to collect")
		tagsOnly = flag.Bool("tags-only", false, "print only the top mood tags")
	)
	flag.Parse()

	if *title == "" && *batch == "" {
		fmt.Fprintln(os.Stderr, "usage: bookmood -title <title> [-author <author>] | -batch <file>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *reviews > 0 {
		cfg.Goodreads.MaxReviews = *reviews
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to assemble pipeline", zap.Error(err))
		os.Exit(1)
	}
	defer container.Close()

	if *batch != "" {
		os.Exit(runBatch(ctx, container.Pipeline, *batch))
	}
	os.Exit(runSingle(ctx, container.Pipeline, *title, *author, *tagsOnly))
}

func runSingle(ctx context.Context, pipeline *service.Pipeline, title, author string, tagsOnly bool) int {
	if tagsOnly {
		tags, err := pipeline.MoodTags(ctx, title, author)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if len(tags) == 0 {
			fmt.Println("No mood analysis available.")
			return 0
		}
		fmt.Println(strings.Join(tags, ", "))
		return 0
	}

	result, err := pipeline.AnalyzeBookMood(ctx, title, author)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if result == nil {
		fmt.Println("No mood analysis available for this book.")
		return 0
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

func runBatch(ctx context.Context, pipeline *service.Pipeline, path string) int {
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer file.Close()

	var queries []service.BookQuery
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		title, author, _ := strings.Cut(line, "|")
		queries = append(queries, service.BookQuery{
			Title:  strings.TrimSpace(title),
			Author: strings.TrimSpace(author),
		})
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	exitCode := 0
	for _, br := range pipeline.AnalyzeBatch(ctx, queries) {
		switch {
		case br.Err != nil:
			fmt.Fprintf(os.Stderr, "%s: error: %v\n", br.Query.Title, br.Err)
			exitCode = 1
		case br.Result == nil:
			fmt.Printf("%s: not found\n", br.Query.Title)
		case !br.Result.Success:
			fmt.Printf("%s: %s\n", br.Query.Title, br.Result.Error)
		default:
			fmt.Printf("%s: %s (confidence %.3f)\n",
				br.Query.Title, br.Result.MoodDescription, br.Result.AnalysisConfidence)
		}
	}
	return exitCode
}
