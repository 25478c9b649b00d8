package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/chynybekuuludastan/post_factory/internal/bootstrap"
	"github.com/chynybekuuludastan/post_factory/internal/config"
	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/service/llm"
	"github.com/chynybekuuludastan/post_factory/internal/service/pipeline"
	"github.com/chynybekuuludastan/post_factory/internal/utils/password"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	cfg := config.NewConfig()

	url := flag.String("url", "", "Client website URL")
	count := flag.Int("count", 1, fmt.Sprintf("Number of posts (1-%d)", pipeline.MaxBulkCount))
	keyword := flag.String("keyword", "", "SEO keyword that must appear in the copy")
	focus := flag.String("focus", "", "Offer or topic to focus on")
	postType := flag.String("type", "generic", "Post type: generic, review, faq")
	vibe := flag.String("vibe", "friendly", "Tone: friendly, luxury, urgent")
	style := flag.String("style", "commercial", "Image style: commercial, ugc, empty-room")
	model := flag.String("model", cfg.TextModel, "Text model")
	temperature := flag.Float64("temperature", cfg.Temperature, "Creativity between 0 and 1")
	folder := flag.String("folder", "", "Google Drive folder link or ID")
	outDir := flag.String("out", "output", "Directory for the generated files")
	quiet := flag.Bool("quiet", false, "Only print results")
	hashKey := flag.String("hash-key", "", "Print the OPERATOR_KEY_HASH for a key and exit")
	flag.Parse()

	if *hashKey != "" {
		encoded, err := password.Hash(*hashKey)
		if err != nil {
			log.Fatalf("Failed to hash key: %v", err)
		}
		fmt.Println(encoded)
		return
	}

	if *url == "" {
		flag.Usage()
		os.Exit(2)
	}

	req, err := buildRequest(*keyword, *focus, *postType, *vibe, *style, *model, *temperature)
	if err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	var logger logging.Logger = &logging.DefaultLogger{}
	if *quiet {
		logger = logging.NopLogger{}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer services.Close()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	opts := pipeline.Options{URL: *url, Request: req, FolderID: *folder}
	progress := func(e pipeline.Event) {
		if !*quiet {
			log.Printf("[%d/%d] %s", max(e.Index, 1), max(e.Total, 1), e.Stage)
		}
	}

	var results []*pipeline.Result
	if *count <= 1 {
		res, _ := services.Pipeline.Run(ctx, opts, progress)
		results = []*pipeline.Result{res}
	} else {
		results = services.Pipeline.RunBulk(ctx, opts, *count, progress)
	}

	failed := 0
	for _, res := range results {
		if res.Error != "" {
			failed++
		}
		report(res, *outDir)
	}
	if failed == len(results) {
		os.Exit(1)
	}
}

func buildRequest(keyword, focus, postType, vibe, style, model string, temperature float64) (llm.GenerationRequest, error) {
	pt, err := llm.ParsePostType(postType)
	if err != nil {
		return llm.GenerationRequest{}, err
	}
	v, err := llm.ParseVibe(vibe)
	if err != nil {
		return llm.GenerationRequest{}, err
	}
	vs, err := llm.ParseVisualStyle(style)
	if err != nil {
		return llm.GenerationRequest{}, err
	}
	return llm.GenerationRequest{
		Keyword:     keyword,
		Focus:       focus,
		PostType:    pt,
		Vibe:        v,
		VisualStyle: vs,
		Model:       model,
		Temperature: float32(temperature),
	}.Normalized(), nil
}

// report writes the artifacts of res to dir and prints a summary
func report(res *pipeline.Result, dir string) {
	if res.Error != "" {
		fmt.Printf("FAILED  #%d %s (%s): %s\n", res.Index, res.SourceURL, res.ErrorKind, res.Error)
		return
	}

	textPath := filepath.Join(dir, res.TextFilename())
	if err := os.WriteFile(textPath, res.TextArtifact(), 0o644); err != nil {
		log.Printf("Failed to write %s: %v", textPath, err)
	}
	fmt.Printf("OK      %s\n", res.Post.Headline)
	fmt.Printf("        text:  %s\n", textPath)

	if res.Image != nil {
		imagePath := filepath.Join(dir, res.ImageFilename())
		if err := os.WriteFile(imagePath, res.Image.Data, 0o644); err != nil {
			log.Printf("Failed to write %s: %v", imagePath, err)
		}
		fmt.Printf("        image: %s\n", imagePath)
	}
	if res.ImageWarning != "" {
		fmt.Printf("        image warning: %s\n", res.ImageWarning)
	}
	for _, w := range res.Warnings {
		fmt.Printf("        warning: %s\n", w)
	}
	for _, u := range res.Uploads {
		if u.Success {
			fmt.Printf("        uploaded %s: %s\n", u.Name, u.Link)
		} else {
			fmt.Printf("        upload of %s failed: %s\n", u.Name, u.Error)
		}
	}
}
