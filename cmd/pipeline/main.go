package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nguyentantai21042004/recall-scorer/internal/config"
	"github.com/nguyentantai21042004/recall-scorer/internal/device"
	"github.com/nguyentantai21042004/recall-scorer/internal/extractor"
	"github.com/nguyentantai21042004/recall-scorer/internal/hub"
	"github.com/nguyentantai21042004/recall-scorer/internal/inference"
	"github.com/nguyentantai21042004/recall-scorer/internal/inference/gemini"
	"github.com/nguyentantai21042004/recall-scorer/internal/inference/triton"
	"github.com/nguyentantai21042004/recall-scorer/internal/logger"
	"github.com/nguyentantai21042004/recall-scorer/internal/metrics"
	"github.com/nguyentantai21042004/recall-scorer/internal/repairer"
	"github.com/nguyentantai21042004/recall-scorer/internal/scorer"
	"github.com/nguyentantai21042004/recall-scorer/pkg/executor"
)

const usage = `Usage: pipeline [-config path] <stage>

Stages:
  extract   pull free-recall narratives out of the transcript documents
  repair    fix encoding damage in a narrative table
  score     score narratives for internal and external details
`

func main() {
	// Ctrl+C cancels the running stage; the scorer still releases its model.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one stage and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("pipeline", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	configPath := flags.String("config", "config.yaml", "path to the YAML config file")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return 1
	}
	stage := flags.Arg(0)

	explicit := false
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	cfg, err := loadConfig(*configPath, explicit)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log := logger.NewWithWriter(cfg.Logging.Level, stdout)
	log.Info(ctx, "System: %s/%s, CPU Cores: %d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())

	m := metrics.New()
	var code int
	switch stage {
	case "extract":
		code = runExtract(ctx, cfg, log, m, stderr)
	case "repair":
		code = runRepair(ctx, cfg, log, m, stdin, stdout)
	case "score":
		code = runScore(ctx, cfg, log, m, stderr)
	default:
		fmt.Fprintf(stderr, "unknown stage %q\n\n", stage)
		flags.Usage()
		return 1
	}

	if code == 0 {
		m.MarkSuccess(stage)
	}
	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Warn(ctx, "Failed to write metrics to %s: %v", cfg.Metrics.Textfile, err)
	}
	return code
}

// loadConfig falls back to defaults when the default config file is absent.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, err
}

func runExtract(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Metrics, progress io.Writer) int {
	ext := extractor.New(cfg.Extractor, log, m, progress)
	if _, err := ext.Run(ctx); err != nil {
		log.Error(ctx, "❌ Extraction failed: %v", err)
		return 1
	}
	return 0
}

func runRepair(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Metrics, stdin io.Reader, stdout io.Writer) int {
	rep := repairer.New(cfg.Repairer, repairer.NewConsolePrompter(stdin, stdout), log, m)
	if count := rep.Run(ctx); count < 0 {
		return 1
	}
	return 0
}

func runScore(ctx context.Context, cfg *config.Config, log logger.Logger, m *metrics.Metrics, progress io.Writer) int {
	dev := device.Resolve(ctx, cfg.Scorer.Device, executor.New(15*time.Second), log)
	log.Info(ctx, "⚙️ Using device: %s", dev)

	var backend inference.Backend
	switch cfg.Scorer.Backend {
	case config.BackendGemini:
		backend = gemini.New(cfg.Gemini, log)
	default:
		if cfg.HuggingFace.Token == "" {
			log.Warn(ctx, "💡 HF_TOKEN is not set; private model repositories will fail to download")
		}
		backend = triton.NewFromHub(cfg.Triton, hub.New(cfg.HuggingFace), log)
	}

	summary, err := scorer.New(cfg.Scorer, backend, dev, log, m, progress).Run(ctx)
	if err != nil {
		log.Error(ctx, "❌ Scoring failed: %v", err)
		return 1
	}
	for _, d := range summary.Dimensions {
		if d.Skipped {
			log.Info(ctx, "  - %s: already complete", d.Name)
			continue
		}
		log.Info(ctx, "  - %s: %d rows in %d batches", d.Name, d.Scored, d.Batches)
	}
	log.Info(ctx, "🎉 Results saved to %s", cfg.Scorer.OutputFile)
	return 0
}
