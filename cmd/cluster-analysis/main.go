package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/cluster-analysis/internal/clusters"
	"github.com/ironsheep/cluster-analysis/internal/config"
	"github.com/ironsheep/cluster-analysis/internal/httpapi"
	"github.com/ironsheep/cluster-analysis/internal/imaging"
	"github.com/ironsheep/cluster-analysis/internal/logging"
	"github.com/ironsheep/cluster-analysis/internal/recognize"
	"github.com/ironsheep/cluster-analysis/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "cluster-analysis %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		fmt.Fprintf(stdout, "  Glyph recognition: %v\n", recognize.Available())
		return 0
	case "--help", "-h", "help":
		printUsage(stdout)
		return 0
	case "serve", "mcp", "analyze":
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		printUsage(stderr)
		return 2
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger, err := logging.NewWithWriter(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch cmd {
	case "analyze":
		err = runAnalyze(args, cfg, stdout)
	case "mcp":
		err = runMCP(cfg, logger, stdin, stdout)
	default:
		err = runServe(cfg, logger)
	}
	if err != nil {
		logger.WithError(err).Error("Exiting")
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "cluster-analysis - glyph cluster analysis for PNG images")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  cluster-analysis [serve]                  Run the HTTP API")
	fmt.Fprintln(w, "  cluster-analysis mcp                      Run the MCP server on stdin/stdout")
	fmt.Fprintln(w, "  cluster-analysis analyze <file.png> [ltr|rtl]   Print the analysis as JSON")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables (also read from .env):")
	fmt.Fprintln(w, "  PORT, ADDR                    Listen address (default :8080)")
	fmt.Fprintln(w, "  CLUSTER_LOG_LEVEL             debug, info, warn, error (default info)")
	fmt.Fprintln(w, "  CLUSTER_LOG_FORMAT            text or json (default text)")
	fmt.Fprintln(w, "  CLUSTER_DEFAULT_DIRECTION     ltr or rtl (default rtl)")
	fmt.Fprintln(w, "  CLUSTER_POLICY                contrast or luminance (default contrast)")
	fmt.Fprintln(w, "  CLUSTER_CONNECTIVITY          4 or 8 (default 8)")
	fmt.Fprintln(w, "  CLUSTER_MIN_AREA              Smallest cluster kept, in pixels (default 1)")
	fmt.Fprintln(w, "  CLUSTER_LINE_OVERLAP          Line grouping overlap, 0 to <1 (default 0)")
	fmt.Fprintln(w, "  CLUSTER_MAX_BODY_BYTES        Request body limit (default 10485760)")
	fmt.Fprintln(w, "  CLUSTER_MAX_PIXELS            Largest image accepted, in pixels (default 16777216)")
	fmt.Fprintln(w, "  CLUSTER_MAX_CONCURRENT        Concurrent analyses (default 4)")
}

// newRecognizer returns nil when recognition is not compiled in or cannot
// start; requests asking for it are then rejected.
func newRecognizer(cfg *config.Config, logger *logrus.Logger) recognize.Recognizer {
	r, err := recognize.New(cfg.RecognizeOptions())
	if err != nil {
		if errors.Is(err, recognize.ErrUnavailable) {
			logger.Debug("Glyph recognition not compiled in")
		} else {
			logger.WithError(err).Warn("Glyph recognition disabled")
		}
		return nil
	}
	return r
}

func runServe(cfg *config.Config, logger *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := newRecognizer(cfg, logger)
	if rec != nil {
		defer rec.Close()
	}

	logger.WithFields(logrus.Fields{
		"version":           Version,
		"default_direction": cfg.DefaultDirection,
		"max_concurrent":    cfg.MaxConcurrent,
		"recognition":       rec != nil,
	}).Info("Starting cluster analysis service")

	handler := httpapi.NewHandler(httpapi.Options{
		Analysis:      cfg.AnalysisOptions(),
		MaxBodyBytes:  cfg.MaxBodyBytes,
		MaxPixels:     cfg.MaxPixels,
		MaxConcurrent: int64(cfg.MaxConcurrent),
		Recognizer:    rec,
		Recognize:     cfg.RecognizeOptions(),
		Logger:        logger,
	})
	return httpapi.NewServer(cfg.Addr, handler, logger).Run(ctx, shutdownTimeout)
}

func runMCP(cfg *config.Config, logger *logrus.Logger, stdin io.Reader, stdout io.Writer) error {
	rec := newRecognizer(cfg, logger)
	if rec != nil {
		defer rec.Close()
	}

	logger.WithField("version", Version).Debug("Starting MCP server")
	srv := server.New(server.Options{
		Analysis:   cfg.AnalysisOptions(),
		Recognizer: rec,
		Recognize:  cfg.RecognizeOptions(),
		Version:    Version,
		Logger:     logger,
	})
	return srv.Serve(stdin, stdout)
}

func runAnalyze(args []string, cfg *config.Config, stdout io.Writer) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: cluster-analysis analyze <file.png> [ltr|rtl]")
	}

	var dir clusters.Direction
	if len(args) == 2 {
		d, err := clusters.ParseDirection(args[1])
		if err != nil {
			return err
		}
		dir = d
	}

	img, err := imaging.LoadPNG(imaging.NewImageCache(), args[0])
	if err != nil {
		return err
	}

	res := clusters.Analyze(img, dir, cfg.AnalysisOptions())

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
