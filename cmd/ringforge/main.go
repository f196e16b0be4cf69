package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ringforge/internal/config"
	"ringforge/internal/profiling"
)

type options struct {
	configPath string
	outDir     string
	mode       string
	lod        int
	async      bool
	verbose    bool
	format     string
	size       int
	steps      int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "path to a .yaml or .toml ring configuration (defaults when empty)")
	flag.StringVar(&opts.outDir, "out", "out", "directory to write meshes and textures to")
	flag.StringVar(&opts.mode, "mode", "ring", "what to generate: ring, plane or preview")
	flag.IntVar(&opts.lod, "lod", -1, "preview level of detail 0-6, overriding the configuration")
	flag.BoolVar(&opts.async, "async", false, "generate ring chunks through the background request queue")
	flag.BoolVar(&opts.verbose, "v", false, "enable debug logging")
	flag.StringVar(&opts.format, "format", "png", "texture format: png, bmp or tiff")
	flag.IntVar(&opts.size, "size", 0, "preview image size in pixels (0 keeps the grid size)")
	flag.IntVar(&opts.steps, "steps", 0, "plane mode: number of viewer moves along +X after the first update")
	flag.Parse()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if err := run(log, opts); err != nil {
		log.Error("ringforge failed", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Apply()
	if opts.lod >= 0 {
		config.SetPreviewLOD(opts.lod)
	}
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ext, err := imageExt(opts.format)
	if err != nil {
		return err
	}
	out := &exporter{dir: opts.outDir, ext: ext, log: log}

	profiling.ResetPass()
	switch opts.mode {
	case "ring":
		err = runRing(ctx, log, cfg, out, opts.async)
	case "plane":
		err = runPlane(ctx, log, cfg, out, opts.steps)
	case "preview":
		err = runPreview(log, cfg, out, opts.size)
	default:
		err = fmt.Errorf("unknown mode %q", opts.mode)
	}
	if err != nil {
		return err
	}
	log.Info("stage timings",
		"chunks", profiling.Count("pipeline.GenerateChunk"),
		"noise", profiling.SumWithPrefix("noise."),
		"meshing", profiling.SumWithPrefix("meshing."),
		"texture", profiling.SumWithPrefix("texture."),
		"top", profiling.TopN(8))
	return nil
}

func imageExt(format string) (string, error) {
	switch format {
	case "png", "bmp", "tiff":
		return "." + format, nil
	case "tif":
		return ".tif", nil
	}
	return "", fmt.Errorf("unknown texture format %q", format)
}
