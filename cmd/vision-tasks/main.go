package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	visiontasks "github.com/menta2k/vision-tasks"
	"github.com/menta2k/vision-tasks/internal/config"
	"github.com/menta2k/vision-tasks/pkg/dispatch"
	"github.com/menta2k/vision-tasks/pkg/heuristic"
	"github.com/menta2k/vision-tasks/pkg/observation"
	"github.com/menta2k/vision-tasks/pkg/ollamaengine"
	"github.com/menta2k/vision-tasks/pkg/overlay"
	"github.com/menta2k/vision-tasks/pkg/processing"
	"github.com/menta2k/vision-tasks/pkg/task"
	"github.com/menta2k/vision-tasks/pkg/types"
)

// taskReport is the per-task JSON output record.
type taskReport struct {
	Task         string                    `json:"task"`
	Index        int                       `json:"index"`
	Error        string                    `json:"error,omitempty"`
	Observations []observation.Observation `json:"observations,omitempty"`
	Count        int                       `json:"count"`
}

func main() {
	var in, tasksArg, backend, url, model, roiArg, overlayOut, configPath string
	var revision int
	var background, verbose bool

	flag.StringVar(&in, "in", "", "input image path or URL (jpg/png/webp)")
	flag.StringVar(&tasksArg, "tasks", "horizon", "comma-separated task kinds (e.g. horizon,face-detection,saliency:objectness)")
	flag.StringVar(&backend, "backend", "", "engine backend: heuristic or ollama (default from config)")
	flag.StringVar(&url, "url", "", "ollama server URL")
	flag.StringVar(&model, "model", "", "ollama model name")
	flag.StringVar(&roiArg, "roi", "", "normalized region of interest as x,y,w,h")
	flag.IntVar(&revision, "revision", 0, "force a request revision where supported")
	flag.BoolVar(&background, "background", false, "prefer background-priority execution")
	flag.StringVar(&overlayOut, "overlay", "", "write an overlay image to this path")
	flag.StringVar(&configPath, "config", "", "config file path (default ~/.config/vision-tasks/config.json)")
	flag.BoolVar(&verbose, "v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if in == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -in input.jpg|URL [-tasks horizon,face-detection] [-backend heuristic|ollama] [-roi x,y,w,h] [-overlay out.png]\n",
			filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	cfg := loadConfig(configPath, logger)
	if backend != "" {
		cfg.Engine.Backend = backend
	}
	if url != "" {
		cfg.Engine.ServerURL = url
	}
	if model != "" {
		cfg.Engine.Model = model
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	analyzer, err := buildAnalyzer(cfg)
	if err != nil {
		logger.Error("failed to initialize engine", "error", err)
		os.Exit(1)
	}

	tasks, err := parseTasks(tasksArg, analyzer.Capability())
	if err != nil {
		logger.Error("invalid task list", "error", err)
		os.Exit(2)
	}

	processor := processing.NewProcessor()
	img, err := processor.LoadImageSmart(in)
	if err != nil {
		logger.Error("failed to load image", "source", in, "error", err)
		os.Exit(1)
	}

	var opts []dispatch.Option
	if roiArg != "" {
		roi, err := parseROI(roiArg)
		if err != nil {
			logger.Error("invalid region of interest", "error", err)
			os.Exit(2)
		}
		opts = append(opts, dispatch.WithRegionOfInterest(roi))
	}
	if revision != 0 {
		opts = append(opts, dispatch.WithRevision(revision))
	}
	if background {
		opts = append(opts, dispatch.WithBackgroundPriority())
	}

	results, err := analyzer.PerformTasks(context.Background(), tasks, img, opts...)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		os.Exit(1)
	}

	reports := make([]taskReport, len(results))
	var allObs []observation.Observation
	for i, res := range results {
		report := taskReport{
			Task:         res.Task.String(),
			Index:        res.Index,
			Observations: res.Observations,
			Count:        len(res.Observations),
		}
		if res.Err != nil {
			report.Error = res.Err.Error()
			report.Observations = nil
			report.Count = 0
		} else {
			allObs = append(allObs, res.Observations...)
		}
		reports[i] = report
	}

	enc := json.NewEncoder(os.Stdout)
	if cfg.Output.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(reports); err != nil {
		logger.Error("failed to encode results", "error", err)
		os.Exit(1)
	}

	if overlayOut != "" {
		canvas := overlay.Draw(img, allObs)
		format := strings.TrimPrefix(filepath.Ext(overlayOut), ".")
		if format == "" {
			format = cfg.Output.OverlayFormat
		}
		if err := processor.SaveImage(canvas, overlayOut, format, cfg.Output.OverlayQuality, false); err != nil {
			logger.Error("failed to save overlay", "path", overlayOut, "error", err)
			os.Exit(1)
		}
		logger.Info("overlay written", "path", overlayOut)
	}
}

func loadConfig(path string, logger *slog.Logger) *config.Config {
	if path == "" {
		path = config.GetConfigPath()
		if _, err := os.Stat(path); err != nil {
			return config.Default()
		}
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		logger.Warn("falling back to default config", "path", path, "error", err)
		return config.Default()
	}
	return cfg
}

func buildAnalyzer(cfg *config.Config) (*visiontasks.Analyzer, error) {
	switch cfg.Engine.Backend {
	case "ollama":
		engine, err := ollamaengine.New(cfg.Engine.ServerURL, ollamaengine.Config{
			Model:       cfg.Engine.Model,
			SendMaxDim:  cfg.Engine.SendMaxDim,
			SendQuality: cfg.Engine.SendQuality,
		})
		if err != nil {
			return nil, err
		}
		return visiontasks.NewWithEngine(engine), nil
	default:
		return visiontasks.NewWithEngine(heuristic.NewWithConfig(heuristic.Config{
			EdgeThreshold:      cfg.Heuristic.EdgeThreshold,
			SaliencyMapSize:    cfg.Heuristic.SaliencyMapSize,
			MinRegionRatio:     cfg.Heuristic.MinRegionRatio,
			RectangleTolerance: cfg.Heuristic.RectangleTolerance,
			MaxObservations:    cfg.Heuristic.MaxObservations,
		})), nil
	}
}

func parseTasks(arg string, cap task.Capability) ([]task.AnalysisTask, error) {
	var tasks []task.AnalysisTask
	for _, name := range strings.Split(arg, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, err := task.Parse(name, cap)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks given")
	}
	return tasks, nil
}

func parseROI(arg string) (types.Box, error) {
	parts := strings.Split(arg, ",")
	if len(parts) != 4 {
		return types.Box{}, fmt.Errorf("expected x,y,w,h, got %q", arg)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return types.Box{}, fmt.Errorf("invalid component %q: %v", p, err)
		}
		vals[i] = v
	}
	box := types.Box{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}
	if box.W <= 0 || box.H <= 0 {
		return types.Box{}, fmt.Errorf("region must have positive size")
	}
	return box.Clamp(), nil
}
