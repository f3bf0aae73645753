package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	"videodetect/internal/config"
	"videodetect/internal/labels"
	"videodetect/internal/ui"
	"videodetect/processing/capture"
	processing "videodetect/processing/detector"
)

var app = &cli.App{
	Name:  "videodetect",
	Usage: "overlay object detections on a video",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "model", Usage: "path of the compiled `MODEL` (.tflite)"},
		&cli.StringFlag{Name: "labels", Usage: "path of the labels `FILE`"},
		&cli.Float64Flag{Name: "threshold", Value: config.DefaultThreshold, Usage: "score threshold for detected objects"},
		&cli.StringFlag{Name: "video", Usage: "video `FILE` to read frames from"},
		&cli.StringFlag{Name: "source", Value: string(config.SourceFile), Usage: "frame source: file or camera"},
		&cli.StringFlag{Name: "camera", Value: "0", Usage: "camera device index or path"},
		&cli.StringFlag{Name: "decoder", Value: string(config.DecoderOpenCV), Usage: "decoder: opencv or ffmpeg"},
		&cli.IntFlag{Name: "width", Value: config.DefaultWorkingResolution, Usage: "working frame width"},
		&cli.IntFlag{Name: "height", Value: config.DefaultWorkingResolution, Usage: "working frame height"},
		&cli.UintFlag{Name: "fps", Value: 30, Usage: "frame rate requested from ffmpeg"},
		&cli.StringFlag{Name: "runtime", Value: string(config.RuntimeTFLite), Usage: "inference runtime: tflite or remote"},
		&cli.StringFlag{Name: "remote-addr", Value: config.DefaultRemoteAddr, Usage: "detection server `HOST:PORT` for the remote runtime"},
		&cli.IntFlag{Name: "threads", Usage: "interpreter threads, 0 for one per CPU"},
		&cli.StringFlag{Name: "output-order", Value: "0,1,2,3", Usage: "output tensor indices of boxes,classes,scores,count"},
		&cli.StringFlag{Name: "display", Value: string(config.DisplayOpenCV), Usage: "display: opencv, fyne or none"},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: config.DefaultConfigPath, Usage: "load configuration from `FILE`"},
		&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
	},
	Action: runAction,
	Commands: []*cli.Command{
		{
			Name:   "list-cameras",
			Usage:  "list camera devices ffmpeg can open",
			Action: listCamerasAction,
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	return slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	)
}

// loadConfig layers explicitly set flags over the config file over defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfigFile(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("model") {
		cfg.Model.Path = c.String("model")
	}
	if c.IsSet("labels") {
		cfg.LabelsPath = c.String("labels")
	}
	if c.IsSet("threshold") {
		cfg.Threshold = c.Float64("threshold")
	}
	if c.IsSet("video") {
		cfg.Source.Path = c.String("video")
	}
	if c.IsSet("source") {
		cfg.Source.Type = config.SourceType(c.String("source"))
	}
	if c.IsSet("camera") {
		cfg.Source.DeviceID = c.String("camera")
	}
	if c.IsSet("decoder") {
		cfg.Source.Decoder = config.Decoder(c.String("decoder"))
	}
	if c.IsSet("width") {
		cfg.ScaledWidth = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.ScaledHeight = c.Int("height")
	}
	if c.IsSet("fps") {
		cfg.Source.FPS = c.Uint("fps")
	}
	if c.IsSet("runtime") {
		cfg.Model.Runtime = config.Runtime(c.String("runtime"))
	}
	if c.IsSet("remote-addr") {
		cfg.Model.RemoteAddr = c.String("remote-addr")
	}
	if c.IsSet("threads") {
		cfg.Model.Threads = c.Int("threads")
	}
	if c.IsSet("output-order") {
		roles, err := config.ParseOutputOrder(c.String("output-order"))
		if err != nil {
			return nil, err
		}
		cfg.Model.OutputRoles = roles
	}
	if c.IsSet("display") {
		cfg.Display = config.DisplayType(c.String("display"))
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if errors.Is(err, config.ErrInvalidConfig) {
		cli.ShowAppHelp(c)
		return err
	}
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Debug)

	labelMap, err := labels.Load(cfg.LabelsPath)
	if err != nil {
		return err
	}
	logger.Debug("labels loaded", "path", cfg.LabelsPath, "count", len(labelMap))

	model, err := newModel(cfg, logger)
	if err != nil {
		return err
	}
	defer model.Close()

	det, err := processing.NewDetector(model, cfg.Model.OutputRoles)
	if err != nil {
		return err
	}
	logger.Info("model ready", "runtime", cfg.Model.Runtime, "input", det.InputShape().String())

	source, err := newSource(cfg)
	if err != nil {
		return err
	}
	if err := source.Start(); err != nil {
		return fmt.Errorf("open frame source: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pc := processing.Context{
		Source:    source,
		Detector:  det,
		Labels:    labelMap,
		Threshold: float32(cfg.Threshold),
		Width:     cfg.ScaledWidth,
		Height:    cfg.ScaledHeight,
		Logger:    logger,
	}

	var (
		stats  processing.Stats
		runErr error
	)
	start := time.Now()

	if cfg.Display == config.DisplayFyne {
		window := ui.CreateApp("video", cfg.ScaledWidth, cfg.ScaledHeight)
		pc.Display = window
		proc := processing.NewProcessor(pc)
		window.Run(func() { stats, runErr = proc.Run(ctx) })
	} else {
		pc.Display = newDisplay(cfg)
		stats, runErr = processing.NewProcessor(pc).Run(ctx)
	}

	logger.Info("done", "frames", stats.Frames, "detections", stats.Detections, "elapsed", time.Since(start).Round(time.Millisecond))
	return runErr
}

func listCamerasAction(c *cli.Context) error {
	cameras, err := capture.ListCameras()
	if err != nil {
		return err
	}
	if len(cameras) == 0 {
		fmt.Fprintln(c.App.Writer, "No cameras found")
		return nil
	}
	for _, cam := range cameras {
		fmt.Fprintln(c.App.Writer, cam)
	}
	return nil
}
