package main

import (
	"fmt"
	"log/slog"
	"time"

	"videodetect/internal/config"
	"videodetect/internal/ui/cvwindow"
	"videodetect/processing/capture"
	"videodetect/processing/capture/cvcapture"
	processing "videodetect/processing/detector"
	"videodetect/processing/tflite"
)

func newSource(cfg *config.Config) (capture.FrameSource, error) {
	src := cfg.Source

	switch {
	case src.Decoder == config.DecoderFFmpeg && src.Type == config.SourceFile:
		ls, err := capture.NewLocalStreamer(src.Path, src.FPS, cfg.ScaledWidth, cfg.ScaledHeight)
		if err != nil {
			return nil, err
		}
		return ls, nil
	case src.Decoder == config.DecoderFFmpeg && src.Type == config.SourceCamera:
		return capture.NewFFmpegWebcam(src.DeviceID, src.FPS, cfg.ScaledWidth, cfg.ScaledHeight), nil
	case src.Type == config.SourceFile:
		return cvcapture.NewFileSource(src.Path), nil
	case src.Type == config.SourceCamera:
		return cvcapture.NewCameraSource(src.DeviceID), nil
	default:
		return nil, fmt.Errorf("unknown source: %s", src.Type)
	}
}

func newModel(cfg *config.Config, logger *slog.Logger) (processing.Model, error) {
	switch cfg.Model.Runtime {
	case config.RuntimeTFLite:
		m, err := tflite.Load(cfg.Model.Path, tflite.Options{NumThreads: cfg.Model.Threads, Logger: logger})
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.RuntimeRemote:
		timeout := time.Duration(cfg.Model.TimeoutMS) * time.Millisecond
		return processing.NewRemoteModel(cfg.Model.RemoteAddr, timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown runtime: %s", cfg.Model.Runtime)
	}
}

func newDisplay(cfg *config.Config) processing.Display {
	if cfg.Display == config.DisplayNone {
		return processing.NopDisplay{}
	}
	return cvwindow.New("video")
}
