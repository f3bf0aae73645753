package processing

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"io"
	"log/slog"
	"time"

	"github.com/nfnt/resize"
	"go.uber.org/multierr"

	"videodetect/internal/labels"
	stream "videodetect/processing/capture"
)

type State int

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "stopped"
}

// Context is everything one run of the loop needs. It is not modified by the
// processor.
type Context struct {
	Source    stream.FrameSource
	Detector  *Detector
	Labels    labels.Map
	Display   Display
	Threshold float32

	// Working resolution every frame is scaled to before detection and display.
	Width  int
	Height int

	Logger *slog.Logger
}

type Stats struct {
	Frames      uint
	Detections  uint
	LastLatency time.Duration
	FPS         uint
}

type Processor struct {
	ctx   Context
	state State
	stats Stats

	frameCount    uint
	lastFpsUpdate time.Time
}

func NewProcessor(c Context) *Processor {
	if c.Display == nil {
		c.Display = NopDisplay{}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{ctx: c, state: StateRunning}
}

func (p *Processor) State() State {
	return p.state
}

// Run pulls, detects, draws and shows frames until the source is exhausted,
// the display asks to quit or ctx is cancelled. The source must already be
// started. Source and display are released before Run returns.
func (p *Processor) Run(ctx context.Context) (stats Stats, err error) {
	defer func() {
		p.state = StateStopped
		p.ctx.Source.Stop()
		err = multierr.Append(err, p.ctx.Display.Close())
		stats = p.stats
	}()

	log := p.ctx.Logger
	p.lastFpsUpdate = time.Now()

	for p.state == StateRunning {
		if ctx.Err() != nil {
			log.Info("interrupted", "frames", p.stats.Frames)
			return p.stats, nil
		}

		frame, err := p.ctx.Source.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Warn("frame read failed, treating as end of stream", "error", err)
			}
			log.Info("end of stream", "frames", p.stats.Frames, "detections", p.stats.Detections)
			return p.stats, nil
		}

		if err := p.step(frame); err != nil {
			return p.stats, err
		}

		if p.ctx.Display.QuitRequested() {
			log.Info("quit requested", "frames", p.stats.Frames)
			p.state = StateStopped
		}
	}

	return p.stats, nil
}

func (p *Processor) step(frame *image.RGBA) error {
	work := p.scale(frame)
	bounds := work.Bounds()

	results, latency, err := p.ctx.Detector.DetectFrame(work, p.ctx.Threshold)
	if err != nil {
		return err
	}

	for _, res := range results {
		label := p.ctx.Labels.Name(res.ClassID)
		annotate(work, res.PixelBox(bounds.Dx(), bounds.Dy()), label, res.Score)
		p.ctx.Logger.Info("detection", "label", label, "score", res.Score, "box", res.Box[:])
	}

	ms := float64(latency.Microseconds()) / 1000
	drawLatency(work, ms)
	p.ctx.Logger.Debug("frame", "n", p.stats.Frames, "detections", len(results), "latency_ms", ms)

	if err := p.ctx.Display.Show(work); err != nil {
		return err
	}

	p.stats.Frames++
	p.stats.Detections += uint(len(results))
	p.stats.LastLatency = latency
	p.updateFPS()

	return nil
}

func (p *Processor) updateFPS() {
	p.frameCount++
	if time.Since(p.lastFpsUpdate) < time.Second {
		return
	}

	p.stats.FPS = p.frameCount
	p.frameCount = 0
	p.lastFpsUpdate = time.Now()

	if sink, ok := p.ctx.Display.(StatsSink); ok {
		sink.UpdateStats(p.stats.FPS, p.stats.LastLatency)
	}
}

// scale returns frame at the working resolution, or frame itself when it
// already matches.
func (p *Processor) scale(frame *image.RGBA) *image.RGBA {
	b := frame.Bounds()
	if b.Dx() == p.ctx.Width && b.Dy() == p.ctx.Height && b.Min == (image.Point{}) {
		return frame
	}

	scaled := resize.Resize(uint(p.ctx.Width), uint(p.ctx.Height), frame, resize.Bilinear)
	if rgba, ok := scaled.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}

	rgba := image.NewRGBA(image.Rect(0, 0, p.ctx.Width, p.ctx.Height))
	draw.Draw(rgba, rgba.Bounds(), scaled, scaled.Bounds().Min, draw.Src)
	return rgba
}
