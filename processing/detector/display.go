package processing

import (
	"image"
	"time"
)

// Display shows annotated frames and reports whether the user asked to quit.
type Display interface {
	Show(frame image.Image) error
	QuitRequested() bool
	Close() error
}

// StatsSink is implemented by displays that render loop statistics.
type StatsSink interface {
	UpdateStats(fps uint, latency time.Duration)
}

// NopDisplay drops frames and never requests a quit.
type NopDisplay struct{}

func (NopDisplay) Show(image.Image) error { return nil }
func (NopDisplay) QuitRequested() bool    { return false }
func (NopDisplay) Close() error           { return nil }
