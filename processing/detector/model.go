package processing

import "videodetect/internal/models"

// Model is the part of an inference runtime the detector relies on.
//
// Allocate must succeed once before SetInput or Invoke are called.
// SetInput takes interleaved RGB bytes, row-major, sized to InputShape.
// Invoke is synchronous. Output returns the flattened tensor at index as float32.
type Model interface {
	Allocate() error
	InputShape() models.Shape
	SetInput(buf []byte) error
	Invoke() error
	Output(index int) ([]float32, error)
	Close() error
}
