package capture

import (
	"image"
)

// FrameSource produces decoded frames one at a time.
// Next returns io.EOF once the stream is exhausted.
type FrameSource interface {
	Start() error
	Next() (*image.RGBA, error)
	Stop()
}
