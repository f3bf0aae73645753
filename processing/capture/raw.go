package capture

import (
	"errors"
	"fmt"
	"image"
	"io"
)

const bytesPerPixel = 4

// rawFrameReader cuts an rgba rawvideo byte stream into frames.
type rawFrameReader struct {
	r      io.Reader
	width  int
	height int
}

func (fr *rawFrameReader) frameSize() int {
	return fr.width * fr.height * bytesPerPixel
}

// next reads exactly one frame. A clean or truncated end of the stream
// is reported as io.EOF.
func (fr *rawFrameReader) next() (*image.RGBA, error) {
	pixelData := make([]byte, fr.frameSize())

	_, err := io.ReadFull(fr.r, pixelData)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	return &image.RGBA{
		Pix:    pixelData,
		Stride: fr.width * bytesPerPixel,
		Rect:   image.Rect(0, 0, fr.width, fr.height),
	}, nil
}
