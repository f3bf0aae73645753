package processing

import (
	"errors"
	"image"
	"io"

	"videodetect/internal/models"
)

type fakeModel struct {
	shape   models.Shape
	outputs [][]float32

	allocErr  error
	invokeErr error

	allocated int
	invoked   int
	lastInput []byte
	closed    bool
}

func newFakeModel(boxes, classes, scores []float32, count float32) *fakeModel {
	return &fakeModel{
		shape:   models.Shape{Height: 4, Width: 4, Channels: 3},
		outputs: [][]float32{boxes, classes, scores, {count}},
	}
}

func (m *fakeModel) Allocate() error {
	m.allocated++
	return m.allocErr
}

func (m *fakeModel) InputShape() models.Shape { return m.shape }

func (m *fakeModel) SetInput(buf []byte) error {
	if len(buf) != m.shape.Size() {
		return errors.New("wrong input size")
	}
	m.lastInput = buf
	return nil
}

func (m *fakeModel) Invoke() error {
	m.invoked++
	return m.invokeErr
}

func (m *fakeModel) Output(index int) ([]float32, error) {
	if index < 0 || index >= len(m.outputs) {
		return nil, errors.New("no such output")
	}
	return m.outputs[index], nil
}

func (m *fakeModel) Close() error {
	m.closed = true
	return nil
}

type fakeSource struct {
	frames  []*image.RGBA
	err     error
	stopped int
}

func (s *fakeSource) Start() error { return nil }

func (s *fakeSource) Next() (*image.RGBA, error) {
	if len(s.frames) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *fakeSource) Stop() { s.stopped++ }

type fakeDisplay struct {
	shown    []*image.RGBA
	quitAt   int
	closed   int
	closeErr error
}

func (d *fakeDisplay) Show(frame image.Image) error {
	d.shown = append(d.shown, frame.(*image.RGBA))
	return nil
}

func (d *fakeDisplay) QuitRequested() bool {
	return d.quitAt > 0 && len(d.shown) >= d.quitAt
}

func (d *fakeDisplay) Close() error {
	d.closed++
	return d.closeErr
}

func solidFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 0xff
	}
	return img
}
