// Package cvcapture reads frames through OpenCV's VideoCapture.
package cvcapture

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"sync"

	"gocv.io/x/gocv"
)

// Source is an OpenCV backed capture.FrameSource for files and camera devices.
type Source struct {
	stopOnce sync.Once

	open  func() (*gocv.VideoCapture, error)
	name  string
	video *gocv.VideoCapture
	mat   gocv.Mat
}

func NewFileSource(path string) *Source {
	return &Source{
		name: path,
		open: func() (*gocv.VideoCapture, error) { return gocv.VideoCaptureFile(path) },
	}
}

// NewCameraSource opens a device by index ("0") or by path ("/dev/video0").
func NewCameraSource(device string) *Source {
	return &Source{
		name: device,
		open: func() (*gocv.VideoCapture, error) { return gocv.OpenVideoCapture(device) },
	}
}

func (s *Source) Start() error {
	video, err := s.open()
	if err != nil {
		return fmt.Errorf("open video capture %q: %w", s.name, err)
	}
	if !video.IsOpened() {
		video.Close()
		return fmt.Errorf("open video capture %q: not opened", s.name)
	}

	s.video = video
	s.mat = gocv.NewMat()
	return nil
}

// Next returns io.EOF when OpenCV stops delivering frames. OpenCV does not
// tell a broken stream from a finished one.
func (s *Source) Next() (*image.RGBA, error) {
	if s.video == nil {
		return nil, fmt.Errorf("video capture %q not started", s.name)
	}

	if ok := s.video.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, io.EOF
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

func (s *Source) Stop() {
	s.stopOnce.Do(func() {
		if s.video != nil {
			s.video.Close()
			s.mat.Close()
		}
	})
}
