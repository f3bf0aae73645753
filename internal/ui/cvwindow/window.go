// Package cvwindow shows frames in an OpenCV HighGUI window.
package cvwindow

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

const quitKey = 'q'

type Window struct {
	win *gocv.Window
}

func New(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

func (w *Window) Show(frame image.Image) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	w.win.IMShow(mat)
	return nil
}

// QuitRequested pumps the HighGUI event loop for 1ms and reports a 'q' press.
func (w *Window) QuitRequested() bool {
	return w.win.WaitKey(1)&0xFF == quitKey
}

func (w *Window) Close() error {
	return w.win.Close()
}
