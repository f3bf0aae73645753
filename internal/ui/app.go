package ui

import (
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// DetectApp is a fyne window that shows annotated frames.
//
// fyne must own the main goroutine, so Run starts the frame loop on a single
// background goroutine and blocks in the fyne event loop until it returns.
type DetectApp struct {
	fyneApp fyne.App
	mainWin fyne.Window

	videoCanvas  *canvas.Image
	latencyLabel *widget.Label
	fpsLabel     *widget.Label

	quit atomic.Bool
}

func CreateApp(title string, width, height int) *DetectApp {
	a := app.New()
	w := a.NewWindow(title)

	d := &DetectApp{
		fyneApp: a,
		mainWin: w,
	}

	d.videoCanvas = canvas.NewImageFromImage(nil)
	d.videoCanvas.FillMode = canvas.ImageFillContain
	d.videoCanvas.ScaleMode = canvas.ImageScalePixels
	d.videoCanvas.SetMinSize(fyne.NewSize(float32(width), float32(height)))

	d.latencyLabel = widget.NewLabel(formatLatency(0))
	d.fpsLabel = widget.NewLabel(formatFPS(0))

	videoContainer := container.NewBorder(
		container.NewHBox(d.fpsLabel, widget.NewSeparator(), d.latencyLabel, widget.NewSeparator(), widget.NewLabel("q: quit")),
		nil, nil, nil,
		d.videoCanvas,
	)
	w.SetContent(container.NewPadded(videoContainer))

	w.Canvas().SetOnTypedRune(func(r rune) {
		if r == 'q' || r == 'Q' {
			d.quit.Store(true)
		}
	})

	w.SetCloseIntercept(func() {
		d.quit.Store(true)
	})

	return d
}

// Run executes loop off the main goroutine and quits the app once it returns.
func (d *DetectApp) Run(loop func()) {
	go func() {
		loop()
		fyne.Do(d.fyneApp.Quit)
	}()

	d.mainWin.CenterOnScreen()
	d.mainWin.ShowAndRun()
}

func (d *DetectApp) Show(frame image.Image) error {
	fyne.Do(func() {
		d.videoCanvas.Image = frame
		d.videoCanvas.Refresh()
	})
	return nil
}

func (d *DetectApp) QuitRequested() bool {
	return d.quit.Load()
}

func (d *DetectApp) UpdateStats(fps uint, latency time.Duration) {
	fyne.Do(func() {
		d.fpsLabel.SetText(formatFPS(fps))
		d.latencyLabel.SetText(formatLatency(latency))
	})
}

// Close is a no-op; the window goes away when Run's loop returns.
func (d *DetectApp) Close() error {
	return nil
}

func formatFPS(v uint) string {
	return fmt.Sprintf("FPS: %d", v)
}

func formatLatency(v time.Duration) string {
	return fmt.Sprintf("Latency: %d ms", v.Milliseconds())
}
