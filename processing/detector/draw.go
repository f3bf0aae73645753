package processing

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"videodetect/internal/models"
)

const (
	boxThickness = 2
	labelSize    = 11
)

var (
	boxColor   = color.RGBA{255, 255, 0, 255}
	labelColor = color.RGBA{255, 255, 0, 255}
)

var labelFace font.Face

func init() {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
	labelFace = truetype.NewFace(f, &truetype.Options{Size: labelSize})
}

func drawRect(img *image.RGBA, y1, x1, y2, x2 int, col color.Color) {
	bounds := img.Bounds()

	setPixel := func(x, y int) {
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			img.Set(x, y, col)
		}
	}

	for t := 0; t < boxThickness; t++ {
		for x := x1; x <= x2; x++ {
			setPixel(x, y1+t)
			setPixel(x, y2-t)
		}
		for y := y1; y <= y2; y++ {
			setPixel(x1+t, y)
			setPixel(x2-t, y)
		}
	}
}

// annotate draws the box and its caption, two lines of label and score,
// inside the top-left corner of the box.
func annotate(img *image.RGBA, box models.Box, label string, score float32) {
	drawRect(img, box.Y1, box.X1, box.Y2, box.X2, boxColor)

	dc := gg.NewContextForRGBA(img)
	dc.SetFontFace(labelFace)
	dc.SetColor(labelColor)
	x := float64(box.X1 + boxThickness + 2)
	y := float64(box.Y1+boxThickness) + labelSize
	dc.DrawString(label, x, y)
	dc.DrawString(fmt.Sprintf("%.2f", score), x, y+labelSize+2)
}

func drawLatency(img *image.RGBA, ms float64) {
	dc := gg.NewContextForRGBA(img)
	dc.SetFontFace(labelFace)
	dc.SetColor(labelColor)
	dc.DrawString(fmt.Sprintf("%.1fms", ms), 5, labelSize)
}
