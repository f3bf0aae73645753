package processing

import (
	"image"

	"github.com/nfnt/resize"

	"videodetect/internal/models"
)

// InputBuffer resizes img to the model input and packs it as interleaved
// RGB bytes, row by row.
func InputBuffer(img image.Image, shape models.Shape) []byte {
	b := img.Bounds()
	if b.Dx() != shape.Width || b.Dy() != shape.Height {
		img = resize.Resize(uint(shape.Width), uint(shape.Height), img, resize.Bilinear)
		b = img.Bounds()
	}

	out := make([]byte, 0, shape.Width*shape.Height*3)

	if rgba, ok := img.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := rgba.PixOffset(b.Min.X, y)
			row := rgba.Pix[i : i+b.Dx()*4]
			for x := 0; x < len(row); x += 4 {
				out = append(out, row[x], row[x+1], row[x+2])
			}
		}
		return out
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			out = append(out, uint8(r>>8), uint8(g>>8), uint8(bl>>8))
		}
	}
	return out
}
