package processing

import (
	"fmt"
	"image"
	"time"

	"videodetect/internal/models"
)

type Detector struct {
	model Model
	roles models.OutputRoles
	shape models.Shape
}

// NewDetector allocates the model and caches its input shape.
func NewDetector(model Model, roles models.OutputRoles) (*Detector, error) {
	if err := model.Allocate(); err != nil {
		return nil, fmt.Errorf("allocate model: %w", err)
	}

	shape := model.InputShape()
	if shape.Height <= 0 || shape.Width <= 0 || shape.Channels != 3 {
		return nil, fmt.Errorf("%w: input shape %s, want HxWx3", ErrBadOutput, shape)
	}

	return &Detector{model: model, roles: roles, shape: shape}, nil
}

func (d *Detector) InputShape() models.Shape {
	return d.shape
}

// Detect runs one inference on an input already packed to InputShape and
// returns, in model order, every detection scoring at least threshold.
func (d *Detector) Detect(input []byte, threshold float32) ([]models.Detection, error) {
	if err := d.model.SetInput(input); err != nil {
		return nil, fmt.Errorf("%w: set input: %w", ErrInference, err)
	}
	if err := d.model.Invoke(); err != nil {
		return nil, fmt.Errorf("%w: invoke: %w", ErrInference, err)
	}

	var out [4][]float32
	for i, idx := range d.roles.Indices() {
		t, err := d.model.Output(idx)
		if err != nil {
			return nil, fmt.Errorf("%w: output %d: %w", ErrInference, idx, err)
		}
		out[i] = t
	}

	return decode(out[0], out[1], out[2], out[3], threshold)
}

// DetectFrame packs img into the model input and runs Detect. The returned
// duration covers the inference call only.
func (d *Detector) DetectFrame(img image.Image, threshold float32) ([]models.Detection, time.Duration, error) {
	input := InputBuffer(img, d.shape)

	start := time.Now()
	results, err := d.Detect(input, threshold)
	return results, time.Since(start), err
}

func decode(boxes, classes, scores, count []float32, threshold float32) ([]models.Detection, error) {
	if len(count) == 0 {
		return nil, fmt.Errorf("%w: empty count tensor", ErrBadOutput)
	}

	n := int(count[0])
	n = min(n, len(scores), len(classes), len(boxes)/4)
	if n < 0 {
		n = 0
	}

	var results []models.Detection
	for i := 0; i < n; i++ {
		if scores[i] < threshold {
			continue
		}
		results = append(results, models.Detection{
			Box:     [4]float32{boxes[4*i], boxes[4*i+1], boxes[4*i+2], boxes[4*i+3]},
			ClassID: int(classes[i]),
			Score:   scores[i],
		})
	}

	return results, nil
}
