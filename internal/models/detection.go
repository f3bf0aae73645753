package models

import "fmt"

// Detection is one object reported by the model for a single frame.
// Box holds relative coordinates in the order ymin, xmin, ymax, xmax.
type Detection struct {
	Box     [4]float32 `json:"box"`
	ClassID int        `json:"class_id"`
	Score   float32    `json:"score"`
}

type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// PixelBox scales the relative box to a frame of the given size.
func (d Detection) PixelBox(width, height int) Box {
	w := float32(width)
	h := float32(height)

	return Box{
		Y1: int(d.Box[0] * h),
		X1: int(d.Box[1] * w),
		Y2: int(d.Box[2] * h),
		X2: int(d.Box[3] * w),
	}
}

// Shape is the input tensor geometry of a model.
type Shape struct {
	Height   int `json:"height"`
	Width    int `json:"width"`
	Channels int `json:"channels"`
}

func (s Shape) Size() int {
	return s.Height * s.Width * s.Channels
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Height, s.Width, s.Channels)
}

// OutputRoles maps each semantic output to the model's output tensor index.
// The ordering is a property of the model file, not of detection models in general.
type OutputRoles struct {
	Boxes   int `json:"boxes"`
	Classes int `json:"classes"`
	Scores  int `json:"scores"`
	Count   int `json:"count"`
}

var DefaultOutputRoles = OutputRoles{Boxes: 0, Classes: 1, Scores: 2, Count: 3}

func (r OutputRoles) Indices() [4]int {
	return [4]int{r.Boxes, r.Classes, r.Scores, r.Count}
}
