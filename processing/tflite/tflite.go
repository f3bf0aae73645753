// Package tflite runs compiled TensorFlow Lite detection models.
package tflite

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/mattn/go-tflite"

	"videodetect/internal/models"
)

type Options struct {
	// NumThreads defaults to runtime.NumCPU when zero.
	NumThreads int
	Logger     *slog.Logger
}

// Model is a TFLite interpreter for a single-input detection model.
type Model struct {
	path        string
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	allocated   bool
}

func Load(path string, opts Options) (*Model, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open model %q: %w", path, err)
	}

	model := tflite.NewModelFromFile(path)
	if model == nil {
		return nil, fmt.Errorf("load model %q: cannot read flatbuffer", path)
	}

	numThreads := opts.NumThreads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	options := tflite.NewInterpreterOptions()
	if options == nil {
		model.Delete()
		return nil, errors.New("interpreter options failed to be created")
	}
	options.SetNumThread(numThreads)

	logger := opts.Logger
	if logger != nil {
		options.SetErrorReporter(func(msg string, _ interface{}) {
			logger.Error("tflite", "msg", msg)
		}, nil)
	}

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		options.Delete()
		model.Delete()
		return nil, fmt.Errorf("create interpreter for %q", path)
	}

	return &Model{path: path, model: model, options: options, interpreter: interpreter}, nil
}

func (m *Model) Allocate() error {
	if status := m.interpreter.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("allocate tensors: status %v", status)
	}
	if n := m.interpreter.GetInputTensorCount(); n != 1 {
		return fmt.Errorf("model %q has %d inputs, want 1", m.path, n)
	}
	m.allocated = true
	return nil
}

// InputShape reads the NHWC input tensor dimensions.
func (m *Model) InputShape() models.Shape {
	input := m.interpreter.GetInputTensor(0)
	if input == nil || input.NumDims() != 4 {
		return models.Shape{}
	}
	return models.Shape{
		Height:   input.Dim(1),
		Width:    input.Dim(2),
		Channels: input.Dim(3),
	}
}

// SetInput copies RGB bytes into the input tensor. Float inputs are
// normalised to [-1, 1].
func (m *Model) SetInput(buf []byte) error {
	if !m.allocated {
		return errors.New("tensors not allocated")
	}

	input := m.interpreter.GetInputTensor(0)

	var status tflite.Status
	switch input.Type() {
	case tflite.UInt8:
		status = input.CopyFromBuffer(buf)
	case tflite.Float32:
		f := make([]float32, len(buf))
		for i, b := range buf {
			f[i] = (float32(b) - 127.5) / 127.5
		}
		status = input.CopyFromBuffer(f)
	default:
		return fmt.Errorf("unsupported input tensor type %v", input.Type())
	}

	if status != tflite.OK {
		return fmt.Errorf("copying to buffer failed: status %v", status)
	}
	return nil
}

func (m *Model) Invoke() error {
	if status := m.interpreter.Invoke(); status != tflite.OK {
		return fmt.Errorf("invoke failed: status %v", status)
	}
	return nil
}

// Output copies output tensor index as float32, dequantizing uint8 tensors.
func (m *Model) Output(index int) ([]float32, error) {
	if index < 0 || index >= m.interpreter.GetOutputTensorCount() {
		return nil, fmt.Errorf("output %d of %d", index, m.interpreter.GetOutputTensorCount())
	}

	t := m.interpreter.GetOutputTensor(index)
	switch t.Type() {
	case tflite.Float32:
		return append([]float32(nil), t.Float32s()...), nil
	case tflite.UInt8:
		q := t.QuantizationParams()
		raw := t.UInt8s()
		out := make([]float32, len(raw))
		for i, v := range raw {
			out[i] = float32(q.Scale) * float32(int(v)-q.ZeroPoint)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported output tensor type %v", t.Type())
	}
}

func (m *Model) Close() error {
	m.interpreter.Delete()
	m.options.Delete()
	m.model.Delete()
	return nil
}
