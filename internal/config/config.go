package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"videodetect/internal/models"
)

type SourceType string

const (
	SourceFile   SourceType = "file"
	SourceCamera SourceType = "camera"
)

type Decoder string

const (
	DecoderOpenCV Decoder = "opencv"
	DecoderFFmpeg Decoder = "ffmpeg"
)

type Runtime string

const (
	RuntimeTFLite Runtime = "tflite"
	RuntimeRemote Runtime = "remote"
)

type DisplayType string

const (
	DisplayOpenCV DisplayType = "opencv"
	DisplayFyne   DisplayType = "fyne"
	DisplayNone   DisplayType = "none"
)

const (
	DefaultConfigPath        string  = "config.json"
	DefaultThreshold         float64 = 0.4
	DefaultRemoteAddr        string  = "localhost:8080"
	DefaultWorkingResolution int     = 320
)

var ErrInvalidConfig = errors.New("invalid config")

type SourceConfig struct {
	Type     SourceType `json:"type"`
	Decoder  Decoder    `json:"decoder"`
	Path     string     `json:"path"`
	DeviceID string     `json:"device_id"`
	FPS      uint       `json:"fps"`
}

type ModelConfig struct {
	Path        string             `json:"path"`
	Runtime     Runtime            `json:"runtime"`
	Threads     int                `json:"threads"`
	RemoteAddr  string             `json:"remote_addr"`
	TimeoutMS   int                `json:"timeout_ms"`
	OutputRoles models.OutputRoles `json:"output_roles"`
}

type Config struct {
	Model      ModelConfig  `json:"model"`
	LabelsPath string       `json:"labels_path"`
	Threshold  float64      `json:"threshold"`
	Source     SourceConfig `json:"source"`

	ScaledWidth  int `json:"scaled_width"`
	ScaledHeight int `json:"scaled_height"`

	Display DisplayType `json:"display"`
	Debug   bool        `json:"debug"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Runtime:     RuntimeTFLite,
			RemoteAddr:  DefaultRemoteAddr,
			TimeoutMS:   5000,
			OutputRoles: models.DefaultOutputRoles,
		},
		Threshold: DefaultThreshold,
		Source: SourceConfig{
			Type:     SourceFile,
			Decoder:  DecoderOpenCV,
			DeviceID: "0",
			FPS:      30,
		},
		ScaledWidth:  DefaultWorkingResolution,
		ScaledHeight: DefaultWorkingResolution,
		Display:      DisplayOpenCV,
	}
}

// LoadConfigFile returns the defaults overlaid with the file at path.
// A missing file is not an error.
func LoadConfigFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config %q: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Model.Runtime == RuntimeTFLite && c.Model.Path == "" {
		return invalid("model path is required")
	}
	if c.Model.Runtime != RuntimeTFLite && c.Model.Runtime != RuntimeRemote {
		return invalid("unknown runtime %q", c.Model.Runtime)
	}
	if c.Model.Runtime == RuntimeRemote && c.Model.RemoteAddr == "" {
		return invalid("remote address is required for the remote runtime")
	}
	if c.LabelsPath == "" {
		return invalid("labels path is required")
	}
	if !(c.Threshold >= 0 && c.Threshold <= 1) {
		return invalid("threshold %v is outside [0, 1]", c.Threshold)
	}
	if c.ScaledWidth <= 0 || c.ScaledHeight <= 0 {
		return invalid("working resolution %dx%d must be positive", c.ScaledWidth, c.ScaledHeight)
	}
	if err := validateRoles(c.Model.OutputRoles); err != nil {
		return err
	}

	switch c.Source.Type {
	case SourceFile:
		if c.Source.Path == "" {
			return invalid("video path is required for the file source")
		}
	case SourceCamera:
		if c.Source.DeviceID == "" {
			return invalid("camera device is required for the camera source")
		}
	default:
		return invalid("unknown source %q", c.Source.Type)
	}

	switch c.Source.Decoder {
	case DecoderOpenCV, DecoderFFmpeg:
	default:
		return invalid("unknown decoder %q", c.Source.Decoder)
	}

	switch c.Display {
	case DisplayOpenCV, DisplayFyne, DisplayNone:
	default:
		return invalid("unknown display %q", c.Display)
	}

	return nil
}

// ParseOutputOrder reads "boxes,classes,scores,count" tensor indices, e.g. "0,1,2,3".
func ParseOutputOrder(s string) (models.OutputRoles, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return models.OutputRoles{}, invalid("output order %q needs four indices", s)
	}

	var idx [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return models.OutputRoles{}, invalid("output order %q: %v", s, err)
		}
		idx[i] = n
	}

	roles := models.OutputRoles{Boxes: idx[0], Classes: idx[1], Scores: idx[2], Count: idx[3]}
	if err := validateRoles(roles); err != nil {
		return models.OutputRoles{}, err
	}
	return roles, nil
}

func validateRoles(r models.OutputRoles) error {
	seen := make(map[int]bool, 4)
	for _, i := range r.Indices() {
		if i < 0 {
			return invalid("output index %d is negative", i)
		}
		if seen[i] {
			return invalid("output index %d is used twice", i)
		}
		seen[i] = true
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
