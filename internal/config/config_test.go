package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videodetect/internal/models"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Model.Path = "model.tflite"
	cfg.LabelsPath = "labels.txt"
	cfg.Source.Path = "videos/rubber.mp4"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, 0.4, cfg.Threshold)
	assert.Equal(t, SourceFile, cfg.Source.Type)
	assert.Equal(t, DecoderOpenCV, cfg.Source.Decoder)
	assert.Equal(t, RuntimeTFLite, cfg.Model.Runtime)
	assert.Equal(t, models.DefaultOutputRoles, cfg.Model.OutputRoles)
	assert.Equal(t, 320, cfg.ScaledWidth)
	assert.Equal(t, 320, cfg.ScaledHeight)
}

func TestLoadConfigFileMissing(t *testing.T) {
	cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"model": {"path": "ssd.tflite", "output_roles": {"boxes": 1, "classes": 3, "scores": 0, "count": 2}},
		"threshold": 0.6,
		"source": {"type": "camera", "device_id": "/dev/video2"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "ssd.tflite", cfg.Model.Path)
	assert.Equal(t, models.OutputRoles{Boxes: 1, Classes: 3, Scores: 0, Count: 2}, cfg.Model.OutputRoles)
	assert.Equal(t, 0.6, cfg.Threshold)
	assert.Equal(t, SourceCamera, cfg.Source.Type)
	assert.Equal(t, "/dev/video2", cfg.Source.DeviceID)
	assert.Equal(t, DecoderOpenCV, cfg.Source.Decoder, "unset fields keep defaults")
	assert.Equal(t, RuntimeTFLite, cfg.Model.Runtime)
}

func TestLoadConfigFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"threshold": "high"}`), 0o644))

	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing model", func(c *Config) { c.Model.Path = "" }},
		{"missing labels", func(c *Config) { c.LabelsPath = "" }},
		{"missing video", func(c *Config) { c.Source.Path = "" }},
		{"threshold below zero", func(c *Config) { c.Threshold = -0.1 }},
		{"threshold above one", func(c *Config) { c.Threshold = 1.5 }},
		{"threshold NaN", func(c *Config) { c.Threshold = math.NaN() }},
		{"zero width", func(c *Config) { c.ScaledWidth = 0 }},
		{"duplicate roles", func(c *Config) { c.Model.OutputRoles.Count = 0 }},
		{"unknown source", func(c *Config) { c.Source.Type = "youtube" }},
		{"unknown decoder", func(c *Config) { c.Source.Decoder = "gstreamer" }},
		{"unknown display", func(c *Config) { c.Display = "tty" }},
		{"unknown runtime", func(c *Config) { c.Model.Runtime = "onnx" }},
		{"remote without addr", func(c *Config) { c.Model.Runtime = RuntimeRemote; c.Model.RemoteAddr = "" }},
	}

	require.NoError(t, validConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidateCameraNeedsNoPath(t *testing.T) {
	cfg := validConfig()
	cfg.Source.Type = SourceCamera
	cfg.Source.Path = ""
	assert.NoError(t, cfg.Validate())
}

func TestValidateRemoteNeedsNoModelPath(t *testing.T) {
	cfg := validConfig()
	cfg.Model.Runtime = RuntimeRemote
	cfg.Model.Path = ""
	assert.NoError(t, cfg.Validate())
}

func TestParseOutputOrder(t *testing.T) {
	roles, err := ParseOutputOrder("1, 3, 0, 2")
	require.NoError(t, err)
	assert.Equal(t, models.OutputRoles{Boxes: 1, Classes: 3, Scores: 0, Count: 2}, roles)

	for _, bad := range []string{"", "0,1,2", "0,1,2,x", "0,0,1,2", "0,1,2,-3"} {
		_, err := ParseOutputOrder(bad)
		assert.ErrorIs(t, err, ErrInvalidConfig, bad)
	}
}
