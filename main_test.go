package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"videodetect/internal/config"
	"videodetect/internal/models"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// parseArgs runs the CLI flag set through loadConfig without starting a run.
func parseArgs(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	var (
		cfg     *config.Config
		loadErr error
	)
	a := &cli.App{
		Name:  app.Name,
		Flags: app.Flags,
		Action: func(c *cli.Context) error {
			cfg, loadErr = loadConfig(c)
			return nil
		},
	}
	require.NoError(t, a.Run(append([]string{"videodetect"}, args...)))

	return cfg, loadErr
}

func TestLoadConfigFlagsOnly(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.json")

	cfg, err := parseArgs(t, "--config", missing, "--model", "ssd.tflite", "--labels", "coco.txt", "--video", "clip.mp4")
	require.NoError(t, err)

	assert.Equal(t, "ssd.tflite", cfg.Model.Path)
	assert.Equal(t, "coco.txt", cfg.LabelsPath)
	assert.Equal(t, "clip.mp4", cfg.Source.Path)
	assert.Equal(t, config.DefaultThreshold, cfg.Threshold)
	assert.Equal(t, models.DefaultOutputRoles, cfg.Model.OutputRoles)
	assert.Equal(t, config.DefaultWorkingResolution, cfg.ScaledWidth)
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `{
		"model": {"path": "file.tflite", "output_roles": {"boxes": 1, "classes": 3, "scores": 0, "count": 2}},
		"labels_path": "file-labels.txt",
		"threshold": 0.6,
		"source": {"path": "file.mp4"},
		"scaled_width": 300
	}`)

	cfg, err := parseArgs(t, "--config", path, "--model", "flag.tflite", "--threshold", "0.25")
	require.NoError(t, err)

	assert.Equal(t, "flag.tflite", cfg.Model.Path, "set flag beats the file")
	assert.Equal(t, 0.25, cfg.Threshold, "set flag beats the file")
	assert.Equal(t, "file-labels.txt", cfg.LabelsPath, "unset flag keeps the file value")
	assert.Equal(t, "file.mp4", cfg.Source.Path)
	assert.Equal(t, 300, cfg.ScaledWidth, "flag default does not override the file")
	assert.Equal(t, config.DefaultWorkingResolution, cfg.ScaledHeight, "absent from both keeps the default")
	assert.Equal(t, models.OutputRoles{Boxes: 1, Classes: 3, Scores: 0, Count: 2}, cfg.Model.OutputRoles)
}

func TestLoadConfigOutputOrderFlag(t *testing.T) {
	path := writeConfig(t, `{"model": {"path": "m.tflite"}, "labels_path": "l.txt", "source": {"path": "v.mp4"}}`)

	cfg, err := parseArgs(t, "--config", path, "--output-order", "1, 0, 3, 2")
	require.NoError(t, err)
	assert.Equal(t, models.OutputRoles{Boxes: 1, Classes: 0, Scores: 3, Count: 2}, cfg.Model.OutputRoles)
}

func TestLoadConfigRejects(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.json")
	base := []string{"--config", missing}

	tests := []struct {
		name string
		args []string
	}{
		{"missing model", []string{"--labels", "l.txt", "--video", "v.mp4"}},
		{"missing labels", []string{"--model", "m.tflite", "--video", "v.mp4"}},
		{"missing video", []string{"--model", "m.tflite", "--labels", "l.txt"}},
		{"bad output order", []string{"--model", "m.tflite", "--labels", "l.txt", "--video", "v.mp4", "--output-order", "0,1,2"}},
		{"duplicate output order", []string{"--model", "m.tflite", "--labels", "l.txt", "--video", "v.mp4", "--output-order", "0,1,1,2"}},
		{"threshold out of range", []string{"--model", "m.tflite", "--labels", "l.txt", "--video", "v.mp4", "--threshold", "2"}},
		{"threshold NaN", []string{"--model", "m.tflite", "--labels", "l.txt", "--video", "v.mp4", "--threshold", "NaN"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(t, append(base, tt.args...)...)
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestRunShowsHelpOnInvalidConfig(t *testing.T) {
	var out bytes.Buffer
	a := &cli.App{
		Name:   app.Name,
		Usage:  app.Usage,
		Flags:  app.Flags,
		Action: runAction,
		Writer: &out,
	}

	err := a.Run([]string{"videodetect", "--config", filepath.Join(t.TempDir(), "config.json"), "--labels", "l.txt"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, out.String(), "--model")
}
