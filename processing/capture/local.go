package capture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sync"
)

const standartFps uint = 30

// LocalFileStreamer decodes a video file through an ffmpeg pipe,
// scaled to the working resolution.
type LocalFileStreamer struct {
	stopOnce sync.Once

	path      string
	targetFPS uint

	s_width  int
	s_height int

	r_width  uint16
	r_height uint16

	cmd    *exec.Cmd
	stdout io.ReadCloser
	frames *rawFrameReader
}

func NewLocalStreamer(path string, targetFPS uint, scaledWidth int, scaledHeight int) (*LocalFileStreamer, error) {
	w, h, err := probeVideoDimensions(path)
	if err != nil {
		return nil, fmt.Errorf("failed to probe video %q: %w", path, err)
	}

	if targetFPS == 0 {
		targetFPS = standartFps
	}

	return &LocalFileStreamer{
		path:      path,
		targetFPS: targetFPS,
		r_width:   w,
		r_height:  h,
		s_width:   scaledWidth,
		s_height:  scaledHeight,
	}, nil
}

// SourceSize is the resolution reported by ffprobe before scaling.
func (ls *LocalFileStreamer) SourceSize() (int, int) {
	return int(ls.r_width), int(ls.r_height)
}

func (ls *LocalFileStreamer) args() []string {
	return []string{
		"-loglevel", "error",
		"-i", ls.path,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d:flags=area", ls.targetFPS, ls.s_width, ls.s_height),
		"-f", "image2pipe",
		"-pix_fmt", "rgba",
		"-vcodec", "rawvideo",
		"-",
	}
}

func (ls *LocalFileStreamer) Start() error {
	ls.cmd = exec.Command("ffmpeg", ls.args()...)

	stdout, err := ls.cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := ls.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	ls.stdout = stdout
	ls.frames = &rawFrameReader{r: stdout, width: ls.s_width, height: ls.s_height}

	return nil
}

func (ls *LocalFileStreamer) Next() (*image.RGBA, error) {
	if ls.frames == nil {
		return nil, errors.New("streamer not started")
	}
	return ls.frames.next()
}

func (ls *LocalFileStreamer) stopCmdOut() {
	if ls.cmd != nil && ls.cmd.Process != nil {
		ls.cmd.Process.Kill()
		ls.cmd.Wait()
	}
}

func (ls *LocalFileStreamer) Stop() {
	ls.stopOnce.Do(func() {
		if ls.stdout != nil {
			ls.stdout.Close()
		}
		ls.stopCmdOut()
	})
}

type probeData struct {
	Streams []struct {
		Width  uint16 `json:"width"`
		Height uint16 `json:"height"`
	} `json:"streams"`
}

func probeVideoDimensions(path string) (uint16, uint16, error) {
	cmd := exec.Command("ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	return parseProbe(output)
}

func parseProbe(output []byte) (uint16, uint16, error) {
	var data probeData
	if err := json.Unmarshal(output, &data); err != nil {
		return 0, 0, err
	}

	if len(data.Streams) == 0 {
		return 0, 0, fmt.Errorf("no video streams found")
	}

	return data.Streams[0].Width, data.Streams[0].Height, nil
}
