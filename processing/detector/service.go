package processing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"videodetect/internal/models"
)

// RemoteModel runs inference on a detection server over a websocket.
//
// After the handshake the server sends a hello with the model input shape.
// Each Invoke sends the input frame as one JPEG binary message and blocks for
// one JSON reply holding the output tensors in the model's own order.
type RemoteModel struct {
	serverURL string
	timeout   time.Duration
	logger    *slog.Logger

	conn    *websocket.Conn
	shape   models.Shape
	input   []byte
	outputs [][]float32
}

type helloMessage struct {
	InputShape models.Shape `json:"input_shape"`
}

type inferReply struct {
	Outputs [][]float32 `json:"outputs"`
	Error   string      `json:"error,omitempty"`
}

func NewRemoteModel(host string, timeout time.Duration, logger *slog.Logger) *RemoteModel {
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &RemoteModel{
		serverURL: u.String(),
		timeout:   timeout,
		logger:    logger,
	}
}

func (m *RemoteModel) Allocate() error {
	m.logger.Info("connecting to detector server", "url", m.serverURL)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = m.timeout

	conn, _, err := dialer.Dial(m.serverURL, nil)
	if err != nil {
		return fmt.Errorf("%w: connect %s: %w", ErrRemote, m.serverURL, err)
	}

	var hello helloMessage
	if err := m.readJSON(conn, &hello); err != nil {
		conn.Close()
		return fmt.Errorf("%w: hello: %w", ErrRemote, err)
	}
	if hello.InputShape.Size() <= 0 {
		conn.Close()
		return fmt.Errorf("%w: hello carries no input shape", ErrRemote)
	}

	m.conn = conn
	m.shape = hello.InputShape
	m.logger.Info("connected to detection server", "input_shape", m.shape.String())

	return nil
}

func (m *RemoteModel) InputShape() models.Shape {
	return m.shape
}

func (m *RemoteModel) SetInput(buf []byte) error {
	if m.conn == nil {
		return ErrNotStarted
	}
	if len(buf) != m.shape.Size() {
		return fmt.Errorf("input is %d bytes, model wants %d", len(buf), m.shape.Size())
	}
	m.input = buf
	return nil
}

func (m *RemoteModel) Invoke() error {
	if m.conn == nil {
		return ErrNotStarted
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgbImage(m.input, m.shape), nil); err != nil {
		return fmt.Errorf("JPEG encode error: %w", err)
	}

	if m.timeout > 0 {
		m.conn.SetWriteDeadline(time.Now().Add(m.timeout))
	}
	if err := m.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: send frame: %w", ErrRemote, err)
	}

	var reply inferReply
	if err := m.readJSON(m.conn, &reply); err != nil {
		return fmt.Errorf("%w: read reply: %w", ErrRemote, err)
	}
	if reply.Error != "" {
		return fmt.Errorf("%w: server: %s", ErrRemote, reply.Error)
	}

	m.outputs = reply.Outputs
	return nil
}

func (m *RemoteModel) Output(index int) ([]float32, error) {
	if index < 0 || index >= len(m.outputs) {
		return nil, fmt.Errorf("%w: output %d of %d", ErrBadOutput, index, len(m.outputs))
	}
	return m.outputs[index], nil
}

func (m *RemoteModel) Close() error {
	if m.conn == nil {
		return nil
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	m.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	err := m.conn.Close()
	m.conn = nil
	return err
}

func (m *RemoteModel) readJSON(conn *websocket.Conn, v any) error {
	if m.timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(m.timeout))
	}

	_, message, err := conn.ReadMessage()
	if err != nil {
		return err
	}

	return json.Unmarshal(message, v)
}

// rgbImage wraps packed RGB bytes as an opaque RGBA image.
func rgbImage(buf []byte, shape models.Shape) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, shape.Width, shape.Height))
	for i, j := 0, 0; i+2 < len(buf) && j+3 < len(img.Pix); i, j = i+3, j+4 {
		img.Pix[j] = buf[i]
		img.Pix[j+1] = buf[i+1]
		img.Pix[j+2] = buf[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}
