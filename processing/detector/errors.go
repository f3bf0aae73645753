package processing

import "errors"

var (
	ErrInference  = errors.New("inference failed")
	ErrBadOutput  = errors.New("unexpected model output")
	ErrRemote     = errors.New("remote runtime error")
	ErrNotStarted = errors.New("model not allocated")
)
