package framesource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

type CameraConfig struct {
	Index  int
	Width  int
	Height int
	// ReadRetries bounds transient read failures before the source gives
	// up; retries are reported, never silent.
	ReadRetries int
}

// CameraSource captures live frames via OpenCV. The device is opened once at
// lane startup and released exactly once, on any exit path.
type CameraSource struct {
	cfg       CameraConfig
	capture   *gocv.VideoCapture
	mat       gocv.Mat
	index     int
	closeOnce sync.Once
	closeErr  error
}

func OpenCamera(cfg CameraConfig) (*CameraSource, error) {
	capture, err := gocv.OpenVideoCapture(cfg.Index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Index, err)
	}
	if cfg.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	return &CameraSource{
		cfg:     cfg,
		capture: capture,
		mat:     gocv.NewMat(),
	}, nil
}

func (s *CameraSource) Next(ctx context.Context) (Frame, error) {
	retries := s.cfg.ReadRetries
	if retries < 0 {
		retries = 0
	}
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}
		if ok := s.capture.Read(&s.mat); ok && !s.mat.Empty() {
			break
		}
		if attempt >= retries {
			return Frame{}, fmt.Errorf("camera %d read failed after %d attempts", s.cfg.Index, attempt+1)
		}
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, s.mat)
	if err != nil {
		return Frame{}, fmt.Errorf("encode camera frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	frame := Frame{
		Index:     s.index,
		Timestamp: time.Now(),
		Data:      data,
	}
	s.index++
	return frame, nil
}

func (s *CameraSource) Close() error {
	s.closeOnce.Do(func() {
		_ = s.mat.Close()
		s.closeErr = s.capture.Close()
	})
	return s.closeErr
}
