package probe

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"tollgate-service/internal/domain/toll"
	"tollgate-service/internal/framesource"
)

type HTTPConfig struct {
	EyeEndpoint   string
	PlateEndpoint string
	Timeout       time.Duration
}

type frameRequest struct {
	FrameIndex  int    `json:"frame_index"`
	ImageBase64 string `json:"image_base64"`
}

type eyeResponse struct {
	FaceDetected bool   `json:"face_detected"`
	EyeState     string `json:"eye_state"`
}

type plateResponse struct {
	Results []struct {
		Plate      string  `json:"plate"`
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

// HTTPEyeProbe posts base64 frames to an eye-state inference endpoint.
type HTTPEyeProbe struct {
	client   *resty.Client
	endpoint string
}

func NewHTTPEyeProbe(cfg HTTPConfig) *HTTPEyeProbe {
	return &HTTPEyeProbe{
		client:   resty.New().SetTimeout(cfg.Timeout),
		endpoint: cfg.EyeEndpoint,
	}
}

func (p *HTTPEyeProbe) Probe(ctx context.Context, frame framesource.Frame) (toll.EyeState, error) {
	var result eyeResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(frameRequest{
			FrameIndex:  frame.Index,
			ImageBase64: base64.StdEncoding.EncodeToString(frame.Data),
		}).
		SetResult(&result).
		Post(p.endpoint)
	if err != nil {
		return toll.EyeUnknown, fmt.Errorf("eye probe request: %w", err)
	}
	if resp.IsError() {
		return toll.EyeUnknown, fmt.Errorf("eye probe returned %s", resp.Status())
	}
	if !result.FaceDetected {
		return toll.EyeUnknown, nil
	}
	switch result.EyeState {
	case "closed":
		return toll.EyeClosed, nil
	case "open":
		return toll.EyeOpen, nil
	default:
		return toll.EyeUnknown, nil
	}
}

// HTTPPlateReader posts base64 frames to an OCR endpoint shaped like the
// common ALPR services: a results list of plate text plus confidence.
type HTTPPlateReader struct {
	client   *resty.Client
	endpoint string
}

func NewHTTPPlateReader(cfg HTTPConfig) *HTTPPlateReader {
	return &HTTPPlateReader{
		client:   resty.New().SetTimeout(cfg.Timeout),
		endpoint: cfg.PlateEndpoint,
	}
}

func (r *HTTPPlateReader) Read(ctx context.Context, frame framesource.Frame) ([]toll.PlateCandidate, error) {
	var result plateResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(frameRequest{
			FrameIndex:  frame.Index,
			ImageBase64: base64.StdEncoding.EncodeToString(frame.Data),
		}).
		SetResult(&result).
		Post(r.endpoint)
	if err != nil {
		return nil, fmt.Errorf("plate reader request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("plate reader returned %s", resp.Status())
	}

	candidates := make([]toll.PlateCandidate, 0, len(result.Results))
	for _, res := range result.Results {
		candidates = append(candidates, toll.PlateCandidate{
			RawText:    res.Plate,
			Confidence: res.Confidence,
		})
	}
	return candidates, nil
}
