package probe

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"tollgate-service/internal/domain/toll"
	"tollgate-service/internal/framesource"
)

var filenamePlatePattern = regexp.MustCompile(`^[A-Z0-9]{6,10}$`)

// FilenamePlateReader serves batch evaluation runs: a file whose stem looks
// like a plate string yields that plate as a high-confidence candidate. Live
// frames carry no path and produce no candidates.
type FilenamePlateReader struct{}

func (FilenamePlateReader) Read(_ context.Context, frame framesource.Frame) ([]toll.PlateCandidate, error) {
	if frame.Path == "" {
		return nil, nil
	}
	stem := strings.ToUpper(strings.TrimSuffix(filepath.Base(frame.Path), filepath.Ext(frame.Path)))
	if !filenamePlatePattern.MatchString(stem) {
		return nil, nil
	}
	return []toll.PlateCandidate{{RawText: stem, Confidence: 0.9}}, nil
}
