package analytics

import (
	"context"
	"fmt"

	"HKPulse/internal/domain/models"
	domsvc "HKPulse/internal/domain/service"
	"HKPulse/pkg/config"
)

// HTTPNarrator asks the external text service for a plain-language
// explanation of a finished report. Narration is best-effort; callers
// treat an error as "no narrative", never as a failed analysis.
type HTTPNarrator struct{ base *HTTPServiceBase }

func NewHTTPNarrator(cfg *config.Config) *HTTPNarrator {
	return &HTTPNarrator{base: NewHTTPServiceBase(cfg)}
}

type narrateResp struct {
	Narrative string `json:"narrative"`
}

func (s *HTTPNarrator) Narrate(ctx context.Context, report *models.StockReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("narrate: nil report")
	}
	var nr narrateResp
	if err := s.base.PostJSON(ctx, "/narrate", report, &nr); err != nil {
		return "", fmt.Errorf("narrate %s: %w", report.Symbol, err)
	}
	return nr.Narrative, nil
}

var _ domsvc.Narrator = (*HTTPNarrator)(nil)
