package intelligence

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/llm"
)

// MaxImageBytes bounds the selfie accepted for analysis.
const MaxImageBytes = 8 << 20

// maxConditions is how many findings an analysis keeps.
const maxConditions = 5

// ErrInvalidImage is returned for empty, oversized or non-image input.
var ErrInvalidImage = errors.New("invalid image")

// AnalysisService grades a selfie through the vision model.
type AnalysisService interface {
	Analyze(ctx context.Context, image []byte) (*domain.SkinAnalysis, error)
}

type analysisService struct {
	gateway llm.Gateway
	now     func() time.Time
}

// NewAnalysisService creates an AnalysisService. now stamps AnalyzedAt and
// defaults to time.Now.
func NewAnalysisService(gateway llm.Gateway, now func() time.Time) AnalysisService {
	if now == nil {
		now = time.Now
	}
	return &analysisService{gateway: gateway, now: now}
}

func (s *analysisService) Analyze(ctx context.Context, image []byte) (*domain.SkinAnalysis, error) {
	if err := checkImage(image); err != nil {
		return nil, err
	}

	resp, err := s.gateway.Complete(ctx, llm.CompletionRequest{
		Task: llm.TaskAnalysis,
		Messages: []llm.Message{
			llm.TextMessage(llm.RoleSystem, analysisSystemPrompt),
			llm.ImageMessage(analysisUserPrompt, image),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("llm analysis failed: %w", err)
	}

	a, err := llm.ExtractJSON[domain.SkinAnalysis](resp.Text, validateAnalysis)
	if err != nil {
		return nil, fmt.Errorf("parsing analysis: %w", err)
	}
	normalizeAnalysis(&a)
	a.AnalyzedAt = s.now().UTC()
	return &a, nil
}

func checkImage(image []byte) error {
	if len(image) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidImage)
	}
	if len(image) > MaxImageBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidImage, len(image), MaxImageBytes)
	}
	if ct := http.DetectContentType(image); !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: content type %s", ErrInvalidImage, ct)
	}
	return nil
}

// validateAnalysis is a schema validator for ExtractJSON.
func validateAnalysis(a domain.SkinAnalysis) error {
	if a.SkinAge <= 0 || a.SkinAge > 120 {
		return fmt.Errorf("skinAge must be in (0,120], got %d", a.SkinAge)
	}
	if a.SkinHealthScore < 0 || a.SkinHealthScore > 100 {
		return fmt.Errorf("skinHealthScore out of range: %f", a.SkinHealthScore)
	}
	return nil
}

// normalizeAnalysis maps percentage scores onto [0,1], drops unnamed
// conditions and keeps the first maxConditions.
func normalizeAnalysis(a *domain.SkinAnalysis) {
	if a.SkinHealthScore > 1 {
		a.SkinHealthScore /= 100
	}
	a.SkinType = strings.ToLower(strings.TrimSpace(a.SkinType))
	a.Summary = strings.TrimSpace(a.Summary)

	kept := a.Conditions[:0]
	for _, c := range a.Conditions {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		c.Severity = strings.ToLower(strings.TrimSpace(c.Severity))
		kept = append(kept, c)
	}
	if len(kept) > maxConditions {
		kept = kept[:maxConditions]
	}
	a.Conditions = kept
}
