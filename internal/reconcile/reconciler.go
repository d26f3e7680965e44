// Package reconcile turns free-form language-model replies into validated
// routines. Decoding runs through an ordered list of strategies, from a
// direct typed decode down to scraping bullet points, and the first one that
// yields a routine wins.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/dermaloop/internal/domain"
	"github.com/alexanderramin/dermaloop/internal/llm"
	"go.uber.org/zap"
)

// Tier names the strategy that produced a routine.
type Tier string

const (
	TierDirect      Tier = "direct"
	TierRepaired    Tier = "repaired"
	TierSanitized   Tier = "sanitized"
	TierStrictRetry Tier = "strict_retry"
	TierFirstObject Tier = "first_object"
	TierNameList    Tier = "name_list"
	TierPlainText   Tier = "plain_text"
)

// RetryFunc asks the model again with a stricter JSON-only instruction and
// returns the new raw reply.
type RetryFunc func(ctx context.Context) (string, error)

// Strategy is one tier of the fallback chain.
type Strategy struct {
	Tier   Tier
	Decode func(ctx context.Context, raw string) (*domain.Routine, error)
}

// Reconciler runs the fallback chain and logs which tier succeeded.
type Reconciler struct {
	log *zap.Logger
}

// New creates a Reconciler. A nil logger discards output.
func New(log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{log: log.Named("reconcile")}
}

// ReconcileRoutine converts raw model text into a routine without the
// network-backed retry tier.
func ReconcileRoutine(raw string) (*domain.Routine, error) {
	r, _, err := New(nil).Reconcile(context.Background(), raw, nil)
	return r, err
}

// Reconcile tries every strategy in order. retry may be nil, in which case
// the strict re-ask tier is skipped. When all tiers fail the error is a
// *domain.DecodingFailure carrying the last raw text seen.
func (r *Reconciler) Reconcile(ctx context.Context, raw string, retry RetryFunc) (*domain.Routine, Tier, error) {
	lastRaw := raw
	strategies := r.Strategies(retry, &lastRaw)

	var errs []error
	for _, s := range strategies {
		routine, err := s.Decode(ctx, raw)
		if err != nil {
			r.log.Debug("tier failed", zap.String("tier", string(s.Tier)), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Tier, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		Clamp(routine)
		r.log.Info("routine reconciled",
			zap.String("tier", string(s.Tier)),
			zap.Int("morning", len(routine.Morning)),
			zap.Int("evening", len(routine.Evening)),
			zap.Int("weekly", len(routine.Weekly)),
		)
		return routine, s.Tier, nil
	}

	r.log.Warn("routine reconciliation failed", zap.Int("raw_len", len(lastRaw)))
	return nil, "", &domain.DecodingFailure{Raw: lastRaw, Err: errors.Join(errs...)}
}

// Strategies returns the ordered fallback chain. lastRaw is updated when the
// retry tier obtains a new reply.
func (r *Reconciler) Strategies(retry RetryFunc, lastRaw *string) []Strategy {
	strategies := []Strategy{
		{TierDirect, pure(decodeDirect)},
		{TierRepaired, pure(decodeRepaired)},
		{TierSanitized, pure(decodeSanitized)},
	}
	if retry != nil {
		strategies = append(strategies, Strategy{TierStrictRetry, func(ctx context.Context, _ string) (*domain.Routine, error) {
			text, err := retry(ctx)
			if err != nil {
				return nil, fmt.Errorf("strict retry: %w", err)
			}
			if lastRaw != nil {
				*lastRaw = text
			}
			return decodeStrict(text)
		}})
	}
	return append(strategies,
		Strategy{TierFirstObject, pure(decodeFirstObject)},
		Strategy{TierNameList, pure(decodeNameList)},
		Strategy{TierPlainText, pure(RoutineFromBullets)},
	)
}

func pure(fn func(string) (*domain.Routine, error)) func(context.Context, string) (*domain.Routine, error) {
	return func(_ context.Context, raw string) (*domain.Routine, error) {
		return fn(raw)
	}
}

func decodeDirect(raw string) (*domain.Routine, error) {
	return DecodeRoutine(llm.ExtractJSONPayload(raw))
}

func decodeRepaired(raw string) (*domain.Routine, error) {
	repaired, err := llm.RepairTruncated(fromFirstBrace(raw))
	if err != nil {
		return nil, err
	}
	return DecodeRoutine(repaired)
}

func decodeSanitized(raw string) (*domain.Routine, error) {
	sanitized := llm.SanitizeJSON(fromFirstBrace(raw))
	routine, err := DecodeRoutine(sanitized)
	if err == nil || !llm.LooksTruncated(sanitized) {
		return routine, err
	}
	repaired, repairErr := llm.RepairTruncated(sanitized)
	if repairErr != nil {
		return nil, errors.Join(err, repairErr)
	}
	return DecodeRoutine(repaired)
}

// decodeStrict decodes a retry reply the same way as the first three tiers.
func decodeStrict(text string) (*domain.Routine, error) {
	var errs []error
	for _, fn := range []func(string) (*domain.Routine, error){decodeDirect, decodeRepaired, decodeSanitized} {
		routine, err := fn(text)
		if err == nil {
			return routine, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func decodeFirstObject(raw string) (*domain.Routine, error) {
	obj := llm.FirstBalancedObject(llm.StripCodeFences(raw))
	if obj == "" {
		return nil, errNotJSON
	}
	return DecodeRoutine(obj)
}

// decodeNameList runs the untyped name scrape over the extracted payload,
// then over its repaired and sanitized forms.
func decodeNameList(raw string) (*domain.Routine, error) {
	candidates := []string{llm.ExtractJSONPayload(raw)}
	tail := fromFirstBrace(raw)
	if repaired, err := llm.RepairTruncated(tail); err == nil {
		candidates = append(candidates, repaired)
	}
	sanitized := llm.SanitizeJSON(tail)
	if repaired, err := llm.RepairTruncated(sanitized); err == nil {
		candidates = append(candidates, repaired)
	}

	err := errNotJSON
	for _, c := range candidates {
		routine, cErr := RoutineFromNames(c)
		if cErr == nil {
			return routine, nil
		}
		err = cErr
	}
	return nil, err
}

// fromFirstBrace returns the fence-free text from the first '{' to the end.
// A truncated reply has no trailing commentary, so the tail is kept whole.
func fromFirstBrace(raw string) string {
	cleaned := strings.TrimSpace(llm.StripCodeFences(raw))
	if i := strings.IndexByte(cleaned, '{'); i >= 0 {
		return cleaned[i:]
	}
	return cleaned
}
