package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"uti-assess/internal/domain"
	"uti-assess/internal/logger"
	"uti-assess/internal/util"
	"uti-assess/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxBatchSize caps the number of records accepted by one batch call.
	MaxBatchSize = 100

	defaultBatchConcurrency = 8
	defaultSaveTimeout      = 5 * time.Second
)

// Requester identifies who an assessment is made for. Either field may be empty.
type Requester struct {
	UserID    string
	SessionID string
}

// AssessmentResult is what a caller gets back from a single assessment.
type AssessmentResult struct {
	ID             string
	Record         domain.IntakeRecord
	Prediction     domain.Prediction
	Risk           domain.RiskLevel
	Recommendation domain.Recommendation
}

// BatchItemResult holds either a result or the error for one batch input, in input order.
type BatchItemResult struct {
	Input  interface{}
	Result *AssessmentResult
	Err    error
}

// AssessmentService validates, scores and records intake submissions.
type AssessmentService interface {
	Assess(ctx context.Context, raw map[string]interface{}, who Requester) (*AssessmentResult, error)
	AssessBatch(ctx context.Context, items []interface{}, who Requester) ([]BatchItemResult, error)
	// Wait blocks until every background save started so far has finished.
	Wait()
}

type assessmentServiceImpl struct {
	validator   *validation.Validator
	scorer      domain.RiskScorer
	history     HistoryService
	local       LocalHistoryService
	saveTimeout time.Duration
	inflight    sync.WaitGroup
}

// NewAssessmentService creates a new instance of AssessmentService.
func NewAssessmentService(
	validator *validation.Validator,
	scorer domain.RiskScorer,
	history HistoryService,
	local LocalHistoryService,
	saveTimeout time.Duration,
) AssessmentService {
	if saveTimeout <= 0 {
		saveTimeout = defaultSaveTimeout
	}
	return &assessmentServiceImpl{
		validator:   validator,
		scorer:      scorer,
		history:     history,
		local:       local,
		saveTimeout: saveTimeout,
	}
}

// Assess returns the scored result immediately. The history save runs in the
// background and its failure is logged, never returned.
func (s *assessmentServiceImpl) Assess(ctx context.Context, raw map[string]interface{}, who Requester) (*AssessmentResult, error) {
	result, entry, err := s.score(raw, who)
	if err != nil {
		return nil, err
	}
	s.saveAsync(ctx, entry, who)
	return result, nil
}

func (s *assessmentServiceImpl) score(raw map[string]interface{}, who Requester) (*AssessmentResult, *domain.AssessmentEntry, error) {
	record, verrs := s.validator.ValidateIntake(raw)
	if len(verrs) > 0 {
		return nil, nil, domain.NewError(domain.CodeValidation, verrs.Error(), verrs)
	}

	prediction, err := s.scorer.Score(record)
	if err != nil {
		if domain.HasCode(err, domain.CodeScoring) {
			return nil, nil, err
		}
		return nil, nil, domain.NewScoringError("failed to score assessment", err)
	}

	var ownerID *string
	if who.UserID != "" {
		id := who.UserID
		ownerID = &id
	}
	entry := domain.NewAssessmentEntry(util.NewULID(), *record, *prediction, ownerID)

	return &AssessmentResult{
		ID:             entry.ID,
		Record:         entry.Record,
		Prediction:     entry.Prediction,
		Risk:           entry.Risk(),
		Recommendation: domain.Recommend(entry.Prediction),
	}, entry, nil
}

// saveAsync stores the entry server-side and, for anonymous sessions, in local history.
// It detaches from the request so a finished response does not cancel the save.
// Each store gets its own timeout, so a slow database never starves local history.
func (s *assessmentServiceImpl) saveAsync(ctx context.Context, entry *domain.AssessmentEntry, who Requester) {
	base := context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		if entry.OwnerID == nil && who.SessionID != "" && s.local != nil {
			s.saveLocal(base, entry, who.SessionID)
		}

		saveCtx, cancel := context.WithTimeout(base, s.saveTimeout)
		defer cancel()
		if err := s.history.Store(saveCtx, entry); err != nil {
			logger.Get().Error("Background assessment save failed",
				zap.String("id", entry.ID),
				zap.Error(err))
		}
	}()
}

func (s *assessmentServiceImpl) saveLocal(base context.Context, entry *domain.AssessmentEntry, sessionID string) {
	ctx, cancel := context.WithTimeout(base, s.saveTimeout)
	defer cancel()

	_, err := s.local.Update(ctx, sessionID, func(h *domain.LocalHistory) bool {
		return h.Add(*entry)
	})
	if err != nil {
		logger.Get().Warn("Local history update failed",
			zap.String("id", entry.ID),
			zap.String("sessionID", sessionID),
			zap.Error(err))
	}
}

// AssessBatch scores each item independently. An invalid item gets an error in its
// slot and does not fail the batch.
func (s *assessmentServiceImpl) AssessBatch(ctx context.Context, items []interface{}, who Requester) ([]BatchItemResult, error) {
	if len(items) > MaxBatchSize {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("batch size %d exceeds the limit of %d", len(items), MaxBatchSize))
	}

	results := make([]BatchItemResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultBatchConcurrency)

	for i, item := range items {
		results[i].Input = item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			raw, ok := item.(map[string]interface{})
			if !ok {
				results[i].Err = domain.NewInvalidInputError("each batch item must be a JSON object")
				return nil
			}
			result, entry, err := s.score(raw, who)
			if err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Result = result
			s.saveAsync(ctx, entry, who)
			return nil
		})
	}
	_ = g.Wait()

	logger.Get().Info("Batch assessment completed", zap.Int("items", len(items)))
	return results, nil
}

func (s *assessmentServiceImpl) Wait() {
	s.inflight.Wait()
}
