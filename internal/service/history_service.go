package service

import (
	"context"
	"fmt"

	"uti-assess/internal/domain"
	"uti-assess/internal/logger"
	"uti-assess/internal/util"

	"go.uber.org/zap"
)

// HistoryService manages server-side assessment history.
type HistoryService interface {
	// Save stamps a new entry and stores it, returning the entry id.
	Save(ctx context.Context, record domain.IntakeRecord, prediction domain.Prediction, ownerID *string) (string, error)
	// Store persists an entry whose id was assigned by the caller.
	Store(ctx context.Context, entry *domain.AssessmentEntry) error
	ListForOwner(ctx context.Context, ownerID string) ([]domain.AssessmentEntry, error)
	// ListAll returns every entry for doctor and admin callers. Any other caller,
	// including an unknown one, gets an empty list.
	ListAll(ctx context.Context, callerID string) ([]domain.AssessmentEntry, error)
	Get(ctx context.Context, id string) (*domain.AssessmentEntry, error)
	Delete(ctx context.Context, id string, callerID string) error
	Stats(entries []domain.AssessmentEntry) domain.HistoryStats
	Ping(ctx context.Context) error
}

type historyServiceImpl struct {
	repo     domain.AssessmentRepository
	userRepo domain.UserRepository
}

// NewHistoryService creates a new instance of HistoryService.
func NewHistoryService(repo domain.AssessmentRepository, userRepo domain.UserRepository) HistoryService {
	return &historyServiceImpl{repo: repo, userRepo: userRepo}
}

func (s *historyServiceImpl) Save(ctx context.Context, record domain.IntakeRecord, prediction domain.Prediction, ownerID *string) (string, error) {
	entry := domain.NewAssessmentEntry(util.NewULID(), record, prediction, ownerID)
	if err := s.Store(ctx, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

func (s *historyServiceImpl) Store(ctx context.Context, entry *domain.AssessmentEntry) error {
	if err := s.repo.CreateAssessment(ctx, entry); err != nil {
		return domain.NewPersistenceError("failed to save assessment", err)
	}
	logger.Get().Debug("Assessment saved", zap.String("id", entry.ID), zap.Bool("owned", entry.OwnerID != nil))
	return nil
}

func (s *historyServiceImpl) ListForOwner(ctx context.Context, ownerID string) ([]domain.AssessmentEntry, error) {
	if ownerID == "" {
		return []domain.AssessmentEntry{}, nil
	}
	entries, err := s.repo.ListAssessmentsByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to list assessments", err)
	}
	return entries, nil
}

// callerRole loads the caller's role from the user store. Roles are never taken from
// token claims or request data. A missing caller has no role.
func (s *historyServiceImpl) callerRole(ctx context.Context, callerID string) (domain.Role, error) {
	if callerID == "" {
		return "", nil
	}
	user, err := s.userRepo.GetUserByID(ctx, callerID)
	if err != nil {
		return "", domain.NewPersistenceError("failed to load caller", err)
	}
	if user == nil {
		return "", nil
	}
	return user.Role, nil
}

func (s *historyServiceImpl) ListAll(ctx context.Context, callerID string) ([]domain.AssessmentEntry, error) {
	role, err := s.callerRole(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !role.CanViewAllHistory() {
		logger.Get().Debug("ListAll denied for non-privileged caller", zap.String("callerID", callerID))
		return []domain.AssessmentEntry{}, nil
	}

	entries, err := s.repo.ListAllAssessments(ctx)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to list assessments", err)
	}
	return entries, nil
}

func (s *historyServiceImpl) Get(ctx context.Context, id string) (*domain.AssessmentEntry, error) {
	entry, err := s.repo.GetAssessmentByID(ctx, id)
	if err != nil {
		return nil, domain.NewPersistenceError("failed to load assessment", err)
	}
	if entry == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("assessment %s not found", id))
	}
	return entry, nil
}

// Delete removes an entry owned by the caller. Doctors and admins may delete any entry.
func (s *historyServiceImpl) Delete(ctx context.Context, id string, callerID string) error {
	entry, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if !entry.IsOwnedBy(callerID) {
		role, err := s.callerRole(ctx, callerID)
		if err != nil {
			return err
		}
		if !role.CanViewAllHistory() {
			return domain.NewForbiddenError("you can only delete your own assessments")
		}
	}

	if err := s.repo.DeleteAssessment(ctx, id); err != nil {
		if domain.HasCode(err, domain.CodeNotFound) {
			return err
		}
		return domain.NewPersistenceError("failed to delete assessment", err)
	}
	logger.Get().Info("Assessment deleted", zap.String("id", id), zap.String("callerID", callerID))
	return nil
}

func (s *historyServiceImpl) Stats(entries []domain.AssessmentEntry) domain.HistoryStats {
	return domain.SummarizeHistory(entries)
}

func (s *historyServiceImpl) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
