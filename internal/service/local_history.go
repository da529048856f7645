package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"uti-assess/internal/cache"
	"uti-assess/internal/domain"
	"uti-assess/internal/logger"

	"go.uber.org/zap"
)

// LocalHistoryService keeps session-scoped history for anonymous users.
// Load never fails: a missing, expired or unreadable history comes back empty.
type LocalHistoryService interface {
	Load(ctx context.Context, sessionID string) (*domain.LocalHistory, error)
	Save(ctx context.Context, sessionID string, history *domain.LocalHistory) error
	// Update runs a load, modify, save cycle for one session. fn reports whether it changed anything.
	// Unlike Load it fails when the stored history cannot be read, so nothing is overwritten.
	Update(ctx context.Context, sessionID string, fn func(h *domain.LocalHistory) bool) (*domain.LocalHistory, error)
	// Clear drops the stored history, readable or not.
	Clear(ctx context.Context, sessionID string) error
}

const sessionLockStripes = 64

type localHistoryServiceImpl struct {
	cache domain.Cache
	ttl   time.Duration
	locks [sessionLockStripes]sync.Mutex
}

// NewLocalHistoryService creates a cache-backed LocalHistoryService.
func NewLocalHistoryService(c domain.Cache, ttl time.Duration) LocalHistoryService {
	if c == nil {
		logger.Get().Warn("LocalHistoryService initialized with nil cache. Service will be no-op.")
		return &noopLocalHistoryService{}
	}
	return &localHistoryServiceImpl{cache: c, ttl: ttl}
}

func (s *localHistoryServiceImpl) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%sessionLockStripes]
}

func (s *localHistoryServiceImpl) Load(ctx context.Context, sessionID string) (*domain.LocalHistory, error) {
	h, err := s.read(ctx, sessionID)
	if err != nil {
		logger.Get().Warn("Failed to load local history, starting empty", zap.Error(err), zap.String("sessionID", sessionID))
		return domain.NewLocalHistory(sessionID), nil
	}
	return h, nil
}

// read returns the stored history. A miss is an empty history; a cache failure or an
// unreadable payload is an error.
func (s *localHistoryServiceImpl) read(ctx context.Context, sessionID string) (*domain.LocalHistory, error) {
	if sessionID == "" {
		return domain.NewLocalHistory(sessionID), nil
	}

	key := cache.LocalHistoryKey(sessionID)
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return domain.NewLocalHistory(sessionID), nil
		}
		return nil, domain.NewInternalError(fmt.Sprintf("failed to read local history for key %s", key), err)
	}

	var h domain.LocalHistory
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		return nil, domain.NewInternalError(fmt.Sprintf("unreadable local history for key %s", key), err)
	}
	h.SessionID = sessionID
	if h.Assessments == nil {
		h.Assessments = []domain.AssessmentEntry{}
	}
	return &h, nil
}

func (s *localHistoryServiceImpl) Save(ctx context.Context, sessionID string, history *domain.LocalHistory) error {
	if sessionID == "" {
		return domain.NewInvalidInputError("session id is required")
	}
	if history == nil {
		return domain.NewInvalidInputError("cannot save nil local history")
	}

	key := cache.LocalHistoryKey(sessionID)
	history.SessionID = sessionID
	data, err := json.Marshal(history)
	if err != nil {
		return domain.NewInternalError("failed to marshal local history", err)
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		logger.Get().Error("Failed to save local history", zap.Error(err), zap.String("key", key))
		return domain.NewInternalError(fmt.Sprintf("failed to save local history for key %s", key), err)
	}
	logger.Get().Debug("Local history saved", zap.String("key", key), zap.Int("entries", len(history.Assessments)))
	return nil
}

func (s *localHistoryServiceImpl) Update(ctx context.Context, sessionID string, fn func(h *domain.LocalHistory) bool) (*domain.LocalHistory, error) {
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	h, err := s.read(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !fn(h) {
		return h, nil
	}
	if err := s.Save(ctx, sessionID, h); err != nil {
		return h, err
	}
	return h, nil
}

func (s *localHistoryServiceImpl) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	key := cache.LocalHistoryKey(sessionID)
	if err := s.cache.Delete(ctx, key); err != nil {
		return domain.NewInternalError(fmt.Sprintf("failed to clear local history for key %s", key), err)
	}
	return nil
}

// noopLocalHistoryService is used when no cache is configured.
type noopLocalHistoryService struct{}

func (s *noopLocalHistoryService) Load(ctx context.Context, sessionID string) (*domain.LocalHistory, error) {
	return domain.NewLocalHistory(sessionID), nil
}

func (s *noopLocalHistoryService) Save(ctx context.Context, sessionID string, history *domain.LocalHistory) error {
	logger.Get().Debug("No-op LocalHistoryService: Save called", zap.String("sessionID", sessionID))
	return nil
}

func (s *noopLocalHistoryService) Update(ctx context.Context, sessionID string, fn func(h *domain.LocalHistory) bool) (*domain.LocalHistory, error) {
	h := domain.NewLocalHistory(sessionID)
	fn(h)
	return h, nil
}

func (s *noopLocalHistoryService) Clear(ctx context.Context, sessionID string) error {
	return nil
}
