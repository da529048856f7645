package service

import (
	"context"
	"sync"
	"time"

	"uti-assess/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockAssessmentRepository ---
type MockAssessmentRepository struct {
	mock.Mock
}

func (m *MockAssessmentRepository) CreateAssessment(ctx context.Context, entry *domain.AssessmentEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAssessmentRepository) GetAssessmentByID(ctx context.Context, id string) (*domain.AssessmentEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssessmentEntry), args.Error(1)
}

func (m *MockAssessmentRepository) ListAssessmentsByOwner(ctx context.Context, ownerID string) ([]domain.AssessmentEntry, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssessmentEntry), args.Error(1)
}

func (m *MockAssessmentRepository) ListAllAssessments(ctx context.Context) ([]domain.AssessmentEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssessmentEntry), args.Error(1)
}

func (m *MockAssessmentRepository) DeleteAssessment(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAssessmentRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- MockUserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	args := m.Called(ctx, googleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- MockRiskScorer ---
type MockRiskScorer struct {
	mock.Mock
}

func (m *MockRiskScorer) Score(record *domain.IntakeRecord) (*domain.Prediction, error) {
	args := m.Called(record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Prediction), args.Error(1)
}

// --- MockHistoryService ---
type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) Save(ctx context.Context, record domain.IntakeRecord, prediction domain.Prediction, ownerID *string) (string, error) {
	args := m.Called(ctx, record, prediction, ownerID)
	return args.String(0), args.Error(1)
}

func (m *MockHistoryService) Store(ctx context.Context, entry *domain.AssessmentEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryService) ListForOwner(ctx context.Context, ownerID string) ([]domain.AssessmentEntry, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssessmentEntry), args.Error(1)
}

func (m *MockHistoryService) ListAll(ctx context.Context, callerID string) ([]domain.AssessmentEntry, error) {
	args := m.Called(ctx, callerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssessmentEntry), args.Error(1)
}

func (m *MockHistoryService) Get(ctx context.Context, id string) (*domain.AssessmentEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssessmentEntry), args.Error(1)
}

func (m *MockHistoryService) Delete(ctx context.Context, id string, callerID string) error {
	args := m.Called(ctx, id, callerID)
	return args.Error(0)
}

func (m *MockHistoryService) Stats(entries []domain.AssessmentEntry) domain.HistoryStats {
	return domain.SummarizeHistory(entries)
}

func (m *MockHistoryService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// memoryCache is a map-backed domain.Cache for round-trip tests.
type memoryCache struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = expiration
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	delete(c.ttls, key)
	return nil
}

func (c *memoryCache) Ping(ctx context.Context) error {
	return nil
}

func (c *memoryCache) ttl(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ttls[key]
}
