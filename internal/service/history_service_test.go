package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"uti-assess/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func samplePrediction(uti bool) domain.Prediction {
	if uti {
		return domain.Prediction{
			RandomForest: domain.ScoreResult{Prediction: domain.LabelUTI, Probability: 92},
			XGBoost:      domain.ScoreResult{Prediction: domain.LabelUTI, Probability: 95},
		}
	}
	return domain.Prediction{
		RandomForest: domain.ScoreResult{Prediction: domain.LabelNoUTI, Probability: 14},
		XGBoost:      domain.ScoreResult{Prediction: domain.LabelNoUTI, Probability: 17},
	}
}

func sampleRecord() domain.IntakeRecord {
	return domain.IntakeRecord{
		Age: 25, Sex: domain.SexFemale,
		PreviousUTI: domain.Yes, Diabetes: domain.No,
		Dysuria: domain.Yes, Frequency: domain.Yes,
		LowerAbdominalPain: domain.Yes, Fever: domain.No,
	}
}

func entryFor(id string, owner *string, uti bool) domain.AssessmentEntry {
	return domain.AssessmentEntry{
		ID:         id,
		OwnerID:    owner,
		Record:     sampleRecord(),
		Prediction: samplePrediction(uti),
		CreatedAt:  time.Now().UTC(),
	}
}

func strPtr(s string) *string { return &s }

func TestHistoryService_Save(t *testing.T) {
	repo := new(MockAssessmentRepository)
	svc := NewHistoryService(repo, new(MockUserRepository))

	owner := strPtr("user-1")
	repo.On("CreateAssessment", mock.Anything, mock.MatchedBy(func(e *domain.AssessmentEntry) bool {
		return e.ID != "" && e.IsOwnedBy("user-1") && !e.CreatedAt.IsZero()
	})).Return(nil)

	id, err := svc.Save(context.Background(), sampleRecord(), samplePrediction(true), owner)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	repo.AssertExpectations(t)
}

func TestHistoryService_Save_PersistenceError(t *testing.T) {
	repo := new(MockAssessmentRepository)
	svc := NewHistoryService(repo, new(MockUserRepository))

	dbErr := errors.New("connection refused")
	repo.On("CreateAssessment", mock.Anything, mock.Anything).Return(dbErr)

	id, err := svc.Save(context.Background(), sampleRecord(), samplePrediction(false), nil)
	assert.Empty(t, id)
	assert.True(t, domain.HasCode(err, domain.CodePersistence))
	assert.ErrorIs(t, err, dbErr)
}

func TestHistoryService_ListForOwner(t *testing.T) {
	repo := new(MockAssessmentRepository)
	svc := NewHistoryService(repo, new(MockUserRepository))

	owner := strPtr("user-1")
	entries := []domain.AssessmentEntry{entryFor("b", owner, true), entryFor("a", owner, false)}
	repo.On("ListAssessmentsByOwner", mock.Anything, "user-1").Return(entries, nil)

	got, err := svc.ListForOwner(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	got, err = svc.ListForOwner(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertNumberOfCalls(t, "ListAssessmentsByOwner", 1)
}

func TestHistoryService_ListAll_RoleGated(t *testing.T) {
	all := []domain.AssessmentEntry{entryFor("x", strPtr("u1"), true), entryFor("y", nil, false)}

	tests := []struct {
		name    string
		user    *domain.User
		wantLen int
	}{
		{"doctor sees everything", &domain.User{ID: "c", Role: domain.RoleDoctor}, 2},
		{"admin sees everything", &domain.User{ID: "c", Role: domain.RoleAdmin}, 2},
		{"patient sees nothing", &domain.User{ID: "c", Role: domain.RolePatient}, 0},
		{"unknown caller sees nothing", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAssessmentRepository)
			users := new(MockUserRepository)
			svc := NewHistoryService(repo, users)

			if tt.user == nil {
				users.On("GetUserByID", mock.Anything, "c").Return(nil, nil)
			} else {
				users.On("GetUserByID", mock.Anything, "c").Return(tt.user, nil)
			}
			repo.On("ListAllAssessments", mock.Anything).Return(all, nil).Maybe()

			got, err := svc.ListAll(context.Background(), "c")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestHistoryService_ListAll_AnonymousCaller(t *testing.T) {
	repo := new(MockAssessmentRepository)
	users := new(MockUserRepository)
	svc := NewHistoryService(repo, users)

	got, err := svc.ListAll(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
	users.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "ListAllAssessments", mock.Anything)
}

func TestHistoryService_Get_NotFound(t *testing.T) {
	repo := new(MockAssessmentRepository)
	svc := NewHistoryService(repo, new(MockUserRepository))
	repo.On("GetAssessmentByID", mock.Anything, "missing").Return(nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
}

func TestHistoryService_Delete(t *testing.T) {
	owned := entryFor("e1", strPtr("owner"), true)

	t.Run("owner deletes", func(t *testing.T) {
		repo := new(MockAssessmentRepository)
		users := new(MockUserRepository)
		svc := NewHistoryService(repo, users)
		repo.On("GetAssessmentByID", mock.Anything, "e1").Return(&owned, nil)
		repo.On("DeleteAssessment", mock.Anything, "e1").Return(nil)

		require.NoError(t, svc.Delete(context.Background(), "e1", "owner"))
		users.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
	})

	t.Run("other patient is forbidden", func(t *testing.T) {
		repo := new(MockAssessmentRepository)
		users := new(MockUserRepository)
		svc := NewHistoryService(repo, users)
		repo.On("GetAssessmentByID", mock.Anything, "e1").Return(&owned, nil)
		users.On("GetUserByID", mock.Anything, "intruder").Return(&domain.User{ID: "intruder", Role: domain.RolePatient}, nil)

		err := svc.Delete(context.Background(), "e1", "intruder")
		assert.True(t, domain.HasCode(err, domain.CodeForbidden))
		repo.AssertNotCalled(t, "DeleteAssessment", mock.Anything, mock.Anything)
	})

	t.Run("doctor deletes any entry", func(t *testing.T) {
		repo := new(MockAssessmentRepository)
		users := new(MockUserRepository)
		svc := NewHistoryService(repo, users)
		repo.On("GetAssessmentByID", mock.Anything, "e1").Return(&owned, nil)
		repo.On("DeleteAssessment", mock.Anything, "e1").Return(nil)
		users.On("GetUserByID", mock.Anything, "doc").Return(&domain.User{ID: "doc", Role: domain.RoleDoctor}, nil)

		require.NoError(t, svc.Delete(context.Background(), "e1", "doc"))
	})

	t.Run("missing entry", func(t *testing.T) {
		repo := new(MockAssessmentRepository)
		svc := NewHistoryService(repo, new(MockUserRepository))
		repo.On("GetAssessmentByID", mock.Anything, "nope").Return(nil, nil)

		err := svc.Delete(context.Background(), "nope", "owner")
		assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	})
}

func TestHistoryService_Stats(t *testing.T) {
	svc := NewHistoryService(new(MockAssessmentRepository), new(MockUserRepository))
	stats := svc.Stats([]domain.AssessmentEntry{
		entryFor("1", nil, true),
		entryFor("2", nil, false),
		entryFor("3", nil, true),
	})
	assert.Equal(t, domain.HistoryStats{Total: 3, High: 2, Low: 1}, stats)
	assert.Equal(t, domain.HistoryStats{}, svc.Stats(nil))
}
