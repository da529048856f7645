package domain

import (
	"context"
	"time"
)

// AssessmentEntry is one past assessment with its results. It is immutable once created.
type AssessmentEntry struct {
	ID         string       `json:"id"`
	OwnerID    *string      `json:"owner_id,omitempty"`
	Record     IntakeRecord `json:"record"`
	Prediction Prediction   `json:"prediction"`
	CreatedAt  time.Time    `json:"date"`
}

// Risk is derived from the stored prediction.
func (e AssessmentEntry) Risk() RiskLevel {
	return e.Prediction.Risk()
}

// IsOwnedBy reports whether the entry belongs to userID.
func (e AssessmentEntry) IsOwnedBy(userID string) bool {
	return e.OwnerID != nil && *e.OwnerID == userID
}

// NewAssessmentEntry stamps a scored record with an id and creation time.
func NewAssessmentEntry(id string, record IntakeRecord, prediction Prediction, ownerID *string) *AssessmentEntry {
	return &AssessmentEntry{
		ID:         id,
		OwnerID:    ownerID,
		Record:     record,
		Prediction: prediction,
		CreatedAt:  time.Now().UTC(),
	}
}

// AssessmentRepository defines the interface for history entry persistence.
type AssessmentRepository interface {
	CreateAssessment(ctx context.Context, entry *AssessmentEntry) error
	GetAssessmentByID(ctx context.Context, id string) (*AssessmentEntry, error)
	ListAssessmentsByOwner(ctx context.Context, ownerID string) ([]AssessmentEntry, error)
	ListAllAssessments(ctx context.Context) ([]AssessmentEntry, error)
	DeleteAssessment(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// HistoryStats summarises a set of entries by risk level.
type HistoryStats struct {
	Total int `json:"total"`
	High  int `json:"high"`
	Low   int `json:"low"`
}

// SummarizeHistory counts entries per risk level.
func SummarizeHistory(entries []AssessmentEntry) HistoryStats {
	stats := HistoryStats{Total: len(entries)}
	for _, e := range entries {
		if e.Risk() == RiskHigh {
			stats.High++
		} else {
			stats.Low++
		}
	}
	return stats
}

// LocalHistory is the session-scoped history kept for anonymous users.
// Entries are ordered oldest first, and an id appears at most once.
type LocalHistory struct {
	SessionID   string            `json:"session_id"`
	Assessments []AssessmentEntry `json:"assessments"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewLocalHistory returns an empty history for sessionID.
func NewLocalHistory(sessionID string) *LocalHistory {
	return &LocalHistory{SessionID: sessionID, Assessments: []AssessmentEntry{}}
}

// Add appends entry unless an entry with the same id is already present.
func (h *LocalHistory) Add(entry AssessmentEntry) bool {
	for _, e := range h.Assessments {
		if e.ID == entry.ID {
			return false
		}
	}
	h.Assessments = append(h.Assessments, entry)
	h.UpdatedAt = time.Now().UTC()
	return true
}

// Remove deletes the entry with id and reports whether one was found.
func (h *LocalHistory) Remove(id string) bool {
	for i, e := range h.Assessments {
		if e.ID == id {
			h.Assessments = append(h.Assessments[:i], h.Assessments[i+1:]...)
			h.UpdatedAt = time.Now().UTC()
			return true
		}
	}
	return false
}

// Clear drops every entry.
func (h *LocalHistory) Clear() {
	h.Assessments = []AssessmentEntry{}
	h.UpdatedAt = time.Now().UTC()
}

// Entries returns a copy of the entries, newest first.
func (h *LocalHistory) Entries() []AssessmentEntry {
	out := make([]AssessmentEntry, len(h.Assessments))
	for i, e := range h.Assessments {
		out[len(h.Assessments)-1-i] = e
	}
	return out
}
