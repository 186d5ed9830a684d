package entities

import (
	"time"

	"github.com/google/uuid"
)

// SubjectKind identifies what a review was submitted against
type SubjectKind string

const (
	SubjectItem SubjectKind = "item"
	SubjectNode SubjectKind = "node"
)

// Review is an immutable record of one review event. Reviews are
// append-only; nothing in the system mutates one after creation.
type Review struct {
	ID            string      `json:"id"`
	SubjectID     string      `json:"subject_id"`
	SubjectKind   SubjectKind `json:"subject_kind"`
	UserID        string      `json:"user_id"`
	Rating        int         `json:"rating"`
	PrevStability float64     `json:"prev_stability"`
	NextStability float64     `json:"next_stability"`
	NextDue       time.Time   `json:"next_due"`
	Timestamp     time.Time   `json:"timestamp"`
}

// NewReview creates a review record with a fresh id
func NewReview(subjectID string, kind SubjectKind, userID string, rating int, prevStability, nextStability float64, nextDue, timestamp time.Time) Review {
	return Review{
		ID:            uuid.New().String(),
		SubjectID:     subjectID,
		SubjectKind:   kind,
		UserID:        userID,
		Rating:        rating,
		PrevStability: prevStability,
		NextStability: nextStability,
		NextDue:       nextDue,
		Timestamp:     timestamp,
	}
}
