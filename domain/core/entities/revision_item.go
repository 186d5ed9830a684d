package entities

import (
	"time"

	"recall-backend/domain/core/valueobjects"
	"recall-backend/domain/events"
	"recall-backend/domain/scheduling"
	"recall-backend/pkg/utils"
)

// RevisionStatus is the derived lifecycle state of a revision item
type RevisionStatus string

const (
	StatusScheduled RevisionStatus = "scheduled"
	StatusDue       RevisionStatus = "due"
	StatusCompleted RevisionStatus = "completed"
)

// RevisionItem is the schedulable wrapper around a tracked artifact.
// It cycles scheduled -> due -> completed -> rescheduled; completion is a
// transition, not a resting state, and always advances the schedule.
type RevisionItem struct {
	id               valueobjects.ItemID
	userID           string
	itemType         ArtifactType
	refID            valueobjects.ItemID
	revisionCycle    int
	nextRevisionDate time.Time
	isCompleted      bool
	lastRating       int // 0 until first completion
	stability        float64
	lastCompletedAt  *time.Time
	createdAt        time.Time
	updatedAt        time.Time
	version          int

	domainEvents []events.DomainEvent
}

// NewRevisionItem marks an artifact for revision, due at firstDue
func NewRevisionItem(userID string, artifact *TrackedArtifact, firstDue time.Time) *RevisionItem {
	now := time.Now()
	return &RevisionItem{
		id:               valueobjects.NewItemID(),
		userID:           userID,
		itemType:         artifact.Type(),
		refID:            artifact.ID(),
		revisionCycle:    0,
		nextRevisionDate: firstDue,
		isCompleted:      false,
		createdAt:        now,
		updatedAt:        now,
		version:          1,
		domainEvents:     []events.DomainEvent{},
	}
}

// ReconstructRevisionItem rebuilds an item from repository data
func ReconstructRevisionItem(
	id valueobjects.ItemID,
	userID string,
	itemType ArtifactType,
	refID valueobjects.ItemID,
	revisionCycle int,
	nextRevisionDate time.Time,
	isCompleted bool,
	lastRating int,
	stability float64,
	lastCompletedAt *time.Time,
	createdAt, updatedAt time.Time,
	version int,
) *RevisionItem {
	return &RevisionItem{
		id:               id,
		userID:           userID,
		itemType:         itemType,
		refID:            refID,
		revisionCycle:    revisionCycle,
		nextRevisionDate: nextRevisionDate,
		isCompleted:      isCompleted,
		lastRating:       lastRating,
		stability:        stability,
		lastCompletedAt:  lastCompletedAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
		version:          version,
		domainEvents:     []events.DomainEvent{},
	}
}

// ID returns the item's identifier
func (i *RevisionItem) ID() valueobjects.ItemID { return i.id }

// UserID returns the owner's ID
func (i *RevisionItem) UserID() string { return i.userID }

// ItemType returns the backing artifact type
func (i *RevisionItem) ItemType() ArtifactType { return i.itemType }

// RefID returns the backing artifact's id
func (i *RevisionItem) RefID() valueobjects.ItemID { return i.refID }

// RevisionCycle returns the count of completed revisions
func (i *RevisionItem) RevisionCycle() int { return i.revisionCycle }

// NextRevisionDate returns when the item is next due
func (i *RevisionItem) NextRevisionDate() time.Time { return i.nextRevisionDate }

// IsCompleted reports whether the current cycle has been completed
func (i *RevisionItem) IsCompleted() bool { return i.isCompleted }

// LastRating returns the most recent rating, 0 if never completed
func (i *RevisionItem) LastRating() int { return i.lastRating }

// Stability returns the current interval memory in days
func (i *RevisionItem) Stability() float64 { return i.stability }

// LastCompletedAt returns when the item was last completed, nil if never
func (i *RevisionItem) LastCompletedAt() *time.Time { return i.lastCompletedAt }

// CreatedAt returns when the item was created
func (i *RevisionItem) CreatedAt() time.Time { return i.createdAt }

// UpdatedAt returns when the item was last modified
func (i *RevisionItem) UpdatedAt() time.Time { return i.updatedAt }

// Version returns the item's version for optimistic locking
func (i *RevisionItem) Version() int { return i.version }

// Status derives the lifecycle state at the given instant
func (i *RevisionItem) Status(now time.Time) RevisionStatus {
	switch {
	case i.isCompleted:
		return StatusCompleted
	case !i.nextRevisionDate.After(now):
		return StatusDue
	default:
		return StatusScheduled
	}
}

// IsDue reports whether the item is due and not yet completed
func (i *RevisionItem) IsDue(now time.Time) bool {
	return !i.isCompleted && !i.nextRevisionDate.After(now)
}

// IsOverdue reports whether the item's due date is strictly before today
func (i *RevisionItem) IsOverdue(now time.Time) bool {
	return !i.isCompleted && utils.StartOfDay(i.nextRevisionDate).Before(utils.StartOfDay(now))
}

// Complete records a rating, advances the cycle and reschedules the item.
// An invalid rating fails with InvalidRating and leaves every field
// untouched - completion and rescheduling are one atomic transition.
func (i *RevisionItem) Complete(
	rating int,
	scheduler *scheduling.Scheduler,
	settings scheduling.GraphSettings,
	now time.Time,
) (Review, error) {
	result, err := scheduler.Schedule(rating, i.revisionCycle, i.stability, settings, now)
	if err != nil {
		return Review{}, err
	}

	prevStability := i.stability

	i.revisionCycle = result.NextCycle
	i.stability = result.NextStability
	i.nextRevisionDate = result.NextDue
	i.lastRating = rating
	i.isCompleted = true
	completedAt := now
	i.lastCompletedAt = &completedAt
	i.updatedAt = now
	i.version++

	i.addEvent(events.NewItemCompleted(
		i.id.String(), i.userID, rating, i.revisionCycle, result.NextDue, now,
	))

	return NewReview(
		i.id.String(), SubjectItem, i.userID, rating,
		prevStability, result.NextStability, result.NextDue, now,
	), nil
}

// Refresh resets the completed flag once a new calendar day begins, so the
// item re-enters the scheduled state for its next cycle.
func (i *RevisionItem) Refresh(now time.Time) {
	if i.isCompleted && i.lastCompletedAt != nil && !utils.SameDay(*i.lastCompletedAt, now) {
		i.isCompleted = false
		i.updatedAt = now
	}
}

// GetUncommittedEvents returns all uncommitted domain events
func (i *RevisionItem) GetUncommittedEvents() []events.DomainEvent {
	return i.domainEvents
}

// MarkEventsAsCommitted clears the uncommitted events
func (i *RevisionItem) MarkEventsAsCommitted() {
	i.domainEvents = []events.DomainEvent{}
}

func (i *RevisionItem) addEvent(event events.DomainEvent) {
	i.domainEvents = append(i.domainEvents, event)
}
