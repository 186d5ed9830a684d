package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"recall-backend/application/ports"
	domainconfig "recall-backend/domain/config"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/scheduling"
	pkgerrors "recall-backend/pkg/errors"
	"recall-backend/pkg/utils"
)

// Priority weights for the revision queue. Due items dominate, predicted
// weakness comes next, then raw strength deficit.
const (
	priorityDueWeight      = 100.0
	priorityWeakWeight     = 50.0
	priorityStrengthWeight = 30.0
	bonusNeverReviewed     = 20.0
	bonusFailedLast        = 10.0
)

// AgendaService builds agendas, priority queues and summary statistics
// from the set of tracked items and nodes. All computation is over
// in-memory snapshots; queue results are memoized in an explicit cache
// keyed by input hash, invalidated automatically when any input changes.
type AgendaService struct {
	cache     ports.Cache
	domainCfg *domainconfig.DomainConfig
	logger    *zap.Logger
}

// NewAgendaService creates a new agenda service
func NewAgendaService(cache ports.Cache, domainCfg *domainconfig.DomainConfig, logger *zap.Logger) *AgendaService {
	return &AgendaService{
		cache:     cache,
		domainCfg: domainCfg,
		logger:    logger,
	}
}

// AgendaItem is one schedulable entry in a day bucket
type AgendaItem struct {
	ItemID        string    `json:"item_id"`
	ItemType      string    `json:"item_type"`
	RevisionCycle int       `json:"revision_cycle"`
	DueDate       time.Time `json:"due_date"`
	Overdue       bool      `json:"overdue"`
}

// AgendaEntry is one day of the agenda
type AgendaEntry struct {
	Date       string       `json:"date"` // YYYY-MM-DD
	Items      []AgendaItem `json:"items"`
	TotalItems int          `json:"total_items"`
}

// BuildAgenda buckets non-completed items by due date within [from, to].
// Bucketing is date-only; time-of-day never affects placement. When
// includeEmpty is set, every date in the range appears even with zero
// items; either way counts are exact.
func (s *AgendaService) BuildAgenda(
	items []*entities.RevisionItem,
	from, to time.Time,
	includeEmpty bool,
	now time.Time,
) ([]AgendaEntry, error) {
	fromDay := utils.StartOfDay(from)
	toDay := utils.StartOfDay(to)
	if toDay.Before(fromDay) {
		return nil, pkgerrors.NewInvalidDateRangeError(utils.DateKey(from), utils.DateKey(to))
	}

	buckets := make(map[string][]AgendaItem)
	for _, item := range items {
		if item.IsCompleted() {
			continue
		}
		day := utils.StartOfDay(item.NextRevisionDate())
		if day.Before(fromDay) || day.After(toDay) {
			continue
		}
		key := utils.DateKey(day)
		buckets[key] = append(buckets[key], AgendaItem{
			ItemID:        item.ID().String(),
			ItemType:      string(item.ItemType()),
			RevisionCycle: item.RevisionCycle(),
			DueDate:       item.NextRevisionDate(),
			Overdue:       item.IsOverdue(now),
		})
	}

	var entries []AgendaEntry
	for day := fromDay; !day.After(toDay); day = day.AddDate(0, 0, 1) {
		key := utils.DateKey(day)
		dayItems, exists := buckets[key]
		if !exists && !includeEmpty {
			continue
		}
		sort.Slice(dayItems, func(i, j int) bool {
			return dayItems[i].ItemID < dayItems[j].ItemID
		})
		entries = append(entries, AgendaEntry{
			Date:       key,
			Items:      dayItems,
			TotalItems: len(dayItems),
		})
	}

	return entries, nil
}

// QueueEntry is one ranked entry of the revision queue
type QueueEntry struct {
	SubjectID       string     `json:"subject_id"`
	SubjectKind     string     `json:"subject_kind"`
	Title           string     `json:"title,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	Strength        float64    `json:"strength"`
	PredictedWeakAt *time.Time `json:"predicted_weak_at,omitempty"`
	Priority        float64    `json:"priority"`
}

// BuildQueue ranks items and nodes so the most urgent surface first.
// The order is a deterministic total order: priority descending, ties
// broken by subject id.
func (s *AgendaService) BuildQueue(
	ctx context.Context,
	userID string,
	items []*entities.RevisionItem,
	nodes []*entities.GraphNode,
	settings scheduling.GraphSettings,
	now time.Time,
) []QueueEntry {
	cacheKey := ""
	if s.cache != nil && s.domainCfg.EnableQueueMemoization {
		cacheKey = s.queueCacheKey(userID, items, nodes, settings, now)
		if cached, ok := s.cache.Get(ctx, cacheKey); ok {
			if entries, ok := cached.([]QueueEntry); ok {
				return entries
			}
		}
	}

	entries := make([]QueueEntry, 0, len(items)+len(nodes))

	horizon := now.AddDate(0, 0, settings.HorizonDays)

	for _, item := range items {
		if item.IsCompleted() {
			continue
		}
		strength := itemRetention(item, now)
		weakAt := itemPredictedWeakAt(item, settings.WeakThreshold)

		due := item.NextRevisionDate()
		priority := queuePriority(
			item.IsDue(now),
			weakAt != nil && !weakAt.After(horizon),
			strength,
			itemStatusBonus(item),
		)
		entries = append(entries, QueueEntry{
			SubjectID:       item.ID().String(),
			SubjectKind:     string(entities.SubjectItem),
			DueDate:         &due,
			Strength:        strength,
			PredictedWeakAt: weakAt,
			Priority:        priority,
		})
	}

	for _, node := range nodes {
		strength := node.Strength().Value()
		weakAt := nodePredictedWeakAt(node, settings.WeakThreshold)

		isDue := node.DueDate() != nil && !node.DueDate().After(now)
		priority := queuePriority(
			isDue,
			weakAt != nil && !weakAt.After(horizon),
			strength,
			nodeStatusBonus(node, settings.WeakThreshold),
		)
		entries = append(entries, QueueEntry{
			SubjectID:       node.ID().String(),
			SubjectKind:     string(entities.SubjectNode),
			Title:           node.Title(),
			DueDate:         node.DueDate(),
			Strength:        strength,
			PredictedWeakAt: weakAt,
			Priority:        priority,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].SubjectID < entries[j].SubjectID
	})

	if cacheKey != "" {
		if err := s.cache.Set(ctx, cacheKey, entries, 60); err != nil {
			s.logger.Warn("failed to cache queue", zap.Error(err))
		}
	}

	return entries
}

// Stats summarizes the revision workload
type Stats struct {
	TotalRevisions     int `json:"total_revisions"`
	CompletedRevisions int `json:"completed_revisions"`
	UpcomingRevisions  int `json:"upcoming_revisions"`
	OverdueRevisions   int `json:"overdue_revisions"`
	CurrentStreak      int `json:"current_streak"`
}

// ComputeStats counts workload buckets and the consecutive-day completion
// streak, walking backward from today until the first gap.
func (s *AgendaService) ComputeStats(items []*entities.RevisionItem, now time.Time) Stats {
	stats := Stats{TotalRevisions: len(items)}

	completionDays := make(map[string]bool)
	for _, item := range items {
		if item.IsCompleted() {
			stats.CompletedRevisions++
		} else if item.IsOverdue(now) {
			stats.OverdueRevisions++
		} else {
			stats.UpcomingRevisions++
		}
		if completed := item.LastCompletedAt(); completed != nil {
			completionDays[utils.DateKey(*completed)] = true
		}
	}

	// A missing completion today does not break the streak until the day
	// is over; start counting from today if present, else from yesterday.
	day := utils.StartOfDay(now)
	if !completionDays[utils.DateKey(day)] {
		day = day.AddDate(0, 0, -1)
	}
	for completionDays[utils.DateKey(day)] {
		stats.CurrentStreak++
		day = day.AddDate(0, 0, -1)
	}

	return stats
}

func queuePriority(isDue, isPredictedWeak bool, strength, statusBonus float64) float64 {
	priority := statusBonus + priorityStrengthWeight*(1-strength)
	if isDue {
		priority += priorityDueWeight
	}
	if isPredictedWeak {
		priority += priorityWeakWeight
	}
	return priority
}

// itemRetention estimates current recall as exponential decay since the
// last completion, with the item's stability as half-life. Never-reviewed
// items estimate zero.
func itemRetention(item *entities.RevisionItem, now time.Time) float64 {
	last := item.LastCompletedAt()
	if last == nil || item.Stability() <= 0 {
		return 0
	}
	ageDays := now.Sub(*last).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Pow(0.5, ageDays/item.Stability())
}

// itemPredictedWeakAt solves the decay curve for the moment retention
// crosses the weak threshold
func itemPredictedWeakAt(item *entities.RevisionItem, weakThreshold float64) *time.Time {
	last := item.LastCompletedAt()
	if last == nil || item.Stability() <= 0 || weakThreshold <= 0 || weakThreshold >= 1 {
		return nil
	}
	days := item.Stability() * math.Log2(1/weakThreshold)
	weakAt := last.Add(time.Duration(days * 24 * float64(time.Hour)))
	return &weakAt
}

func nodePredictedWeakAt(node *entities.GraphNode, weakThreshold float64) *time.Time {
	visited := node.LastVisited()
	if visited == nil || node.Stability() <= 0 || weakThreshold <= 0 || weakThreshold >= 1 {
		return nil
	}
	days := node.Stability() * math.Log2(1/weakThreshold)
	weakAt := visited.Add(time.Duration(days * 24 * float64(time.Hour)))
	return &weakAt
}

func itemStatusBonus(item *entities.RevisionItem) float64 {
	switch {
	case item.RevisionCycle() == 0:
		return bonusNeverReviewed
	case item.LastRating() > 0 && item.LastRating() <= 2:
		return bonusFailedLast
	default:
		return 0
	}
}

func nodeStatusBonus(node *entities.GraphNode, weakThreshold float64) float64 {
	switch {
	case !node.HasBeenStudied():
		return bonusNeverReviewed
	case node.Strength().Value() < weakThreshold:
		return bonusFailedLast
	default:
		return 0
	}
}

// queueCacheKey hashes every input that can change the queue so stale
// entries can never be served after an update
func (s *AgendaService) queueCacheKey(
	userID string,
	items []*entities.RevisionItem,
	nodes []*entities.GraphNode,
	settings scheduling.GraphSettings,
	now time.Time,
) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%+v", userID, utils.DateKey(now), settings)
	for _, item := range items {
		fmt.Fprintf(h, "|i:%s:%d:%d", item.ID().String(), item.Version(), item.NextRevisionDate().Unix())
	}
	for _, node := range nodes {
		fmt.Fprintf(h, "|n:%s:%d", node.ID().String(), node.Version())
	}
	return fmt.Sprintf("queue:%s:%x", userID, h.Sum64())
}
