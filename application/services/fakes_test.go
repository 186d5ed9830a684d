package services

import (
	"context"
	"sync"
	"time"

	"recall-backend/domain/core/aggregates"
	"recall-backend/domain/core/entities"
	"recall-backend/domain/core/valueobjects"
	"recall-backend/domain/events"
	"recall-backend/domain/scheduling"
	pkgerrors "recall-backend/pkg/errors"
)

// In-memory fakes for the persistence and messaging ports.

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[string]*entities.RevisionItem
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[string]*entities.RevisionItem)}
}

func (r *fakeItemRepo) Save(ctx context.Context, item *entities.RevisionItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID().String()] = item
	return nil
}

func (r *fakeItemRepo) GetByID(ctx context.Context, id valueobjects.ItemID) (*entities.RevisionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id.String()], nil
}

func (r *fakeItemRepo) GetByUserID(ctx context.Context, userID string) ([]*entities.RevisionItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.RevisionItem
	for _, item := range r.items {
		if item.UserID() == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) Delete(ctx context.Context, id valueobjects.ItemID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id.String())
	return nil
}

type fakeArtifactRepo struct {
	artifacts map[string]*entities.TrackedArtifact
}

func newFakeArtifactRepo() *fakeArtifactRepo {
	return &fakeArtifactRepo{artifacts: make(map[string]*entities.TrackedArtifact)}
}

func (r *fakeArtifactRepo) Save(ctx context.Context, artifact *entities.TrackedArtifact) error {
	r.artifacts[artifact.ID().String()] = artifact
	return nil
}

func (r *fakeArtifactRepo) GetByID(ctx context.Context, id valueobjects.ItemID) (*entities.TrackedArtifact, error) {
	return r.artifacts[id.String()], nil
}

func (r *fakeArtifactRepo) GetByUserID(ctx context.Context, userID string) ([]*entities.TrackedArtifact, error) {
	var out []*entities.TrackedArtifact
	for _, artifact := range r.artifacts {
		if artifact.UserID() == userID {
			out = append(out, artifact)
		}
	}
	return out, nil
}

func (r *fakeArtifactRepo) Delete(ctx context.Context, id valueobjects.ItemID) error {
	delete(r.artifacts, id.String())
	return nil
}

type fakeSettingsRepo struct {
	settings map[string]scheduling.GraphSettings
	getErr   error
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: make(map[string]scheduling.GraphSettings)}
}

func (r *fakeSettingsRepo) Get(ctx context.Context, userID string) (scheduling.GraphSettings, error) {
	if r.getErr != nil {
		return scheduling.GraphSettings{}, r.getErr
	}
	if s, ok := r.settings[userID]; ok {
		return s, nil
	}
	return scheduling.DefaultGraphSettings(), nil
}

func (r *fakeSettingsRepo) Put(ctx context.Context, userID string, settings scheduling.GraphSettings) error {
	r.settings[userID] = settings
	return nil
}

type fakeReviewLog struct {
	mu      sync.Mutex
	reviews []entities.Review
}

func (l *fakeReviewLog) Append(ctx context.Context, review entities.Review) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reviews = append(l.reviews, review)
	return nil
}

func (l *fakeReviewLog) ListBySubject(ctx context.Context, subjectID string, limit int) ([]entities.Review, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []entities.Review
	for i := len(l.reviews) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if l.reviews[i].SubjectID == subjectID {
			out = append(out, l.reviews[i])
		}
	}
	return out, nil
}

func (l *fakeReviewLog) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]entities.Review, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []entities.Review
	for _, review := range l.reviews {
		if review.UserID == userID && !review.Timestamp.Before(from) && !review.Timestamp.After(to) {
			out = append(out, review)
		}
	}
	return out, nil
}

type fakeEventBus struct {
	mu        sync.Mutex
	published []events.DomainEvent
}

func (b *fakeEventBus) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, evts...)
	return nil
}

func (b *fakeEventBus) byType(eventType string) []events.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.DomainEvent
	for _, e := range b.published {
		if e.GetEventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeGraphRepo struct {
	mu           sync.Mutex
	graphs       map[string]*aggregates.Graph // by userID
	savedNodes   int
	deletedEdges []string
}

func newFakeGraphRepo() *fakeGraphRepo {
	return &fakeGraphRepo{graphs: make(map[string]*aggregates.Graph)}
}

func (r *fakeGraphRepo) Save(ctx context.Context, graph *aggregates.Graph) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.graphs[graph.UserID()] = graph
	return nil
}

func (r *fakeGraphRepo) GetByID(ctx context.Context, id aggregates.GraphID) (*aggregates.Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, graph := range r.graphs {
		if graph.ID() == id {
			return graph, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("graph")
}

func (r *fakeGraphRepo) GetOrCreateDefaultGraph(ctx context.Context, userID string) (*aggregates.Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if graph, ok := r.graphs[userID]; ok {
		return graph, nil
	}
	graph, err := aggregates.NewGraph(userID, "Knowledge Graph")
	if err != nil {
		return nil, err
	}
	r.graphs[userID] = graph
	return graph, nil
}

func (r *fakeGraphRepo) SaveNodes(ctx context.Context, graphID string, nodes []*entities.GraphNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.savedNodes += len(nodes)
	return nil
}

func (r *fakeGraphRepo) DeleteNode(ctx context.Context, graphID string, nodeID valueobjects.NodeID) error {
	return nil
}

func (r *fakeGraphRepo) DeleteEdge(ctx context.Context, graphID string, edgeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletedEdges = append(r.deletedEdges, edgeID)
	return nil
}
