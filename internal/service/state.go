package service

import (
	"sync"
	"time"

	"github.com/noah-isme/paatshala-go-api/internal/models"
)

// topicState is the in-memory section snapshot per course, shared between
// reads and the optimistic updates mutations apply while a background
// refresh is still in flight. All access goes through the accessors; the
// stored slices are never handed out by reference.
type topicState struct {
	mu       sync.RWMutex
	topics   map[int][]models.Topic
	loadedAt map[int]time.Time
}

func newTopicState() *topicState {
	return &topicState{
		topics:   make(map[int][]models.Topic),
		loadedAt: make(map[int]time.Time),
	}
}

func (st *topicState) get(courseID int) ([]models.Topic, time.Time, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	topics, ok := st.topics[courseID]
	if !ok {
		return nil, time.Time{}, false
	}
	return cloneTopics(topics), st.loadedAt[courseID], true
}

func (st *topicState) set(courseID int, topics []models.Topic, at time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.topics[courseID] = cloneTopics(topics)
	st.loadedAt[courseID] = at
}

// update applies fn to the held snapshot, stamps it with at, and returns
// the result. A course with no snapshot is left untouched.
func (st *topicState) update(courseID int, at time.Time, fn func([]models.Topic) []models.Topic) ([]models.Topic, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	topics, ok := st.topics[courseID]
	if !ok {
		return nil, false
	}
	updated := fn(cloneTopics(topics))
	st.topics[courseID] = updated
	st.loadedAt[courseID] = at
	return cloneTopics(updated), true
}

func (st *topicState) drop(courseID int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.topics, courseID)
	delete(st.loadedAt, courseID)
}

func cloneTopics(topics []models.Topic) []models.Topic {
	out := make([]models.Topic, len(topics))
	for i, topic := range topics {
		activities := make([]models.Activity, len(topic.Activities))
		copy(activities, topic.Activities)
		topic.Activities = activities
		out[i] = topic
	}
	return out
}
