// Package events fans task progress out to websocket subscribers.
package events

import (
	"sync"

	"go.uber.org/zap"

	"echodub/internal/types"
	"echodub/log"
)

const subscriberBuffer = 16

// Event is one progress update of a dub task.
type Event struct {
	TaskId     string              `json:"task_id"`
	Status     types.DubTaskStatus `json:"status"`
	Progress   *types.Progress     `json:"progress,omitempty"`
	FailReason string              `json:"fail_reason,omitempty"`
}

// Hub routes task events to per-task subscribers. Slow subscribers lose
// events instead of blocking the publishing pipeline.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe returns a channel of events for one task plus a cancel func.
// Cancel is idempotent and closes the channel.
func (h *Hub) Subscribe(taskId string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.subs[taskId]
	if !ok {
		set = make(map[chan Event]struct{})
		h.subs[taskId] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[taskId]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, taskId)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of its task.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[event.TaskId] {
		select {
		case ch <- event:
		default:
			log.GetLogger().Debug("dropping event for slow subscriber",
				zap.String("task_id", event.TaskId))
		}
	}
}

// SubscriberCount reports how many subscribers a task currently has.
func (h *Hub) SubscriberCount(taskId string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[taskId])
}
