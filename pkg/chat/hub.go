// Package chat runs the per-course chat rooms over websockets.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
)

const (
	maxMessageLen = 2000
	historySize   = 50
	sendBuffer    = 16
)

type client struct {
	email string
	send  chan models.ChatMessage
}

// Hub fans chat messages out to every connection in the same course room.
type Hub struct {
	store  repos.ChatRepo
	filter *Filter
	log    *logger.Logger
	now    func() time.Time

	mu    sync.Mutex
	rooms map[int]map[*client]struct{}
}

func NewHub(store repos.ChatRepo, filter *Filter, log *logger.Logger) *Hub {
	if filter == nil {
		filter = NewFilter()
	}
	return &Hub{
		store:  store,
		filter: filter,
		log:    log.With("component", "chat"),
		now:    func() time.Time { return time.Now().UTC() },
		rooms:  map[int]map[*client]struct{}{},
	}
}

func (h *Hub) join(courseID int, email string) *client {
	c := &client{email: email, send: make(chan models.ChatMessage, sendBuffer)}
	h.mu.Lock()
	if h.rooms[courseID] == nil {
		h.rooms[courseID] = map[*client]struct{}{}
	}
	h.rooms[courseID][c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) leave(courseID int, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[courseID][c]; !ok {
		return
	}
	delete(h.rooms[courseID], c)
	close(c.send)
	if len(h.rooms[courseID]) == 0 {
		delete(h.rooms, courseID)
	}
}

// Online reports how many connections a course room has.
func (h *Hub) Online(courseID int) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[courseID])
}

// Post cleans, stores and broadcasts a message.
func (h *Hub) Post(ctx context.Context, courseID int, email, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierr.Validation("message is empty", map[string]string{"message": "is required"})
	}
	if len([]rune(text)) > maxMessageLen {
		return nil, apierr.Validation("message is too long", map[string]string{"message": "is too long"})
	}
	msg := &models.ChatMessage{
		CourseID:  courseID,
		Email:     email,
		Message:   h.filter.Clean(text),
		Timestamp: h.now(),
	}
	if err := h.store.Create(ctx, nil, msg); err != nil {
		return nil, err
	}
	h.broadcast(*msg)
	return msg, nil
}

func (h *Hub) History(ctx context.Context, courseID int) ([]models.ChatMessage, error) {
	return h.store.Recent(ctx, nil, courseID, historySize)
}

// broadcast drops the message for clients whose buffer is full rather than
// blocking the room.
func (h *Hub) broadcast(msg models.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[msg.CourseID] {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("chat client too slow, message dropped", "course", msg.CourseID, "email", c.email)
		}
	}
}
