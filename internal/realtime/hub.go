// Package realtime pushes change notifications to connected clients over
// websockets: new messages to the receiver's global feed and the open
// conversation, offer status changes to the open conversation.
package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"skillswap/internal/storage"
)

// Event types pushed to subscribers.
const (
	EventMessage     = "message"
	EventOfferUpdate = "offer_update"
)

// Event is one push notification. Message events carry the full message;
// offer events carry only the offer (embedded by reference in messages, so
// clients refetch the message list instead of patching it).
type Event struct {
	Type    string           `json:"type"`
	Message *storage.Message `json:"message,omitempty"`
	Offer   *storage.Offer   `json:"offer,omitempty"`
}

// replayLimit bounds the per-conversation ring of recent messages flushed
// to late joiners.
const replayLimit = 50

// Hub tracks subscribers by user id (global feed) and by conversation id
// (per-conversation feed).
type Hub struct {
	logger *zap.SugaredLogger

	mu     sync.Mutex
	users  map[int64]map[*Client]struct{}
	rooms  map[int64]map[*Client]struct{}
	recent map[int64][]storage.Message
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		logger: logger,
		users:  make(map[int64]map[*Client]struct{}),
		rooms:  make(map[int64]map[*Client]struct{}),
		recent: make(map[int64][]storage.Message),
	}
}

// Register subscribes a connection to the user's global feed and, when
// conversation is non-zero, to that conversation's feed. Recent messages of
// the conversation are replayed so a late joiner catches up; the client
// merges them by id, so replays never duplicate. Pumps run until the peer
// disconnects.
func (h *Hub) Register(conn *websocket.Conn, user, conversation int64) *Client {
	c := &Client{
		hub:          h,
		conn:         conn,
		userID:       user,
		conversation: conversation,
		send:         make(chan Event, sendBuffer),
	}

	h.mu.Lock()
	if h.users[user] == nil {
		h.users[user] = make(map[*Client]struct{})
	}
	h.users[user][c] = struct{}{}

	if conversation != 0 {
		if h.rooms[conversation] == nil {
			h.rooms[conversation] = make(map[*Client]struct{})
		}
		h.rooms[conversation][c] = struct{}{}

		for i := range h.recent[conversation] {
			msg := h.recent[conversation][i]
			c.enqueue(Event{Type: EventMessage, Message: &msg})
		}
	}
	h.mu.Unlock()

	h.logger.Debugf("Client subscribed: user %d, conversation %d", user, conversation)

	go c.writePump()
	go c.readPump()

	return c
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, member := set[c]; !member {
		return // already unregistered
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.users, c.userID)
	}
	if c.conversation != 0 {
		if set, ok := h.rooms[c.conversation]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(h.rooms, c.conversation)
			}
		}
	}

	close(c.send)

	h.logger.Debugf("Client unsubscribed: user %d", c.userID)
}

// BroadcastMessage pushes a freshly persisted message to the conversation's
// subscribers and to the receiver's global feed, and records it in the
// conversation's replay ring.
func (h *Hub) BroadcastMessage(msg storage.Message) {
	ev := Event{Type: EventMessage, Message: &msg}

	h.mu.Lock()
	defer h.mu.Unlock()

	ring := Merge(h.recent[msg.ConversationID], msg)
	if len(ring) > replayLimit {
		ring = ring[len(ring)-replayLimit:]
	}
	h.recent[msg.ConversationID] = ring

	targets := make(map[*Client]struct{})
	for c := range h.rooms[msg.ConversationID] {
		targets[c] = struct{}{}
	}
	for c := range h.users[msg.ReceiverID] {
		targets[c] = struct{}{}
	}
	for c := range targets {
		c.enqueue(ev)
	}
}

// BroadcastOfferUpdate pushes an offer status change to the conversation's
// subscribers.
func (h *Hub) BroadcastOfferUpdate(offer storage.Offer) {
	ev := Event{Type: EventOfferUpdate, Offer: &offer}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.rooms[offer.ConversationID] {
		c.enqueue(ev)
	}
}
