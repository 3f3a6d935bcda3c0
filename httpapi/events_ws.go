package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zapdos-labs/videopipeline/lifecycle"
)

// eventSubscriber is a single connected /ws/events client.
type eventSubscriber struct {
	id        string
	conn      *websocket.Conn
	sendChan  chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
}

func (s *eventSubscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.closeChan)
	})
}

// eventBroadcaster fans lifecycle status changes out to every connected
// /ws/events client. A client whose send channel is full misses that event
// (it stays subscribed) rather than blocking the broadcaster.
type eventBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]*eventSubscriber
	upgrader    websocket.Upgrader
}

func newEventBroadcaster() *eventBroadcaster {
	return &eventBroadcaster{
		subscribers: make(map[string]*eventSubscriber),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (b *eventBroadcaster) register(sub *eventSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[sub.id] = sub
	log.Printf("[HTTPAPI] Registered event subscriber %s (total=%d)", sub.id, len(b.subscribers))
}

func (b *eventBroadcaster) remove(sub *eventSubscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub.id]; ok {
		delete(b.subscribers, sub.id)
		sub.Close()
		log.Printf("[HTTPAPI] Removed event subscriber %s (total=%d)", sub.id, len(b.subscribers))
	}
}

type statusEvent struct {
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// broadcastStatus fans out a lifecycle status change to every subscriber.
func (b *eventBroadcaster) broadcastStatus(status lifecycle.Status) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.subscribers) == 0 {
		return
	}

	data, err := json.Marshal(statusEvent{
		Type:      "status",
		Status:    status.String(),
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("[HTTPAPI] Failed to marshal status event: %v", err)
		return
	}

	for _, sub := range b.subscribers {
		select {
		case sub.sendChan <- data:
		default:
			log.Printf("[HTTPAPI] Subscriber %s send channel full, dropping status event", sub.id)
		}
	}
}

// handleEventsWS upgrades to a WebSocket and streams lifecycle status
// events until the client disconnects.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.events.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[HTTPAPI] Failed to upgrade /ws/events connection: %v", err)
		return
	}

	sub := &eventSubscriber{
		id:        uuid.New().String(),
		conn:      conn,
		sendChan:  make(chan []byte, 100),
		closeChan: make(chan struct{}),
	}
	s.events.register(sub)
	defer s.events.remove(sub)

	go s.eventSendLoop(sub)
	s.eventReceiveLoop(sub)
}

func (s *Server) eventSendLoop(sub *eventSubscriber) {
	defer sub.conn.Close()
	for {
		select {
		case <-sub.closeChan:
			return
		case data := <-sub.sendChan:
			if err := sub.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("[HTTPAPI] Failed to write to subscriber %s: %v", sub.id, err)
				return
			}
		}
	}
}

// eventReceiveLoop drains and discards client messages, solely to detect
// disconnects (clients never send meaningful data on this stream).
func (s *Server) eventReceiveLoop(sub *eventSubscriber) {
	defer sub.Close()
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[HTTPAPI] Subscriber %s connection error: %v", sub.id, err)
			}
			return
		}
	}
}
