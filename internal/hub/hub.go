// Package hub tracks live realtime connections and detects silent failures.
// Each heartbeat cycle probes every registered client and arms an independent
// per-connection timeout; a client that misses the ack deadline is force
// closed and removed. One dead client never stalls delivery to the rest.
package hub

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var probeMessage = []byte(`{"type":"heartbeat"}`)

// Client is one registered connection. Send is drained by the transport's
// write loop; closeFn force-closes the underlying socket on eviction.
type Client struct {
	ID      string
	Send    chan []byte
	ack     chan struct{}
	closeFn func()
	once    sync.Once
}

func NewClient(id string, closeFn func()) *Client {
	return &Client{
		ID:      id,
		Send:    make(chan []byte, 16),
		ack:     make(chan struct{}, 1),
		closeFn: closeFn,
	}
}

// Ack records a heartbeat response. Any inbound frame counts.
func (c *Client) Ack() {
	select {
	case c.ack <- struct{}{}:
	default:
	}
}

func (c *Client) drainAck() {
	select {
	case <-c.ack:
	default:
	}
}

func (c *Client) trySend(payload []byte) {
	select {
	case c.Send <- payload:
	default:
		logrus.Warnf("drop message for client %s", c.ID)
	}
}

func (c *Client) shutdown() {
	c.once.Do(func() {
		close(c.Send)
		if c.closeFn != nil {
			c.closeFn()
		}
	})
}

type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	interval time.Duration
	timeout  time.Duration
}

func New(interval, timeout time.Duration) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		interval: interval,
		timeout:  timeout,
	}
}

// Register adds the client and sends the initial liveness probe.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	client.trySend(probeMessage)
}

// Unregister removes the client and closes its channel and socket. Safe to
// call more than once for the same client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	client.shutdown()
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast fans the payload out to every registered client, best effort.
// Slow clients get messages dropped, never waited on.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.trySend(payload)
	}
}

// Run drives the heartbeat cycle until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep(ctx)
		}
	}
}

func (h *Hub) sweep(ctx context.Context) {
	h.mu.RLock()
	probed := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		client.drainAck()
		client.trySend(probeMessage)
		probed = append(probed, client)
	}
	h.mu.RUnlock()

	for _, client := range probed {
		go h.awaitAck(ctx, client)
	}
}

func (h *Hub) awaitAck(ctx context.Context, client *Client) {
	timer := time.NewTimer(h.timeout)
	defer timer.Stop()
	select {
	case <-client.ack:
	case <-timer.C:
		logrus.Infof("heartbeat timeout, dropping client %s", client.ID)
		h.Unregister(client)
	case <-ctx.Done():
	}
}
