package service

import (
	"context"
	"log"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"notesync/models"
)

var connectedSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "notesync_sessions_connected",
	Help: "Number of websocket sessions registered with the hub.",
})

// Client is the hub's view of one session: an id and an outbound queue.
// The queue is closed by the hub when the client is unregistered or dropped.
type Client struct {
	ID   string
	send chan []byte
}

func NewClient(id string, buffer int) *Client {
	return &Client{ID: id, send: make(chan []byte, buffer)}
}

// Send returns the queue of encoded frames for this client.
func (c *Client) Send() <-chan []byte {
	return c.send
}

// membership asks the hub to add or remove a client; ack is closed once applied.
type membership struct {
	client *Client
	ack    chan struct{}
}

type message struct {
	except string // client id to skip, empty for everyone
	data   []byte
}

// Hub fans note events out to every registered client. A single goroutine
// (Run) owns the client set, so frames submitted by one goroutine reach each
// client in submission order.
type Hub struct {
	clients    map[string]*Client
	register   chan membership
	unregister chan membership
	broadcast  chan message
	done       chan struct{}
	count      atomic.Int64
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan membership),
		unregister: make(chan membership),
		broadcast:  make(chan message),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for id, c := range h.clients {
			close(c.send)
			delete(h.clients, id)
		}
		h.setCount()
		close(h.done)
	}()

	for {
		select {
		case r := <-h.register:
			h.clients[r.client.ID] = r.client
			h.setCount()
			close(r.ack)
		case r := <-h.unregister:
			if _, ok := h.clients[r.client.ID]; ok {
				delete(h.clients, r.client.ID)
				h.setCount()
				close(r.client.send)
			}
			close(r.ack)
		case m := <-h.broadcast:
			for id, c := range h.clients {
				if id == m.except {
					continue
				}
				select {
				case c.send <- m.data:
				default:
					log.Printf("Client %s is not keeping up, dropping it", id)
					delete(h.clients, id)
					h.setCount()
					close(c.send)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) setCount() {
	h.count.Store(int64(len(h.clients)))
	connectedSessions.Set(float64(len(h.clients)))
}

// Count reports how many clients are registered.
func (h *Hub) Count() int {
	return int(h.count.Load())
}

// Register adds c to the recipient set and returns once the hub has applied
// it. It returns false if the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	return h.apply(h.register, c)
}

// Unregister removes c and closes its queue. It returns once the hub has
// applied it.
func (h *Hub) Unregister(c *Client) {
	h.apply(h.unregister, c)
}

func (h *Hub) apply(ch chan<- membership, c *Client) bool {
	r := membership{client: c, ack: make(chan struct{})}
	select {
	case ch <- r:
	case <-h.done:
		return false
	}
	<-r.ack
	return true
}

func (h *Hub) publish(except string, e models.Event) {
	data, err := models.EncodeEvent(e)
	if err != nil {
		log.Println("Error encoding event:", err)
		return
	}
	select {
	case h.broadcast <- message{except: except, data: data}:
	case <-h.done:
	}
}

func (h *Hub) NoteCreated(note models.Note) {
	h.publish("", models.NoteCreated{Note: note})
}

// NoteUpdated goes to every client, the one that saved included, so that
// values normalized by the store reach it too.
func (h *Hub) NoteUpdated(note models.Note) {
	h.publish("", models.NoteUpdated{Note: note})
}

func (h *Hub) NoteDeleted(id int) {
	h.publish("", models.NoteDeleted{ID: id})
}

// FieldChanged skips origin: a live edit is never echoed to its author.
func (h *Hub) FieldChanged(origin string, change models.FieldChange) {
	h.publish(origin, models.FieldChanged{Change: change})
}
