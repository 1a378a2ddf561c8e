package service

import (
	"context"
	"testing"
	"time"

	"notesync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub()
	go h.Run(ctx)
	return h
}

func recv(t *testing.T, c *Client) models.Event {
	t.Helper()
	select {
	case msg, ok := <-c.Send():
		require.True(t, ok, "queue closed")
		ev, err := models.DecodeEvent(msg)
		require.NoError(t, err)
		return ev
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID)
		return nil
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.Send():
		t.Fatalf("client %s got unexpected frame %s", c.ID, msg)
	default:
	}
}

func TestFieldChangedSkipsOrigin(t *testing.T) {
	h := startHub(t)
	sender, receiver := NewClient("sender", 8), NewClient("receiver", 8)
	require.True(t, h.Register(sender))
	require.True(t, h.Register(receiver))

	change := models.FieldChange{NoteID: 1, Field: models.FieldContent, Value: "hello", Version: 2}
	h.FieldChanged("sender", change)
	// A full update afterwards acts as a barrier: once the sender sees it,
	// the live edit has been dispatched too.
	h.NoteUpdated(models.Note{ID: 1, Title: "New Note", Content: "hello", Version: 3})

	assert.Equal(t, models.FieldChanged{Change: change}, recv(t, receiver))
	assert.Equal(t, models.EventNoteUpdated, recv(t, receiver).Name())

	assert.Equal(t, models.EventNoteUpdated, recv(t, sender).Name(), "full updates reach the saver")
	assertEmpty(t, sender)
}

func TestBroadcastsReachEveryone(t *testing.T) {
	h := startHub(t)
	a, b := NewClient("a", 8), NewClient("b", 8)
	h.Register(a)
	h.Register(b)

	h.NoteCreated(models.Note{ID: 1, Title: "New Note", Version: 1})
	h.NoteDeleted(1)

	for _, c := range []*Client{a, b} {
		assert.Equal(t, models.NoteCreated{Note: models.Note{ID: 1, Title: "New Note", Version: 1}}, recv(t, c))
		assert.Equal(t, models.NoteDeleted{ID: 1}, recv(t, c))
	}
	assert.Equal(t, 2, h.Count())
}

func TestPerClientOrder(t *testing.T) {
	h := startHub(t)
	c := NewClient("c", 64)
	h.Register(c)

	for v := uint64(1); v <= 50; v++ {
		h.FieldChanged("other", models.FieldChange{NoteID: 1, Field: models.FieldTitle, Value: "t", Version: v})
	}
	for v := uint64(1); v <= 50; v++ {
		ev := recv(t, c).(models.FieldChanged)
		assert.Equal(t, v, ev.Change.Version)
	}
}

func TestUnregisterClosesQueue(t *testing.T) {
	h := startHub(t)
	c := NewClient("c", 1)
	h.Register(c)
	h.Unregister(c)
	h.Unregister(c)

	_, ok := <-c.Send()
	assert.False(t, ok)
	assert.Equal(t, 0, h.Count())
}

func TestCountIsCurrentOnReturn(t *testing.T) {
	h := startHub(t)
	for i := 0; i < 100; i++ {
		c := NewClient("c", 1)
		require.True(t, h.Register(c))
		require.Equal(t, 1, h.Count())
		h.Unregister(c)
		require.Equal(t, 0, h.Count())
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	h := startHub(t)
	slow, fast := NewClient("slow", 1), NewClient("fast", 4)
	h.Register(slow)
	h.Register(fast)

	h.NoteDeleted(1)
	h.NoteDeleted(2)
	h.NoteDeleted(3)

	for id := 1; id <= 3; id++ {
		assert.Equal(t, models.NoteDeleted{ID: id}, recv(t, fast))
	}

	assert.Equal(t, models.NoteDeleted{ID: 1}, recv(t, slow))
	_, ok := <-slow.Send()
	assert.False(t, ok, "slow client queue is closed")
	assert.Equal(t, 1, h.Count())
}

func TestStoppedHubDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	c := NewClient("c", 1)
	h.Register(c)
	cancel()
	<-done

	_, ok := <-c.Send()
	assert.False(t, ok)
	assert.False(t, h.Register(NewClient("late", 1)))
	h.NoteDeleted(1)
	h.Unregister(c)
}
