package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"notesync/models"
	"notesync/repository"
)

var ErrHubStopped = errors.New("hub stopped")

// SessionService joins connections to the hub and records them in the
// presence repository.
type SessionService struct {
	hub    *Hub
	repo   repository.SessionRepositoryInterface
	buffer int
}

func NewSessionService(hub *Hub, repo repository.SessionRepositoryInterface, buffer int) *SessionService {
	if buffer <= 0 {
		buffer = 64
	}
	return &SessionService{hub: hub, repo: repo, buffer: buffer}
}

func (s *SessionService) Join(ctx context.Context, remoteAddr string) (*Client, error) {
	c := NewClient(uuid.NewString(), s.buffer)
	if !s.hub.Register(c) {
		return nil, ErrHubStopped
	}
	session := models.Session{ID: c.ID, RemoteAddr: remoteAddr, ConnectedAt: time.Now().UTC()}
	if err := s.repo.AddSession(ctx, session); err != nil {
		// The session still receives events without a presence record.
		log.Println("Failed to record session:", err)
	}
	return c, nil
}

func (s *SessionService) Leave(ctx context.Context, c *Client) {
	s.hub.Unregister(c)
	if err := s.repo.RemoveSession(ctx, c.ID); err != nil {
		log.Println("Failed to remove session:", err)
	}
}

func (s *SessionService) Sessions(ctx context.Context) ([]models.Session, error) {
	return s.repo.GetSessions(ctx)
}
