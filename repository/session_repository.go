package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/go-redis/redis/v8"

	"notesync/models"
)

// SessionRepositoryInterface tracks connected sessions. Nothing about note
// state depends on it.
type SessionRepositoryInterface interface {
	AddSession(ctx context.Context, s models.Session) error
	RemoveSession(ctx context.Context, id string) error
	GetSessions(ctx context.Context) ([]models.Session, error)
}

const sessionsKey = "notesync:sessions"

type RedisSessionRepository struct {
	client *redis.Client
	key    string
}

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, key: sessionsKey}
}

func (r *RedisSessionRepository) AddSession(ctx context.Context, s models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, r.key, s.ID, data).Err()
}

func (r *RedisSessionRepository) RemoveSession(ctx context.Context, id string) error {
	return r.client.HDel(ctx, r.key, id).Err()
}

func (r *RedisSessionRepository) GetSessions(ctx context.Context) ([]models.Session, error) {
	data, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	sessions := []models.Session{}
	for _, item := range data {
		var s models.Session
		if err := json.Unmarshal([]byte(item), &s); err == nil {
			sessions = append(sessions, s)
		}
	}
	sortSessions(sessions)
	return sessions, nil
}

type MemorySessionRepository struct {
	sessions map[string]models.Session
	mu       sync.RWMutex
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[string]models.Session)}
}

func (m *MemorySessionRepository) AddSession(_ context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemorySessionRepository) RemoveSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionRepository) GetSessions(_ context.Context) ([]models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]models.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	sortSessions(sessions)
	return sessions, nil
}

func sortSessions(sessions []models.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].ConnectedAt.Equal(sessions[j].ConnectedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].ConnectedAt.Before(sessions[j].ConnectedAt)
	})
}
