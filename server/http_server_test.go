package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesync/configs"
)

func newTestServer(t *testing.T, cfg configs.Config) *Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s := New(cfg, Options{})
	s.Start(ctx)
	return s
}

func body(t *testing.T, r io.Reader) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.NewDecoder(r).Decode(&m))
	return m
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, configs.Default())
	resp, err := s.App.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "UP", body(t, resp.Body)["status"])
}

func TestUnknownRouteIsJSONError(t *testing.T) {
	s := newTestServer(t, configs.Default())
	resp, err := s.App.Test(httptest.NewRequest("GET", "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body(t, resp.Body), "error")
}

func TestPanicRecovered(t *testing.T) {
	s := newTestServer(t, configs.Default())
	s.App.Get("/boom", func(*fiber.Ctx) error { panic("boom") })

	resp, err := s.App.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", body(t, resp.Body)["error"])
}

func TestAcceptEmptyReachesStore(t *testing.T) {
	cfg := configs.Default()
	cfg.AcceptEmpty = true
	s := newTestServer(t, cfg)
	s.Notes.Create()

	req := httptest.NewRequest("PUT", "/notes/1", strings.NewReader(`{"title":"","content":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	note, err := s.Notes.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "", note.Title)
	assert.Equal(t, "x", note.Content)
}

func TestSessionsEmpty(t *testing.T) {
	s := newTestServer(t, configs.Default())
	resp, err := s.App.Test(httptest.NewRequest("GET", "/sessions", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 0, body(t, resp.Body)["count"])
}
