package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"notesync/models"
)

var ErrNotFound = errors.New("note not found on server")

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server answered %d: %s", e.Code, e.Message)
}

// RESTClient implements API over HTTP with Fiber's client agent. The agent
// has no context support, so ctx is only checked before each request.
type RESTClient struct {
	base    string
	timeout time.Duration
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RESTClient{base: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

func (r *RESTClient) url(path string) string {
	return r.base + path
}

func (r *RESTClient) do(ctx context.Context, a *fiber.Agent, want int, out interface{}) error {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return err
	}
	a.Timeout(r.timeout)
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %w", errors.Join(errs...))
	}
	if code == fiber.StatusNotFound {
		return ErrNotFound
	}
	if code != want {
		var msg struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &msg)
		return &StatusError{Code: code, Message: msg.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (r *RESTClient) List(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	err := r.do(ctx, fiber.Get(r.url("/notes")), fiber.StatusOK, &notes)
	return notes, err
}

func (r *RESTClient) Create(ctx context.Context) (models.Note, error) {
	var note models.Note
	err := r.do(ctx, fiber.Post(r.url("/notes")), fiber.StatusCreated, &note)
	return note, err
}

func (r *RESTClient) Update(ctx context.Context, id int, patch models.NotePatch) (models.Note, error) {
	var note models.Note
	a := fiber.Put(r.url("/notes/" + strconv.Itoa(id))).JSON(patch)
	err := r.do(ctx, a, fiber.StatusOK, &note)
	return note, err
}

func (r *RESTClient) Delete(ctx context.Context, id int) error {
	return r.do(ctx, fiber.Delete(r.url("/notes/"+strconv.Itoa(id))), fiber.StatusOK, nil)
}
