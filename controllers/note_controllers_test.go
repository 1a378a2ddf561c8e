package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"notesync/models"
	"notesync/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupNoteApp(opts ...repository.StoreOption) (*fiber.App, *repository.NoteRepository) {
	app := fiber.New()
	repo := repository.NewNoteRepository(nil, opts...)
	noteController := NewNoteController(repo)

	app.Get("/notes", noteController.GetNotes)
	app.Post("/notes", noteController.CreateNote)
	app.Get("/notes/:id", noteController.GetNoteByID)
	app.Put("/notes/:id", noteController.UpdateNote)
	app.Delete("/notes/:id", noteController.DeleteNoteByID)

	return app, repo
}

func putJSON(t *testing.T, app *fiber.App, path, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("PUT", path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var respBody map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&respBody)
	return resp.StatusCode, respBody
}

func TestCreateNote_Success(t *testing.T) {
	app, _ := setupNoteApp()

	req := httptest.NewRequest("POST", "/notes", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var note models.Note
	err = json.NewDecoder(resp.Body).Decode(&note)
	assert.NoError(t, err)
	assert.Equal(t, models.Note{ID: 1, Title: "New Note", Content: "", Version: 1}, note)
}

func TestGetNotes_CreationOrder(t *testing.T) {
	app, repo := setupNoteApp()
	repo.Create()
	repo.Create()

	resp, err := app.Test(httptest.NewRequest("GET", "/notes", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var notes []models.Note
	_ = json.NewDecoder(resp.Body).Decode(&notes)
	require.Len(t, notes, 2)
	assert.Equal(t, 1, notes[0].ID)
	assert.Equal(t, 2, notes[1].ID)
}

func TestGetNotes_EmptyIsArray(t *testing.T) {
	app, _ := setupNoteApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/notes", nil), -1)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.JSONEq(t, `[]`, buf.String())
}

func TestGetNoteByID(t *testing.T) {
	app, repo := setupNoteApp()
	repo.Create()

	resp, err := app.Test(httptest.NewRequest("GET", "/notes/1", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/notes/2", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var respBody map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&respBody)
	assert.Equal(t, "Note not found", respBody["error"])
}

func TestUpdateNote_Success(t *testing.T) {
	app, repo := setupNoteApp()
	repo.Create()

	code, body := putJSON(t, app, "/notes/1", `{"title":"Groceries","content":"eggs"}`)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Groceries", body["title"])
	assert.Equal(t, "eggs", body["content"])
	assert.EqualValues(t, 2, body["version"])
}

func TestUpdateNote_EmptyTitleKeepsStoredTitle(t *testing.T) {
	app, repo := setupNoteApp()
	repo.Create()

	code, body := putJSON(t, app, "/notes/1", `{"title":"","content":"hello"}`)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "New Note", body["title"])
	assert.Equal(t, "hello", body["content"])

	note, err := repo.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "New Note", note.Title)
}

func TestUpdateNote_AcceptEmpty(t *testing.T) {
	app, repo := setupNoteApp(repository.WithAcceptEmpty(true))
	repo.Create()

	code, body := putJSON(t, app, "/notes/1", `{"title":""}`)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "", body["title"])
}

func TestUpdateNote_Errors(t *testing.T) {
	app, repo := setupNoteApp()
	repo.Create()

	code, body := putJSON(t, app, "/notes/7", `{"title":"x"}`)
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "Note not found", body["error"])

	code, body = putJSON(t, app, "/notes/1", `invalid json`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid JSON", body["error"])

	code, body = putJSON(t, app, "/notes/abc", `{"title":"x"}`)
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Invalid note ID", body["error"])
}

func TestDeleteNoteByID(t *testing.T) {
	app, repo := setupNoteApp()
	repo.Create()

	resp, err := app.Test(httptest.NewRequest("DELETE", "/notes/1", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var respBody map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&respBody)
	assert.Equal(t, "Note deleted", respBody["message"])
	assert.Empty(t, repo.List())

	resp, err = app.Test(httptest.NewRequest("DELETE", "/notes/1", nil), -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
