package controllers

import (
	"context"
	"errors"
	"log"

	"notesync/models"
	"notesync/repository"
	service "notesync/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// NoteSocketController is the realtime gateway: it applies live edits to the
// store, which broadcasts them to every other session. Edits for unknown
// notes are relayed unversioned and not stored.
type NoteSocketController struct {
	repo     repository.NoteRepositoryInterface
	sessions *service.SessionService
}

func NewNoteSocketController(repo repository.NoteRepositoryInterface, sessions *service.SessionService) *NoteSocketController {
	return &NoteSocketController{repo: repo, sessions: sessions}
}

func (wsc *NoteSocketController) HandleWebSocket(c *websocket.Conn) {
	ctx := context.Background()
	client, err := wsc.sessions.Join(ctx, c.RemoteAddr().String())
	if err != nil {
		log.Println("Rejecting connection:", err)
		c.Close()
		return
	}
	log.Printf("Session %s connected", client.ID)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range client.Send() {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("Write error:", err)
				// Unblock the reader; the hub closes the queue on Leave.
				c.Close()
				for range client.Send() {
				}
				return
			}
		}
		// Queue closed by the hub (slow client or shutdown).
		c.Close()
	}()

	defer func() {
		wsc.sessions.Leave(ctx, client)
		<-writerDone
		log.Printf("Session %s disconnected", client.ID)
	}()

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("Read error:", err)
			}
			return
		}
		wsc.handleMessage(client.ID, msg)
	}
}

func (wsc *NoteSocketController) handleMessage(origin string, msg []byte) {
	change, err := models.DecodeFieldChange(msg)
	if err != nil {
		log.Println("Invalid message:", err)
		return
	}
	if _, err := wsc.repo.SetField(origin, change.NoteID, change.Field, change.Value); err != nil {
		if !errors.Is(err, repository.ErrNoteNotFound) {
			log.Println("Error applying change:", err)
		}
	}
}

// RequireUpgrade rejects plain HTTP requests on websocket routes.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

type SessionController struct {
	sessions *service.SessionService
}

func NewSessionController(sessions *service.SessionService) *SessionController {
	return &SessionController{sessions: sessions}
}

func (sc *SessionController) GetSessions(c *fiber.Ctx) error {
	sessions, err := sc.sessions.Sessions(c.UserContext())
	if err != nil {
		log.Println("Failed to get sessions:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get sessions"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"count": len(sessions), "sessions": sessions})
}
