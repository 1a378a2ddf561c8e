package controllers

import (
	"errors"
	"log"
	"strconv"

	"notesync/models"
	"notesync/repository"

	"github.com/gofiber/fiber/v2"
)

type NoteController struct {
	repo repository.NoteRepositoryInterface
}

func NewNoteController(repo repository.NoteRepositoryInterface) *NoteController {
	return &NoteController{repo: repo}
}

func noteID(c *fiber.Ctx) (int, bool) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func notFoundOrFail(c *fiber.Ctx, err error, action string) error {
	if errors.Is(err, repository.ErrNoteNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Note not found"})
	}
	log.Printf("Error %s note: %v", action, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}

func (nc *NoteController) GetNotes(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(nc.repo.List())
}

func (nc *NoteController) GetNoteByID(c *fiber.Ctx) error {
	id, ok := noteID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid note ID"})
	}
	note, err := nc.repo.Get(id)
	if err != nil {
		return notFoundOrFail(c, err, "getting")
	}
	return c.Status(fiber.StatusOK).JSON(note)
}

func (nc *NoteController) CreateNote(c *fiber.Ctx) error {
	note := nc.repo.Create()
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (nc *NoteController) UpdateNote(c *fiber.Ctx) error {
	id, ok := noteID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid note ID"})
	}
	var patch models.NotePatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	note, err := nc.repo.Update(id, patch)
	if err != nil {
		return notFoundOrFail(c, err, "updating")
	}
	return c.Status(fiber.StatusOK).JSON(note)
}

func (nc *NoteController) DeleteNoteByID(c *fiber.Ctx) error {
	id, ok := noteID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid note ID"})
	}
	if err := nc.repo.Delete(id); err != nil {
		return notFoundOrFail(c, err, "deleting")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Note deleted"})
}
