package routes

import (
	"notesync/controllers"

	"github.com/gofiber/fiber/v2"
)

func NoteRoutes(app *fiber.App, noteController *controllers.NoteController) {
	app.Get("/notes", noteController.GetNotes)
	app.Post("/notes", noteController.CreateNote)
	app.Get("/notes/:id", noteController.GetNoteByID)
	app.Put("/notes/:id", noteController.UpdateNote)
	app.Delete("/notes/:id", noteController.DeleteNoteByID)
}
