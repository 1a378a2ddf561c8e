package routes

import (
	"notesync/controllers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

func WebSocketRoutes(app *fiber.App, wsController *controllers.NoteSocketController, sessionController *controllers.SessionController) {
	app.Use("/ws", controllers.RequireUpgrade)
	app.Get("/ws", websocket.New(wsController.HandleWebSocket))
	app.Get("/sessions", sessionController.GetSessions)
}
