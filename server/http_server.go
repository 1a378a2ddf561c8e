package server

import (
	"context"
	"errors"
	"log"

	"notesync/configs"
	"notesync/controllers"
	"notesync/repository"
	"notesync/routes"
	service "notesync/services"

	fiberprometheus "github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Options struct {
	Metrics    bool // expose /metrics; registers with the default Prometheus registry
	RequestLog bool
	Presence   repository.SessionRepositoryInterface
}

// Server is the composition root: one hub, one note store, one app.
type Server struct {
	App      *fiber.App
	Hub      *service.Hub
	Notes    *repository.NoteRepository
	Sessions *service.SessionService
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code == fiber.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

func New(cfg configs.Config, opts Options) *Server {
	hub := service.NewHub()
	notes := repository.NewNoteRepository(hub, repository.WithAcceptEmpty(cfg.AcceptEmpty))

	presence := opts.Presence
	if presence == nil {
		presence = repository.NewMemorySessionRepository()
	}
	sessions := service.NewSessionService(hub, presence, cfg.SessionBuffer)

	app := fiber.New(fiber.Config{
		AppName:      "notesync",
		ErrorHandler: errorHandler,
	})

	if opts.Metrics {
		p := fiberprometheus.New("notesync")
		p.RegisterAt(app, "/metrics")
		app.Use(p.Middleware)
	}
	app.Use(recover.New())
	if opts.RequestLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,OPTIONS",
	}))

	routes.NoteRoutes(app, controllers.NewNoteController(notes))
	routes.WebSocketRoutes(app,
		controllers.NewNoteSocketController(notes, sessions),
		controllers.NewSessionController(sessions),
	)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "UP",
		})
	})

	return &Server{App: app, Hub: hub, Notes: notes, Sessions: sessions}
}

// Start runs the hub until ctx is done. Call it before serving traffic.
func (s *Server) Start(ctx context.Context) {
	go s.Hub.Run(ctx)
}
