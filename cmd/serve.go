package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"notesync/configs"
	"notesync/repository"
	"notesync/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the notes server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	opts := server.Options{Metrics: true, RequestLog: true}
	if cfg.RedisAddr != "" {
		rdb, err := configs.ConnectRedis(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts.Presence = repository.NewRedisSessionRepository(rdb)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, opts)
	srv.Start(ctx)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := srv.App.Shutdown(); err != nil {
			log.Println("Shutdown error:", err)
		}
	}()

	log.Printf("Starting server on port %d...", cfg.Port)
	if err := srv.App.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
