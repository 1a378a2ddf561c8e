package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"notesync/client"
	"notesync/models"
)

var (
	watchServer   string
	watchDebounce int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the shared notes from a headless client and log every render",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchServer, "server", "http://localhost:3000", "server base URL")
	watchCmd.Flags().IntVar(&watchDebounce, "debounce-ms", -1, "input debounce (overrides DEBOUNCE_MS)")
}

type logSidebar struct{}

func (logSidebar) Render(notes []models.Note, activeID int) {
	titles := make([]string, 0, len(notes))
	for _, n := range notes {
		mark := " "
		if n.ID == activeID {
			mark = "*"
		}
		titles = append(titles, mark+n.Title)
	}
	log.Printf("notes: [%s]", strings.Join(titles, ", "))
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	debounce := cfg.Debounce
	if watchDebounce >= 0 {
		debounce = msDuration(watchDebounce)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sock, err := client.Dial(ctx, client.WebSocketURL(watchServer))
	if err != nil {
		return err
	}
	defer sock.Close()

	engine := client.NewEngine(client.NewRESTClient(watchServer, 0), sock, client.Options{
		Debounce: debounce,
		Sidebar:  logSidebar{},
	})
	defer engine.Close()

	if err := engine.Load(ctx); err != nil {
		return err
	}
	if err := sock.Listen(ctx, engine.HandleFrame); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
