package cli

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/idkeeper/internal/client/client"
	"github.com/dmitrijs2005/idkeeper/internal/client/config"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config *config.Config
	api    client.Client
	reader *bufio.Reader
	out    io.Writer

	token    string
	userName string

	mu   sync.Mutex
	mode Mode
}

func NewApp(c *config.Config) (*App, error) {
	apiClient, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		return nil, err
	}

	return &App{config: c, api: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

// Run starts the connectivity watcher and blocks in the REPL until the user
// exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Println("Welcome to idkeeper CLI (type 'help' for commands)")

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)

	a.forget()
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode != mode {
		a.mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) getStatus() string {
	var parts []string
	if a.userName != "" {
		parts = append(parts, a.userName)
	}
	if m := a.currentMode(); m != "" {
		parts = append(parts, string(m))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// StartOnlineStatusWatcher pings the server every interval until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	check := func() {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := a.api.Ping(pctx); err != nil {
			a.setMode(ModeOffline)
			return
		}
		a.setMode(ModeOnline)
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}
