package api

import (
	"embed"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/pynezz/threatdash/internal/config"
	"github.com/pynezz/threatdash/internal/dashboard"
	"github.com/pynezz/threatdash/internal/render"
	"github.com/pynezz/threatdash/internal/util"
	"github.com/pynezz/threatdash/internal/voice"
	"github.com/pynezz/threatdash/pkg/version"
)

//go:embed static
var staticFS embed.FS

// App is the web dashboard.
type App struct {
	*fiber.App

	dash    *dashboard.Dashboard
	backend dashboard.Backend
	render  *render.Renderer
	hub     *Hub

	mu    sync.RWMutex
	cfg   *config.Cfg
	now   func() time.Time
	quiet bool
}

// Option configures the web dashboard.
type Option func(*App)

// WithQuietLog disables per request logging.
func WithQuietLog() Option {
	return func(a *App) { a.quiet = true }
}

// WithClock replaces time.Now for the page clock.
func WithClock(now func() time.Time) Option {
	return func(a *App) { a.now = now }
}

// NewServer initializes the web dashboard. Status changes on the dashboard's
// board are pushed to websocket clients.
// Renamed config.Config to config.Cfg to avoid confusion with the Fiber Config struct
func NewServer(cfg *config.Cfg, dash *dashboard.Dashboard, backend dashboard.Backend, opts ...Option) *App {
	a := &App{
		dash:    dash,
		backend: backend,
		render:  render.MustNew(),
		hub:     NewHub(),
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	// Configure the fiber server with values from the config file
	a.App = fiber.New(fiber.Config{
		AppName:               "threatdash",
		DisableStartupMessage: true,
		ReadTimeout:           time.Duration(cfg.Network.ReadTimeout) * time.Second,
		WriteTimeout:          time.Duration(cfg.Network.WriteTimeout) * time.Second,
	})

	util.PrintInfo(fmt.Sprintf(
		"Dashboard configured with\n\tbackend: %s\n\tread timeout: %d\n\twrite timeout: %d",
		cfg.Backend.URL, cfg.Network.ReadTimeout, cfg.Network.WriteTimeout))

	// Middleware
	if !a.quiet {
		a.Use(logger.New()) // Log every request
	}
	a.Use("/static", filesystem.New(filesystem.Config{
		Root:       http.FS(staticFS),
		PathPrefix: "static",
	}))

	dash.Board().AddSink(a.hub)
	a.setupRoutes()
	return a
}

// Hub returns the websocket status hub.
func (a *App) Hub() *Hub { return a.hub }

// SetConfig swaps the config shown on the settings section and the preset
// feeds, e.g. after the config file changed.
func (a *App) SetConfig(cfg *config.Cfg) {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
	a.dash.SetFeeds(cfg.Feeds)
}

func (a *App) config() *config.Cfg {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

func (a *App) page() render.Page {
	cfg := a.config()
	p := render.NewPage(a.dash.Snapshot(), a.dash.Board().Lines(), a.dash.Feeds(), a.now())
	p.Version = version.Version()
	p.Backend = cfg.Backend.URL
	p.Mic = render.MicText{Listening: voice.MsgListening, CaptureErr: voice.MsgCaptureErr, Prompt: voice.MsgPrompt}
	if cfg.Backend.Timeout > 0 {
		p.Timeout = fmt.Sprintf("%ds", cfg.Backend.Timeout)
	} else {
		p.Timeout = "none"
	}
	return p
}
