package api

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/pynezz/threatdash/internal/dashboard"
	"github.com/pynezz/threatdash/internal/fetcher"
	"github.com/pynezz/threatdash/internal/render"
	"github.com/pynezz/threatdash/internal/status"
	"github.com/pynezz/threatdash/internal/view"
	"github.com/pynezz/threatdash/internal/voice"
	"github.com/pynezz/threatdash/pkg/types"
)

// path: internal/api/routes.go

// fragment writes one top level element into a response.
type fragment func(*bytes.Buffer) error

func (a *App) setupRoutes() {
	a.Get("/", a.indexHandler)

	ui := a.Group("/ui")
	ui.Get("/reports", a.reportsHandler)
	ui.Post("/ingest", a.ingestHandler)
	ui.Post("/preset", a.presetHandler)
	ui.Post("/reports/:id/toggle", a.toggleHandler)
	ui.Post("/cve", a.cveHandler)
	ui.Post("/voice", a.voiceHandler)
	ui.Post("/nav/:section", a.navHandler)
	ui.Get("/status/:region", a.statusHandler)

	a.Get("/report/:id", a.rawReportHandler)

	a.Use("/ws", upgradeOnly)
	a.Get("/ws", websocket.New(a.hub.serve(a.dash.Board())))
}

// indexHandler handles the root path.
func (a *App) indexHandler(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := a.render.Page(&buf, a.page()); err != nil {
		return err
	}
	return sendHTML(c, &buf)
}

// reportsHandler reloads the report list from the backend.
func (a *App) reportsHandler(c *fiber.Ctx) error {
	_ = a.dash.LoadReports(c.UserContext()) // reflected in the status line
	return a.overviewFragments(c)
}

// ingestHandler runs a feed ingestion followed by a reload.
func (a *App) ingestHandler(c *fiber.Ctx) error {
	_ = a.dash.Ingest(c.UserContext(), c.FormValue("rss"), c.FormValue("count"))
	return a.overviewFragments(c)
}

// presetHandler resolves a preset feed name to its url.
func (a *App) presetHandler(c *fiber.Ctx) error {
	f, err := a.dash.ApplyPreset(c.FormValue("name"))
	if errors.Is(err, dashboard.ErrUnknownFeed) {
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorBody{Detail: err.Error()})
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"name": f.Name, "url": f.URL})
}

// toggleHandler opens or closes a card's deep-dive panel.
func (a *App) toggleHandler(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorBody{Detail: "invalid report id"})
	}

	entry, err := a.dash.ToggleDetails(c.UserContext(), id)
	if errors.Is(err, dashboard.ErrUnknownCard) {
		return c.Status(fiber.StatusNotFound).JSON(types.ErrorBody{Detail: err.Error()})
	}

	snap := a.dash.Snapshot()
	for _, r := range snap.Reports {
		if r.ID == id {
			card := render.NewCard(r, entry)
			return a.fragments(c, func(b *bytes.Buffer) error { return a.render.Card(b, card) })
		}
	}
	// the list was replaced while the detail loaded
	return a.fragments(c, func(b *bytes.Buffer) error { return a.render.Reports(b, snap) })
}

// cveHandler analyzes the submitted CVE id.
func (a *App) cveHandler(c *fiber.Ctx) error {
	_ = a.dash.AnalyzeCVE(c.UserContext(), c.FormValue("cve_id"))
	snap := a.dash.Snapshot()
	return a.fragments(c,
		func(b *bytes.Buffer) error { return a.render.CVE(b, snap.CVE) },
		a.statusFragment(status.RegionCVE),
	)
}

// voiceHandler answers a transcript captured by the browser. Browsers
// without speech recognition post unsupported=1.
func (a *App) voiceHandler(c *fiber.Ctx) error {
	var rec voice.Recognizer
	if c.FormValue("unsupported") == "" {
		rec = voice.Transcript(c.FormValue("transcript"))
	}

	_, err := a.dash.Voice(c.UserContext(), rec)
	if errors.Is(err, voice.ErrBusy) {
		return c.Status(fiber.StatusConflict).JSON(types.ErrorBody{Detail: err.Error()})
	}

	snap := a.dash.Snapshot()
	return a.fragments(c,
		func(b *bytes.Buffer) error { return a.render.Voice(b, snap.Voice) },
		a.statusFragment(status.RegionVoice),
	)
}

// navHandler records the active section.
func (a *App) navHandler(c *fiber.Ctx) error {
	if err := a.dash.Navigate(c.Params("section")); err != nil {
		if errors.Is(err, view.ErrUnknownSection) {
			return c.Status(fiber.StatusNotFound).JSON(types.ErrorBody{Detail: err.Error()})
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// statusHandler returns one status line.
func (a *App) statusHandler(c *fiber.Ctx) error {
	region := status.Region(c.Params("region"))
	for _, r := range status.Regions {
		if r == region {
			return a.fragments(c, a.statusFragment(r))
		}
	}
	return c.Status(fiber.StatusNotFound).JSON(types.ErrorBody{Detail: "unknown status region"})
}

// rawReportHandler proxies the backend's JSON for one report.
func (a *App) rawReportHandler(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrorBody{Detail: "invalid report id"})
	}

	d, err := a.backend.Report(c.UserContext(), id)
	if err != nil {
		code := fiber.StatusBadGateway
		var fe *fetcher.Error
		if errors.As(err, &fe) && fe.Kind == fetcher.KindHTTP {
			code = fe.Status
		}
		return c.Status(code).JSON(types.ErrorBody{Detail: fetcher.Message(err)})
	}
	return c.JSON(d)
}

func (a *App) overviewFragments(c *fiber.Ctx) error {
	snap := a.dash.Snapshot()
	return a.fragments(c,
		func(b *bytes.Buffer) error { return a.render.Overview(b, snap.Overview) },
		func(b *bytes.Buffer) error { return a.render.Reports(b, snap) },
		a.statusFragment(status.RegionOverview),
	)
}

func (a *App) statusFragment(r status.Region) fragment {
	return func(b *bytes.Buffer) error {
		return a.render.Status(b, a.dash.Board().Line(r))
	}
}

// fragments concatenates elements; the page script swaps each one in by id.
func (a *App) fragments(c *fiber.Ctx, parts ...fragment) error {
	var buf bytes.Buffer
	for _, part := range parts {
		if err := part(&buf); err != nil {
			return err
		}
		buf.WriteByte('\n')
	}
	return sendHTML(c, &buf)
}

func sendHTML(c *fiber.Ctx, buf *bytes.Buffer) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
