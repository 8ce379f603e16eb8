// Package fixture is a stand-in for the threat-intel backend. It serves the
// same five endpoints from a sqlite store seeded with canned records, so the
// dashboard can be developed and tested without the analysis pipeline.
package fixture

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/pynezz/threatdash/internal/database"
	"github.com/pynezz/threatdash/internal/database/models"
	"github.com/pynezz/threatdash/internal/database/stores"
	"github.com/pynezz/threatdash/internal/middleware"
	"github.com/pynezz/threatdash/internal/util"
	"github.com/pynezz/threatdash/pkg/types"
)

// defaultMaxItems matches the backend's IngestRequest default.
const defaultMaxItems = 5

// Options configures the fixture server.
type Options struct {
	// Secret enables bearer token auth on every endpoint when set.
	Secret string
	// Quiet disables request logging.
	Quiet bool
	// Now is the clock used for saved timestamps.
	Now func() time.Time
}

type server struct {
	stores *stores.Stores
	feed   []models.ReportRecord
	now    func() time.Time
}

// NewServer builds the fiber app serving st. feed is what ingestion returns.
func NewServer(st *stores.Stores, seed *Seed, opts Options) *fiber.App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &server{stores: st, now: opts.Now}
	if seed != nil {
		s.feed = seed.Feed
	}

	app := fiber.New(fiber.Config{
		AppName:               "threatdash-fixture",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	if !opts.Quiet {
		app.Use(logger.New())
	}
	if opts.Secret != "" {
		app.Use(middleware.AuthMiddleware(opts.Secret))
	}

	app.Post("/ingest", s.ingest)
	app.Get("/reports", s.reports)
	app.Get("/report/:id", s.report)
	app.Get("/cve/:id", s.cve)
	app.Post("/voice_query", s.voiceQuery)

	return app
}

// errorHandler renders every error in the {"detail": ...} shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		util.PrintError("fixture: " + err.Error())
	}
	return c.Status(code).JSON(types.ErrorBody{Detail: err.Error()})
}

func (s *server) ingest(c *fiber.Ctx) error {
	var req types.IngestRequest
	req.MaxItems = defaultMaxItems
	req.Save = true
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid request body")
	}

	u, err := url.Parse(strings.TrimSpace(req.RSSURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("could not fetch feed %q", req.RSSURL))
	}

	n := req.MaxItems
	if n <= 0 || n > len(s.feed) {
		n = len(s.feed)
	}
	recs := make([]models.ReportRecord, n)
	copy(recs, s.feed[:n])

	if req.Save {
		if recs, err = s.stores.SaveReports(recs, s.now()); err != nil {
			return err
		}
	}

	items := make([]types.ReportDetail, 0, len(recs))
	for _, r := range recs {
		items = append(items, r.ToDetail())
	}
	return c.JSON(fiber.Map{"count": len(items), "items": items})
}

func (s *server) reports(c *fiber.Ctx) error {
	recs, err := s.stores.ListReports()
	if err != nil {
		return err
	}
	items := make([]types.Report, 0, len(recs))
	for _, r := range recs {
		items = append(items, r.ToReport())
	}
	count := len(items)
	return c.JSON(types.ReportList{Count: &count, Items: items})
}

func (s *server) report(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		// structured validation detail, like the backend's framework emits
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"detail": []fiber.Map{{"loc": []string{"path", "report_id"}, "msg": "value is not a valid integer"}},
		})
	}

	rec, err := s.stores.Report(uint(id))
	if errors.Is(err, stores.ErrNoReport) {
		return fiber.NewError(fiber.StatusNotFound, "Report not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(rec.ToDetail())
}

func (s *server) cve(c *fiber.Ctx) error {
	raw, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		raw = c.Params("id")
	}
	id := strings.ToUpper(strings.TrimSpace(raw))

	var res types.CVEResult
	rec, err := s.stores.CVE(id)
	switch {
	case errors.Is(err, database.ErrNotFound):
		res = types.CVEResult{CVEID: id, Details: unknownCVE(id)}
	case err != nil:
		return err
	default:
		res = rec.ToResult()
	}
	if res.AIExplanation == "" {
		res.AIExplanation = Explain(res.Details)
	}
	return c.JSON(res)
}

func (s *server) voiceQuery(c *fiber.Ctx) error {
	var q types.VoiceQuery
	if err := c.BodyParser(&q); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid request body")
	}
	return c.JSON(types.VoiceResponse{Response: Answer(q.Query)})
}
