package stores

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pynezz/threatdash/internal/database"
	"github.com/pynezz/threatdash/internal/database/models"

	ansi "github.com/pynezz/pynezzentials"
)

// Stores holds one store per model (table) of the fixture database.
type Stores struct {
	Reports *database.DataStore[models.ReportRecord]
	CVEs    *database.DataStore[models.CVERecord]

	db *gorm.DB
}

var ErrNoReport = errors.New("report not found")

func new(db *gorm.DB) (*Stores, error) {
	ansi.PrintInfo("Initializing stores...")

	ansi.PrintInfo("Initializing " + models.REPORT_RECORDS + " store...")
	reports, err := database.NewDataStore[models.ReportRecord](db, models.REPORT_RECORDS)
	if err != nil {
		return nil, err
	}

	ansi.PrintInfo("Initializing " + models.CVE_RECORDS + " store...")
	cves, err := database.NewDataStore[models.CVERecord](db, models.CVE_RECORDS)
	if err != nil {
		return nil, err
	}

	return &Stores{Reports: reports, CVEs: cves, db: db}, nil
}

// ImportAndInit opens the database at path and initializes every store.
func ImportAndInit(path string, conf gorm.Config) (*Stores, error) {
	db, err := database.InitDB(path, conf, models.GetModels()...)
	if err != nil {
		return nil, err
	}

	s, err := new(db)
	if err != nil {
		return nil, err
	}

	ansi.PrintSuccess("initialized all stores")
	return s, nil
}

// Close releases the underlying connection pool.
func (s *Stores) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Empty reports whether no report has been stored yet.
func (s *Stores) Empty() (bool, error) {
	n, err := s.Reports.Count()
	return n == 0, err
}

// ListReports returns every report, newest first.
func (s *Stores) ListReports() ([]models.ReportRecord, error) {
	return s.Reports.All("id desc")
}

// Report returns one report by id.
func (s *Stores) Report(id uint) (*models.ReportRecord, error) {
	rec, err := s.Reports.ByID(id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNoReport
	}
	return rec, err
}

// SaveReports stores a batch of records stamped with now and returns them
// with their ids.
func (s *Stores) SaveReports(recs []models.ReportRecord, now time.Time) ([]models.ReportRecord, error) {
	for i := range recs {
		if recs[i].CreatedAt.IsZero() {
			recs[i].CreatedAt = now
		}
	}
	n, err := s.Reports.InsertBatch(recs)
	if err != nil {
		return nil, fmt.Errorf("save reports: %w", err)
	}
	ansi.PrintDebug(fmt.Sprintf("stored %d reports", n))
	return recs, nil
}

// CVE returns the cached lookup of id.
func (s *Stores) CVE(id string) (*models.CVERecord, error) {
	return s.CVEs.FirstWhere("cve_id = ?", id)
}

// SaveCVE inserts or replaces the cached lookup of rec.CVEID.
func (s *Stores) SaveCVE(rec *models.CVERecord) error {
	existing, err := s.CVE(rec.CVEID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return s.CVEs.Insert(rec)
	case err != nil:
		return err
	}
	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	return s.CVEs.Save(rec)
}
