package fixture

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pynezz/threatdash/internal/database/models"
	"github.com/pynezz/threatdash/internal/database/stores"
	"github.com/pynezz/threatdash/internal/fs"
	"github.com/pynezz/threatdash/internal/util"
)

//go:embed seed.yaml
var defaultSeed []byte

// Seed is the fixture content.
type Seed struct {
	Reports []models.ReportRecord `yaml:"reports"`
	CVEs    []models.CVERecord    `yaml:"cves"`
	// Feed is returned by every ingestion, whatever the url.
	Feed []models.ReportRecord `yaml:"feed"`
}

// LoadSeed reads a seed file, or the built-in seed when path is empty.
func LoadSeed(path string) (*Seed, error) {
	buf := defaultSeed
	if path != "" {
		var err error
		if buf, err = fs.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return ParseSeed(buf)
}

func ParseSeed(buf []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(buf, &s); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return &s, nil
}

// Apply stores the seed reports and CVEs. Reports are only added to an
// empty database so restarts do not duplicate them.
func (s *Seed) Apply(st *stores.Stores, now time.Time) error {
	empty, err := st.Empty()
	if err != nil {
		return err
	}
	if empty {
		// oldest first, so the first seed entry gets the highest id
		recs := make([]models.ReportRecord, 0, len(s.Reports))
		for i := len(s.Reports) - 1; i >= 0; i-- {
			recs = append(recs, s.Reports[i])
		}
		if _, err := st.SaveReports(recs, now); err != nil {
			return err
		}
		util.PrintInfo(fmt.Sprintf("seeded %d reports", len(recs)))
	}

	for i := range s.CVEs {
		rec := s.CVEs[i]
		if err := st.SaveCVE(&rec); err != nil {
			return fmt.Errorf("seed %s: %w", rec.CVEID, err)
		}
	}
	return nil
}
