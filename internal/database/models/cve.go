package models

import (
	"gorm.io/gorm"

	"github.com/pynezz/threatdash/pkg/types"
)

// CVERecord caches one CVE lookup and its explanation.
type CVERecord struct {
	gorm.Model

	CVEID         string   `yaml:"cve_id" gorm:"uniqueIndex"`
	Description   string   `yaml:"description"`
	Severity      string   `yaml:"severity"`
	Score         *float64 `yaml:"score"`
	ScoreText     string   `yaml:"score_text"` // used when NVD has no numeric score
	Vector        string   `yaml:"vector"`
	Published     string   `yaml:"published"`
	Updated       string   `yaml:"updated"`
	AIExplanation string   `yaml:"ai_explanation"`
}

// ToResult converts the record to the /cve/{id} representation.
func (c CVERecord) ToResult() types.CVEResult {
	var score types.Score
	switch {
	case c.Score != nil:
		score = types.NewScore(*c.Score)
	case c.ScoreText != "":
		score = types.TextScore(c.ScoreText)
	}
	return types.CVEResult{
		CVEID: c.CVEID,
		Details: types.CVEDetails{
			ID:          c.CVEID,
			Description: c.Description,
			Severity:    c.Severity,
			Score:       score,
			Vector:      c.Vector,
			Published:   c.Published,
			Updated:     c.Updated,
		},
		AIExplanation: c.AIExplanation,
	}
}
