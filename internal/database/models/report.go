package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/pynezz/threatdash/pkg/types"
)

// ReportRecord is one processed feed article with its analysis.
type ReportRecord struct {
	gorm.Model

	Title           string              `yaml:"title"`
	Link            string              `yaml:"link"`
	Published       string              `yaml:"published"`
	Summary         string              `yaml:"summary"`
	RawText         string              `yaml:"raw_text"`
	Techniques      []string            `yaml:"techniques" gorm:"serializer:json"`
	MatchedKeywords []string            `yaml:"matched_keywords" gorm:"serializer:json"`
	IOCs            *types.IOCSet       `yaml:"iocs" gorm:"serializer:json"`
	Entities        map[string][]string `yaml:"entities" gorm:"serializer:json"`
}

// createdLayout matches the backend's "saved" timestamps.
const createdLayout = "2006-01-02 15:04:05"

// ToReport converts the record to its list representation.
func (r ReportRecord) ToReport() types.Report {
	rep := types.Report{
		ID:        int64(r.ID),
		Title:     r.Title,
		Link:      r.Link,
		Published: r.Published,
		Summary:   r.Summary,
		RawText:   r.RawText,
	}
	if !r.CreatedAt.IsZero() {
		rep.CreatedAt = r.CreatedAt.UTC().Format(createdLayout)
	}
	if len(r.Techniques) > 0 || len(r.MatchedKeywords) > 0 {
		rep.Mitre = &types.MitreMapping{
			Techniques:      r.Techniques,
			MatchedKeywords: r.MatchedKeywords,
		}
	}
	return rep
}

// ToDetail converts the record to the /report/{id} representation.
func (r ReportRecord) ToDetail() types.ReportDetail {
	return types.ReportDetail{
		Report:   r.ToReport(),
		IOCs:     r.IOCs,
		Entities: r.Entities,
	}
}

// NewReportRecord builds a record from a wire report, e.g. an ingested item.
func NewReportRecord(rep types.ReportDetail, now time.Time) ReportRecord {
	rec := ReportRecord{
		Title:     rep.Title,
		Link:      rep.Link,
		Published: rep.Published,
		Summary:   rep.Summary,
		RawText:   rep.RawText,
		IOCs:      rep.IOCs,
		Entities:  rep.Entities,
	}
	rec.CreatedAt = now
	if rep.Mitre != nil {
		rec.Techniques = rep.Mitre.Techniques
		rec.MatchedKeywords = rep.Mitre.MatchedKeywords
	}
	return rec
}
