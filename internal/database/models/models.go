package models

// GetModels returns every table of the fixture data store, for AutoMigrate.
func GetModels() []interface{} {
	return []interface{}{
		&ReportRecord{},
		&CVERecord{},
	}
}

// Table names, referenced with . notation (models.REPORT_RECORDS)
const (
	REPORT_RECORDS = "report_records"
	CVE_RECORDS    = "cve_records"
)
