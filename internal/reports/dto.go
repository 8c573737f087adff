package reports

import "github.com/google/uuid"

// ReportInput is a parsed report-deal request. Reporter comes from the resolved identity.
type ReportInput struct {
	DealID   uuid.UUID
	Reporter uuid.UUID
	Reason   string
	Details  string
}

type ReportResult struct {
	ReportCount int64 `json:"reportCount"`
}
