package enums

import "fmt"

// ReportReason classifies a user report against a deal.
type ReportReason string

const (
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonInappropriate ReportReason = "inappropriate"
	ReportReasonExpired       ReportReason = "expired"
	ReportReasonMisleading    ReportReason = "misleading"
)

var validReportReasons = []ReportReason{
	ReportReasonSpam,
	ReportReasonInappropriate,
	ReportReasonExpired,
	ReportReasonMisleading,
}

// String implements fmt.Stringer.
func (v ReportReason) String() string {
	return string(v)
}

// IsValid reports whether the value is a known ReportReason.
func (v ReportReason) IsValid() bool {
	for _, candidate := range validReportReasons {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseReportReason converts raw input into a ReportReason.
func ParseReportReason(value string) (ReportReason, error) {
	for _, candidate := range validReportReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report reason %q", value)
}

// RequiresDetails reports whether reports with this reason must carry a written explanation.
func (v ReportReason) RequiresDetails() bool {
	return v == ReportReasonSpam || v == ReportReasonMisleading
}
