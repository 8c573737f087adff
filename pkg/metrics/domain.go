package metrics

import "github.com/prometheus/client_golang/prometheus"

// Verification code outcomes.
const (
	CodeOutcomeSent     = "sent"
	CodeOutcomeVerified = "verified"
	CodeOutcomeRejected = "rejected"
)

// DomainMetrics counts board activity: votes, reports and verification codes.
type DomainMetrics struct {
	votes   *prometheus.CounterVec
	reports *prometheus.CounterVec
	codes   *prometheus.CounterVec
}

// NewDomainMetrics registers the board counters on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	votes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dealboard_votes_total",
		Help: "Votes accepted, by vote type.",
	}, []string{"type"})
	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dealboard_reports_total",
		Help: "Deal reports accepted, by reason.",
	}, []string{"reason"})
	codes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dealboard_verification_codes_total",
		Help: "Verification code events, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(votes, reports, codes)
	return &DomainMetrics{
		votes:   votes,
		reports: reports,
		codes:   codes,
	}
}

func (d *DomainMetrics) IncVote(voteType string) {
	if d == nil || d.votes == nil {
		return
	}
	d.votes.WithLabelValues(normalizeLabel(voteType)).Inc()
}

func (d *DomainMetrics) IncReport(reason string) {
	if d == nil || d.reports == nil {
		return
	}
	d.reports.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (d *DomainMetrics) IncVerificationCode(outcome string) {
	if d == nil || d.codes == nil {
		return
	}
	d.codes.WithLabelValues(normalizeLabel(outcome)).Inc()
}
