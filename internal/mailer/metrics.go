package mailer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	emailsTotal = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Name: "upmail_emails_total",
			Help: "Email log rows written, by status.",
		},
		[]string{"status"},
	)

	apiDuration = promauto.NewHistogram( //nolint:gochecknoglobals
		prometheus.HistogramOpts{
			Name:    "upmail_api_send_duration_seconds",
			Help:    "Duration of POST /v1/send calls.",
			Buckets: prometheus.DefBuckets,
		},
	)
)
