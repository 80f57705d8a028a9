package mailer

import "github.com/prometheus/client_golang/prometheus"

// EmailsCounter exposes the per status row counter to tests.
func EmailsCounter(status string) prometheus.Counter {
	return emailsTotal.WithLabelValues(status)
}
