package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransaction(t *testing.T) {
	m := New()

	m.RecordTransaction("outbound", "기타", "ok")
	m.RecordTransaction("outbound", "기타", "ok")
	m.RecordTransaction("inbound", "", "rejected")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TransactionsTotal.WithLabelValues("outbound", "기타", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransactionsTotal.WithLabelValues("inbound", "none", "rejected")))
}

func TestIntegrityGauge(t *testing.T) {
	m := New()
	m.SetIntegrityViolations(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IntegrityViolations))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTransaction("move", "", "ok")
		m.RecordExchangeProcessed("ok")
		m.SetIntegrityViolations(1)
		m.TransactionStarted()
		m.TransactionFinished()
	})
}
