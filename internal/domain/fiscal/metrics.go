package fiscal

import "sync/atomic"

// TransitionMetrics acumula contadores por transição de estado da fila.
// Os contadores são atômicos e servem à observabilidade operacional
// (taxas de PENDING→SENT→ACCEPTED/FAILED).
type TransitionMetrics struct {
	enqueued    atomic.Int64
	quotaDenied atomic.Int64
	sent        atomic.Int64
	accepted    atomic.Int64
	retried     atomic.Int64
	rejected    atomic.Int64
	failed      atomic.Int64
}

// NewTransitionMetrics cria uma nova instância de TransitionMetrics
func NewTransitionMetrics() *TransitionMetrics {
	return &TransitionMetrics{}
}

// RecordEnqueued registra um documento enfileirado
func (m *TransitionMetrics) RecordEnqueued() { m.enqueued.Add(1) }

// RecordQuotaDenied registra um enfileiramento negado por cota
func (m *TransitionMetrics) RecordQuotaDenied() { m.quotaDenied.Add(1) }

// RecordTransition registra a transição de um documento para o status dado
func (m *TransitionMetrics) RecordTransition(to Status) {
	switch to {
	case StatusSent:
		m.sent.Add(1)
	case StatusAccepted:
		m.accepted.Add(1)
	case StatusRetry:
		m.retried.Add(1)
	case StatusRejected:
		m.rejected.Add(1)
	case StatusFailed:
		m.failed.Add(1)
	}
}

// Snapshot retorna os contadores correntes
func (m *TransitionMetrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"enqueued":     m.enqueued.Load(),
		"quota_denied": m.quotaDenied.Load(),
		"sent":         m.sent.Load(),
		"accepted":     m.accepted.Load(),
		"retried":      m.retried.Load(),
		"rejected":     m.rejected.Load(),
		"failed":       m.failed.Load(),
	}
}
