package chain

import "github.com/prometheus/client_golang/prometheus"

// Metrics mirrors observability/metrics.Potso's shape: a small set of
// CounterVec/Histogram instruments registered once per process and passed
// into the Chain that drives them.
type Metrics struct {
	blocksApplied   *prometheus.CounterVec
	blocksRejected  *prometheus.CounterVec
	forkSwitches    prometheus.Counter
	txApplied       *prometheus.CounterVec
	applyDuration   prometheus.Histogram
}

// NewMetrics builds and registers the chain controller's instruments
// against reg. Passing prometheus.NewRegistry() in tests keeps them out of
// the global default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		blocksApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chain_blocks_applied_total",
			Help: "Blocks successfully applied, by fork-switch outcome.",
		}, []string{"case"}),
		blocksRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chain_blocks_rejected_total",
			Help: "Blocks rejected during apply, by error kind.",
		}, []string{"kind"}),
		forkSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chain_fork_switches_total",
			Help: "Times the chain head moved to a branch not extending the prior head.",
		}),
		txApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chain_transactions_applied_total",
			Help: "Transactions applied, by outcome.",
		}, []string{"outcome"}),
		applyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chain_apply_block_duration_seconds",
			Help:    "Wall-clock time spent applying one block.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.blocksApplied, m.blocksRejected, m.forkSwitches, m.txApplied, m.applyDuration)
	}
	return m
}

func (m *Metrics) observeBlockApplied(caseLabel string) {
	if m == nil {
		return
	}
	m.blocksApplied.WithLabelValues(caseLabel).Inc()
}

func (m *Metrics) observeBlockRejected(kind string) {
	if m == nil {
		return
	}
	m.blocksRejected.WithLabelValues(kind).Inc()
}

func (m *Metrics) observeForkSwitch() {
	if m == nil {
		return
	}
	m.forkSwitches.Inc()
}

func (m *Metrics) observeTx(outcome string) {
	if m == nil {
		return
	}
	m.txApplied.WithLabelValues(outcome).Inc()
}
