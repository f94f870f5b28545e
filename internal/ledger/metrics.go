package ledger

import (
	"rent-a-car-go/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

const metricNamePrefix = "rentacar_ledger_"

type ledgerMetrics struct {
	operations      *prometheus.CounterVec
	rentalDays      prometheus.Counter
	treasuryBalance *prometheus.GaugeVec
}

func newLedgerMetrics(registry prometheus.Registerer) *ledgerMetrics {
	promautoFactory := promauto.With(registry)
	return &ledgerMetrics{
		operations: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricNamePrefix + "operations_total",
				Help: "Ledger operations by name and outcome",
			},
			[]string{"operation", "result"},
		),
		rentalDays: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: metricNamePrefix + "rental_days_total",
			Help: "Total number of days rented",
		}),
		treasuryBalance: promautoFactory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricNamePrefix + "treasury_balance",
				Help: "Treasury balance after the last committed operation, in token units",
			},
			[]string{"account"},
		),
	}
}

func (m *ledgerMetrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		if _, ok := CodeOf(err); ok {
			result = "rejected"
		}
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *ledgerMetrics) rented(days uint32) {
	if m == nil {
		return
	}
	m.rentalDays.Add(float64(days))
}

func (m *ledgerMetrics) balance(account models.TreasuryAccount, value decimal.Decimal) {
	if m == nil {
		return
	}
	m.treasuryBalance.WithLabelValues(string(account)).Set(value.InexactFloat64())
}
