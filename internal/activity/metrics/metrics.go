package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons.
const (
	ReasonNotFound      = "activity_not_found"
	ReasonAlreadySigned = "already_signed_up"
	ReasonNotRegistered = "not_registered"
)

// Metrics provides observability for the activity registry.
type Metrics struct {
	Signups         prometheus.Counter
	Unregistrations prometheus.Counter
	Rejections      *prometheus.CounterVec
	Participants    *prometheus.GaugeVec
	OpDuration      *prometheus.HistogramVec
}

// New creates activity metrics registered on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Signups: factory.NewCounter(prometheus.CounterOpts{
			Name: "activityboard_signups_total",
			Help: "Total successful activity signups",
		}),
		Unregistrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "activityboard_unregistrations_total",
			Help: "Total successful activity unregistrations",
		}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "activityboard_rejections_total",
			Help: "Signup and unregister requests rejected, by operation and reason",
		}, []string{"operation", "reason"}),
		Participants: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "activityboard_participants",
			Help: "Current participant count per activity",
		}, []string{"activity"}),
		OpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "activityboard_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		}, []string{"operation"}),
	}
}

// IncrementSignups records a successful signup.
func (m *Metrics) IncrementSignups() {
	m.Signups.Inc()
}

// IncrementUnregistrations records a successful unregister.
func (m *Metrics) IncrementUnregistrations() {
	m.Unregistrations.Inc()
}

// IncrementRejection records a rejected request.
func (m *Metrics) IncrementRejection(operation, reason string) {
	m.Rejections.WithLabelValues(operation, reason).Inc()
}

// SetParticipants sets the participant gauge for one activity.
func (m *Metrics) SetParticipants(activity string, count int) {
	m.Participants.WithLabelValues(activity).Set(float64(count))
}

// ObserveOperation records an operation duration.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OpDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
