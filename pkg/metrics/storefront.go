package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storefront records business and transport counters for the API process.
// A nil *Storefront is valid and records nothing.
type Storefront struct {
	requests      *prometheus.HistogramVec
	cartMutations *prometheus.CounterVec
	ordersPlaced  prometheus.Counter
	ordersFailed  *prometheus.CounterVec
	logins        *prometheus.CounterVec
}

// NewStorefront registers the storefront collectors on the provided registerer.
func NewStorefront(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	requests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders persisted by checkout.",
	})
	ordersFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Checkout attempts rejected or failed, by reason.",
	}, []string{"reason"})
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Login attempts by result.",
	}, []string{"result"})
	reg.MustRegister(requests, cartMutations, ordersPlaced, ordersFailed, logins)
	return &Storefront{
		requests:      requests,
		cartMutations: cartMutations,
		ordersPlaced:  ordersPlaced,
		ordersFailed:  ordersFailed,
		logins:        logins,
	}
}

// ObserveRequest records one served HTTP request.
func (s *Storefront) ObserveRequest(method, route string, status int, duration time.Duration) {
	if s == nil || s.requests == nil {
		return
	}
	s.requests.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(duration.Seconds())
}

// CartMutation counts a cart operation such as add, update, remove or clear.
func (s *Storefront) CartMutation(op string) {
	if s == nil || s.cartMutations == nil {
		return
	}
	s.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// OrderPlaced counts a persisted order.
func (s *Storefront) OrderPlaced() {
	if s == nil || s.ordersPlaced == nil {
		return
	}
	s.ordersPlaced.Inc()
}

// OrderFailed counts a checkout that did not produce an order.
func (s *Storefront) OrderFailed(reason string) {
	if s == nil || s.ordersFailed == nil {
		return
	}
	s.ordersFailed.WithLabelValues(normalizeLabel(reason)).Inc()
}

// LoginAttempt counts a login by result (success, rejected, error).
func (s *Storefront) LoginAttempt(result string) {
	if s == nil || s.logins == nil {
		return
	}
	s.logins.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
