// Package metrics exposes Prometheus instrumentation for the order lifecycle.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics holds the collectors recorded by the order lifecycle.
type OrderMetrics struct {
	ordersCreated   prometheus.Counter
	ordersCancelled prometheus.Counter
	draftsConverted prometheus.Counter
	ordersFailed    *prometheus.CounterVec

	orderTotal     prometheus.Histogram
	createDuration prometheus.Histogram
}

// NewOrderMetrics creates order metrics registered on the default registerer.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersCancelled: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		draftsConverted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_drafts_converted_total",
			Help: "Total number of draft orders converted to live orders",
		}),
		ordersFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_operations_failed_total",
			Help: "Total number of failed order lifecycle operations",
		}, []string{"operation"}),
		orderTotal: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_order_total_amount",
			Help:    "Distribution of order total amounts",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_order_create_duration_seconds",
			Help:    "Duration of order creation transactions in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderCreated increments the created counter and records the order
// total and transaction duration.
func (m *OrderMetrics) RecordOrderCreated(totalAmount float64, elapsed time.Duration) {
	m.ordersCreated.Inc()
	m.orderTotal.Observe(totalAmount)
	m.createDuration.Observe(elapsed.Seconds())
}

// RecordOrderCancelled increments the cancelled counter.
func (m *OrderMetrics) RecordOrderCancelled() {
	m.ordersCancelled.Inc()
}

// RecordDraftConverted increments the converted counter and records the
// converted order's total.
func (m *OrderMetrics) RecordDraftConverted(totalAmount float64) {
	m.draftsConverted.Inc()
	m.orderTotal.Observe(totalAmount)
}

// RecordOperationFailed increments the failure counter for an operation.
func (m *OrderMetrics) RecordOperationFailed(operation string) {
	m.ordersFailed.WithLabelValues(operation).Inc()
}
