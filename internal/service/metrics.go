package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cartOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_operations_total",
		Help: "Cart engine operations by name and result.",
	}, []string{"operation", "result"})

	checkoutOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkout_sessions_total",
		Help: "Checkout sessions by terminal outcome.",
	}, []string{"outcome"})
)

func observeCartOp(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	cartOperations.WithLabelValues(operation, result).Inc()
}
