package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stkPushInitiations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mpesa_stk_push_initiated_total",
		Help: "STK pushes accepted by the gateway and recorded as pending.",
	})

	callbackResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpesa_callbacks_processed_total",
		Help: "Gateway callbacks reconciled against the ledger, by resulting status.",
	}, []string{"status"})
)
