package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_applications_submitted_total",
			Help: "Total number of loan applications submitted, by resulting status",
		},
		[]string{"status"},
	)

	LoansDisbursed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loan_disbursements_total",
			Help: "Total number of loans disbursed",
		},
	)

	OperationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_operations_failed_total",
			Help: "Total number of failed lifecycle operations",
		},
		[]string{"operation", "error_code"},
	)

	StoreWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "store_write_failures_total",
			Help: "Total number of failed key-value store writes",
		},
	)

	OTPCodesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "otp_codes_issued_total",
			Help: "Total number of OTP codes issued",
		},
	)
)
