// Package metrics exposes the Prometheus counters served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationsTotal counts successful student registrations.
	RegistrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_registrations_total",
		Help: "Successful student registrations.",
	})

	// DuplicateRejections counts registrations rejected per identity signal.
	DuplicateRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollcall_registration_duplicates_total",
		Help: "Registrations rejected as duplicates, by conflicting field.",
	}, []string{"field"})

	// OTPIssued counts issued one-time codes.
	OTPIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_otp_issued_total",
		Help: "One-time codes issued.",
	})

	// OTPVerified counts successful verifications.
	OTPVerified = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_otp_verified_total",
		Help: "One-time codes successfully verified.",
	})

	// AttendanceMarked counts newly inserted attendance records
	// (repeat marks on the same day are not counted).
	AttendanceMarked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollcall_attendance_marked_total",
		Help: "Attendance records created.",
	})
)
