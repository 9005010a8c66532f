// Package metrics defines the Prometheus metrics recorded during one notifier run.
package metrics

// SMS outcome labels
const (
	SMSAccepted     = "accepted"
	SMSRejected     = "rejected"
	SMSNotDelivered = "not_delivered"
)

// Confirmation outcome labels
const (
	ConfirmationSent      = "sent"
	ConfirmationFailed    = "failed"
	ConfirmationSkipped   = "skipped"
	ConfirmationNoAddress = "no_address"
)
