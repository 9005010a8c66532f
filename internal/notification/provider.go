// Package notification pushes the run report of the notifier to chat and
// webhook services.
package notification

import "context"

// Report is one message pushed to the report channels.
type Report struct {
	Title   string
	Message string
}

// Provider defines a push delivery backend.
type Provider interface {
	GetName() string
	ValidateConfig() error
	Send(ctx context.Context, r *Report) error
	IsEnabled() bool
}
