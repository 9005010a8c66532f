// Package sms sends text messages through the Nexmo (Vonage) SMS API.
package sms

import (
	"context"

	"github.com/pedrosilva/notifier/internal/contact"
)

// Client sends one SMS per call.
//
// Failures to reach the provider, and non-2xx answers, are reported inside the
// returned result with Status set to contact.StatusNotDelivered; the error
// return is reserved for answers that cannot be interpreted at all and for
// context cancellation, both of which must stop the run.
type Client interface {
	Send(ctx context.Context, from, phone, text string) (*contact.DeliveryResult, error)
}
