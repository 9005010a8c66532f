// Package contact holds the recipient record and the outcome of its SMS send.
package contact

import (
	"fmt"
	"strconv"
)

// StatusNotDelivered marks a result for which the provider returned no status,
// because it could not be reached or answered with a non-2xx HTTP status.
const StatusNotDelivered = -1

// Contact is one recipient. Phone holds digits only, without the leading '+'.
// Email is optional; without it the contact gets no confirmation.
type Contact struct {
	Firstname string
	Surname   string
	Phone     string
	Email     string

	// Result is nil until a send has been attempted.
	Result *DeliveryResult
}

// String renders "<firstname> <surname> <phone>".
func (c *Contact) String() string {
	return fmt.Sprintf("%s %s %s", c.Firstname, c.Surname, c.Phone)
}

// HasEmail reports whether the contact can receive a confirmation.
func (c *Contact) HasEmail() bool {
	return c.Email != ""
}

// DeliveryResult is the outcome of one SMS send attempt.
type DeliveryResult struct {
	MessageID string
	Status    int    // provider status, 0 = accepted
	ErrorText string // provider error text, if any
	Raw       []byte // raw provider payload
	Err       error  // transport failure
}

// Succeeded reports whether the provider accepted the message.
func (r *DeliveryResult) Succeeded() bool {
	return r != nil && r.Status == 0 && r.Err == nil
}

// Summary renders the status part of a summary line.
func (r *DeliveryResult) Summary() string {
	switch {
	case r == nil:
		return "not sent"
	case r.Err != nil:
		return fmt.Sprintf("status=%d error=%q", r.Status, r.Err.Error())
	case r.Status != 0:
		s := "status=" + strconv.Itoa(r.Status)
		if r.ErrorText != "" {
			s += fmt.Sprintf(" error=%q", r.ErrorText)
		}
		return s
	default:
		return fmt.Sprintf("status=0 message-id=%s", r.MessageID)
	}
}
