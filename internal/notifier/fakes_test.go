package notifier

import (
	"context"
	"fmt"

	"github.com/pedrosilva/notifier/internal/contact"
	"github.com/pedrosilva/notifier/internal/email"
)

type smsCall struct {
	from, phone, text string
}

// fakeSMS accepts every message unless a result or error is scripted for the phone.
type fakeSMS struct {
	calls   []smsCall
	results map[string]*contact.DeliveryResult
	errs    map[string]error
}

func (f *fakeSMS) Send(_ context.Context, from, phone, text string) (*contact.DeliveryResult, error) {
	f.calls = append(f.calls, smsCall{from: from, phone: phone, text: text})
	if err := f.errs[phone]; err != nil {
		return nil, err
	}
	if r, ok := f.results[phone]; ok {
		return r, nil
	}
	return &contact.DeliveryResult{MessageID: "id-" + phone}, nil
}

type fakeLoader struct {
	contacts []*contact.Contact
	err      error
	paths    []string
}

func (f *fakeLoader) Load(path string) ([]*contact.Contact, error) {
	f.paths = append(f.paths, path)
	return f.contacts, f.err
}

type fakeSession struct {
	sent    []email.Message
	failFor map[string]error
	closed  int
}

func (s *fakeSession) Send(_ context.Context, m email.Message) error {
	if err := s.failFor[m.To]; err != nil {
		return err
	}
	s.sent = append(s.sent, m)
	return nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakeDialer struct {
	session *fakeSession
	err     error
	dials   int
}

func (d *fakeDialer) Dial(context.Context) (email.Session, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.session, nil
}

type fakeRecorder struct {
	contacts      int
	sms           map[string]int
	confirmations map[string]int
	runs          int
	lastSuccess   bool
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{sms: map[string]int{}, confirmations: map[string]int{}}
}

func (r *fakeRecorder) RecordContacts(count int) {
	r.contacts = count
}

func (r *fakeRecorder) RecordSMS(outcome string, _ float64) {
	r.sms[outcome]++
}

func (r *fakeRecorder) RecordConfirmation(outcome string) {
	r.confirmations[outcome]++
}

func (r *fakeRecorder) RecordRun(_ float64, success bool) {
	r.runs++
	r.lastSuccess = success
}

func people(n int) []*contact.Contact {
	out := make([]*contact.Contact, n)
	for i := range out {
		out[i] = &contact.Contact{
			Firstname: fmt.Sprintf("First%d", i),
			Surname:   fmt.Sprintf("Last%d", i),
			Phone:     fmt.Sprintf("1555000000%d", i),
		}
	}
	return out
}
