package notifier

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrosilva/notifier/internal/contact"
	"github.com/pedrosilva/notifier/internal/errors"
	"github.com/pedrosilva/notifier/internal/observability/metrics"
)

var testConfirmation = Confirmation{
	Subject: "Email notification",
	Success: "SUCCESS BODY",
	Error:   "ERROR BODY",
}

func newTestNotifier(t *testing.T, client *fakeSMS, opts ...Option) *Notifier {
	t.Helper()
	n, err := New(Config{Sender: "Clinic", Destination: "contacts.xlsx"}, client, opts...)
	require.NoError(t, err)
	return n
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestLoadBypassNeverInvokesLoader(t *testing.T) {
	loader := &fakeLoader{contacts: people(3)}
	n := newTestNotifier(t, &fakeSMS{}, WithLoader(loader))

	require.NoError(t, n.Load(t.Context(), "15551234567"))

	assert.Empty(t, loader.paths)
	require.Len(t, n.Contacts(), 1)
	c := n.Contacts()[0]
	assert.Equal(t, "CMD", c.Firstname)
	assert.Equal(t, "Line", c.Surname)
	assert.Equal(t, "15551234567", c.Phone)
	assert.Empty(t, c.Email)
}

func TestLoadFromDestination(t *testing.T) {
	loader := &fakeLoader{contacts: people(2)}
	recorder := newFakeRecorder()
	n := newTestNotifier(t, &fakeSMS{}, WithLoader(loader), WithRecorder(recorder))

	require.NoError(t, n.Load(t.Context(), ""))
	assert.Equal(t, []string{"contacts.xlsx"}, loader.paths)
	assert.Len(t, n.Contacts(), 2)
	assert.Equal(t, 2, recorder.contacts)
}

func TestLoadWithoutDestination(t *testing.T) {
	n, err := New(Config{Sender: "Clinic"}, &fakeSMS{}, WithLoader(&fakeLoader{}))
	require.NoError(t, err)

	err = n.Load(t.Context(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestLoadPropagatesParseError(t *testing.T) {
	parseErr := errors.ParseError(errors.NewStd("row 3: empty Phone"), "contacts.xlsx")
	n := newTestNotifier(t, &fakeSMS{}, WithLoader(&fakeLoader{err: parseErr}))

	err := n.Load(t.Context(), "")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
	assert.Empty(t, n.Contacts())

	// A failed load ends the run
	err = n.Notify(t.Context(), "hi")
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
}

func TestNotifyCallsProviderOncePerContact(t *testing.T) {
	client := &fakeSMS{}
	contacts := people(3)
	n := newTestNotifier(t, client, WithLoader(&fakeLoader{contacts: contacts}))

	require.NoError(t, n.Load(t.Context(), ""))
	require.NoError(t, n.Notify(t.Context(), "Reminder"))

	require.Len(t, client.calls, len(contacts))
	for i, call := range client.calls {
		assert.Equal(t, "Clinic", call.from)
		assert.Equal(t, contacts[i].Phone, call.phone)
		assert.Equal(t, "Reminder", call.text)
		require.NotNil(t, contacts[i].Result)
		assert.Equal(t, "id-"+contacts[i].Phone, contacts[i].Result.MessageID)
	}
}

func TestNotifyEmptyListIsNoop(t *testing.T) {
	client := &fakeSMS{}
	n := newTestNotifier(t, client, WithLoader(&fakeLoader{}))

	require.NoError(t, n.Load(t.Context(), ""))
	require.NoError(t, n.Notify(t.Context(), "Reminder"))
	assert.Empty(t, client.calls)

	var buf bytes.Buffer
	require.NoError(t, n.WriteSummary(&buf))
	assert.Empty(t, buf.String())
}

func TestNotifyRecordsOutcomes(t *testing.T) {
	contacts := people(3)
	client := &fakeSMS{results: map[string]*contact.DeliveryResult{
		contacts[1].Phone: {Status: 1, ErrorText: "Throttled"},
		contacts[2].Phone: {Status: contact.StatusNotDelivered, Err: fmt.Errorf("timeout")},
	}}
	recorder := newFakeRecorder()
	n := newTestNotifier(t, client, WithLoader(&fakeLoader{contacts: contacts}), WithRecorder(recorder))

	require.NoError(t, n.Load(t.Context(), ""))
	require.NoError(t, n.Notify(t.Context(), "hi"))

	assert.Equal(t, map[string]int{
		metrics.SMSAccepted:     1,
		metrics.SMSRejected:     1,
		metrics.SMSNotDelivered: 1,
	}, recorder.sms)
}

func TestNotifyAbortsOnProviderError(t *testing.T) {
	contacts := people(3)
	providerErr := errors.Newf("malformed nexmo response").Category(errors.CategorySMSProvider).Build()
	client := &fakeSMS{errs: map[string]error{contacts[1].Phone: providerErr}}
	n := newTestNotifier(t, client, WithLoader(&fakeLoader{contacts: contacts}))

	require.NoError(t, n.Load(t.Context(), ""))
	err := n.Notify(t.Context(), "hi")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategorySMSProvider))
	assert.Len(t, client.calls, 2)
	assert.True(t, n.NotifyStarted())

	var buf bytes.Buffer
	require.NoError(t, n.WriteSummary(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "status=0")
	assert.Contains(t, lines[1], "not sent")
	assert.Contains(t, lines[2], "not sent")

	_, err = n.Confirm(t.Context(), testConfirmation)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
}

func TestPhaseOrdering(t *testing.T) {
	n := newTestNotifier(t, &fakeSMS{}, WithDialer(&fakeDialer{session: &fakeSession{}}))

	err := n.Notify(t.Context(), "hi")
	assert.True(t, errors.IsCategory(err, errors.CategoryState))

	_, err = n.Confirm(t.Context(), testConfirmation)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))

	err = n.WriteSummary(&bytes.Buffer{})
	assert.True(t, errors.IsCategory(err, errors.CategoryState))

	require.NoError(t, n.Load(t.Context(), "15551234567"))
	err = n.Load(t.Context(), "15551234567")
	assert.True(t, errors.IsCategory(err, errors.CategoryState))

	require.NoError(t, n.Notify(t.Context(), "hi"))
	err = n.Notify(t.Context(), "hi")
	assert.True(t, errors.IsCategory(err, errors.CategoryState))

	_, err = n.Confirm(t.Context(), testConfirmation)
	require.NoError(t, err)
	_, err = n.Confirm(t.Context(), testConfirmation)
	assert.True(t, errors.IsCategory(err, errors.CategoryState))
}

// notifiedWith returns a Notifier positioned after Notify with the given contacts.
func notifiedWith(t *testing.T, contacts []*contact.Contact, opts ...Option) *Notifier {
	t.Helper()
	n := newTestNotifier(t, &fakeSMS{}, opts...)
	n.contacts = contacts
	n.phase = phaseNotified
	n.notifyStarted = true
	return n
}

func TestConfirmChoosesBodyByStatus(t *testing.T) {
	contacts := []*contact.Contact{
		{Firstname: "Ok", Surname: "A", Phone: "1", Email: "ok@example.com", Result: &contact.DeliveryResult{Status: 0}},
		{Firstname: "Rejected", Surname: "B", Phone: "2", Email: "rejected@example.com", Result: &contact.DeliveryResult{Status: 1}},
		{Firstname: "Unreached", Surname: "C", Phone: "3", Email: "unreached@example.com",
			Result: &contact.DeliveryResult{Status: contact.StatusNotDelivered, Err: fmt.Errorf("dial tcp: timeout")}},
		{Firstname: "NoMail", Surname: "D", Phone: "4", Result: &contact.DeliveryResult{Status: 0}},
		{Firstname: "Never", Surname: "E", Phone: "5", Email: "never@example.com"},
	}
	session := &fakeSession{}
	dialer := &fakeDialer{session: session}
	recorder := newFakeRecorder()
	n := notifiedWith(t, contacts, WithDialer(dialer), WithRecorder(recorder))

	report, err := n.Confirm(t.Context(), testConfirmation)
	require.NoError(t, err)

	assert.Equal(t, ConfirmReport{Sent: 3, Skipped: 1, NoAddress: 1}, report)
	assert.Equal(t, 1, dialer.dials)
	assert.Equal(t, 1, session.closed)

	require.Len(t, session.sent, 3)
	assert.Equal(t, "ok@example.com", session.sent[0].To)
	assert.Equal(t, "SUCCESS BODY", session.sent[0].Body)
	assert.Equal(t, "Email notification", session.sent[0].Subject)
	assert.Equal(t, "rejected@example.com", session.sent[1].To)
	assert.Equal(t, "ERROR BODY", session.sent[1].Body)
	assert.Equal(t, "unreached@example.com", session.sent[2].To)
	assert.Equal(t, "ERROR BODY", session.sent[2].Body)

	assert.Equal(t, map[string]int{
		metrics.ConfirmationSent:      3,
		metrics.ConfirmationSkipped:   1,
		metrics.ConfirmationNoAddress: 1,
	}, recorder.confirmations)
}

func TestConfirmWithoutRecipientsDoesNotDial(t *testing.T) {
	contacts := []*contact.Contact{
		{Firstname: "NoMail", Surname: "A", Phone: "1", Result: &contact.DeliveryResult{}},
	}
	dialer := &fakeDialer{session: &fakeSession{}}
	n := notifiedWith(t, contacts, WithDialer(dialer))

	report, err := n.Confirm(t.Context(), testConfirmation)
	require.NoError(t, err)
	assert.Equal(t, ConfirmReport{NoAddress: 1}, report)
	assert.Zero(t, dialer.dials)
}

func TestConfirmDialFailure(t *testing.T) {
	contacts := []*contact.Contact{
		{Firstname: "Ok", Surname: "A", Phone: "1", Email: "ok@example.com", Result: &contact.DeliveryResult{}},
	}
	dialErr := errors.Newf("connect to smtp.example.com:587: refused").Category(errors.CategoryEmailTransport).Build()
	dialer := &fakeDialer{err: dialErr}
	n := notifiedWith(t, contacts, WithDialer(dialer))

	report, err := n.Confirm(t.Context(), testConfirmation)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryEmailTransport))
	assert.Zero(t, report.Sent)
}

func TestConfirmContinuesAfterRecipientFailure(t *testing.T) {
	contacts := []*contact.Contact{
		{Firstname: "A", Surname: "A", Phone: "1", Email: "a@example.com", Result: &contact.DeliveryResult{}},
		{Firstname: "B", Surname: "B", Phone: "2", Email: "b@example.com", Result: &contact.DeliveryResult{}},
		{Firstname: "C", Surname: "C", Phone: "3", Email: "c@example.com", Result: &contact.DeliveryResult{}},
	}
	session := &fakeSession{failFor: map[string]error{
		"b@example.com": errors.Newf("550 mailbox unavailable").Category(errors.CategoryEmailSend).Build(),
	}}
	n := notifiedWith(t, contacts, WithDialer(&fakeDialer{session: session}))

	report, err := n.Confirm(t.Context(), testConfirmation)
	require.NoError(t, err)
	assert.Equal(t, ConfirmReport{Sent: 2, Failed: 1}, report)
	assert.Equal(t, 1, session.closed)
	require.Len(t, session.sent, 2)
	assert.Equal(t, "c@example.com", session.sent[1].To)
}

func TestConfirmStopsOnCancellation(t *testing.T) {
	contacts := []*contact.Contact{
		{Firstname: "A", Surname: "A", Phone: "1", Email: "a@example.com", Result: &contact.DeliveryResult{}},
	}
	session := &fakeSession{failFor: map[string]error{"a@example.com": context.Canceled}}
	n := notifiedWith(t, contacts, WithDialer(&fakeDialer{session: session}))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := n.Confirm(ctx, testConfirmation)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, session.closed)
}

func TestConfirmWithoutDialer(t *testing.T) {
	n := notifiedWith(t, people(1))

	_, err := n.Confirm(t.Context(), testConfirmation)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
	assert.False(t, n.ConfirmationEnabled())
}

func TestWriteSummary(t *testing.T) {
	contacts := []*contact.Contact{
		{Firstname: "Ada", Surname: "Lovelace", Phone: "15551234567", Result: &contact.DeliveryResult{MessageID: "0A00"}},
		{Firstname: "Alan", Surname: "Turing", Phone: "447700900123", Result: &contact.DeliveryResult{Status: 4, ErrorText: "Invalid credentials"}},
	}
	n := notifiedWith(t, contacts)

	var buf bytes.Buffer
	require.NoError(t, n.WriteSummary(&buf))
	assert.Equal(t,
		"Ada Lovelace 15551234567: status=0 message-id=0A00\n"+
			"Alan Turing 447700900123: status=4 error=\"Invalid credentials\"\n",
		buf.String())
}
