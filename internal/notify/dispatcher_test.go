package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mulambwane/safari-forms/internal/forms"
	"github.com/mulambwane/safari-forms/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBusiness = "lodge@example.com"

type fakeSender struct {
	mu     sync.Mutex
	sent   []EmailMessage
	failOn map[string]error // keyed by recipient
	delay  time.Duration
}

func (f *fakeSender) Send(ctx context.Context, msg EmailMessage) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := f.failOn[msg.To]; err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return "id-" + msg.To, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []string
}

func (r *fakeRecorder) ObserveDelivery(kind, audience, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, kind+"/"+audience+"/"+status)
}

func testDispatcher(t *testing.T, sender EmailSender, opts ...DispatcherOption) *Dispatcher {
	t.Helper()
	return NewDispatcher(context.Background(), DispatcherConfig{
		BusinessRecipient: testBusiness,
		Branding:          Branding{Name: "Mulambwane Safaris", Email: testBusiness, Phone: "+27 73 342 6833"},
		SendTimeout:       time.Second,
	}, StaticTransport(sender), logging.New("error"), opts...)
}

func normalized(t *testing.T, kind forms.Kind, raw forms.Submission) *forms.Normalized {
	t.Helper()
	res := forms.Validate(kind, raw)
	require.True(t, res.Valid(), res.Message())
	return res.Submission
}

func contactSubmission(t *testing.T) *forms.Normalized {
	return normalized(t, forms.Contact, forms.Submission{
		"firstName": "Jane",
		"lastName":  "Doe",
		"email":     "jane@example.com",
		"message":   "Hello",
	})
}

func TestDispatch_SendsBothMessages(t *testing.T) {
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	d := testDispatcher(t, sender, WithDeliveryRecorder(rec))
	require.True(t, d.Available())

	out := d.Dispatch(context.Background(), contactSubmission(t))

	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, 2, out.Delivered)
	assert.Empty(t, out.Failures)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, "id-"+testBusiness, out.DeliveryIDs[AudienceBusiness])
	assert.Equal(t, "id-jane@example.com", out.DeliveryIDs[AudienceCustomer])
	require.Equal(t, 2, sender.count())

	recipients := []string{sender.sent[0].To, sender.sent[1].To}
	assert.ElementsMatch(t, []string{testBusiness, "jane@example.com"}, recipients)
	assert.ElementsMatch(t, []string{"contact/business/sent", "contact/customer/sent"}, rec.seen)
}

func TestDispatch_BusinessFailureIsFatal(t *testing.T) {
	for name, customerErr := range map[string]error{
		"customer ok":     nil,
		"customer failed": errors.New("mailbox full"),
	} {
		t.Run(name, func(t *testing.T) {
			sender := &fakeSender{failOn: map[string]error{
				testBusiness:       errors.New("relay refused"),
				"jane@example.com": customerErr,
			}}
			d := testDispatcher(t, sender)

			out := d.Dispatch(context.Background(), contactSubmission(t))

			assert.Equal(t, StatusPartialFailure, out.Status)
			require.NotEmpty(t, out.Failures)
			assert.Equal(t, AudienceBusiness, out.Failures[0].Audience)
			assert.Contains(t, out.Cause(), "relay refused")
			assert.Empty(t, out.Warnings)
		})
	}
}

func TestDispatch_CustomerFailureIsWarning(t *testing.T) {
	sender := &fakeSender{failOn: map[string]error{"jane@example.com": errors.New("mailbox full")}}
	rec := &fakeRecorder{}
	d := testDispatcher(t, sender, WithDeliveryRecorder(rec))

	out := d.Dispatch(context.Background(), contactSubmission(t))

	assert.Equal(t, StatusSent, out.Status)
	assert.Equal(t, 1, out.Delivered)
	assert.Empty(t, out.Failures)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, AudienceCustomer, out.Warnings[0].Audience)
	assert.Contains(t, rec.seen, "contact/customer/failed")
}

func TestDispatch_SendsConcurrently(t *testing.T) {
	sender := &fakeSender{delay: 200 * time.Millisecond}
	d := testDispatcher(t, sender)

	start := time.Now()
	out := d.Dispatch(context.Background(), contactSubmission(t))

	assert.Equal(t, StatusSent, out.Status)
	assert.Less(t, time.Since(start), 390*time.Millisecond)
}

func TestDispatch_SendTimeout(t *testing.T) {
	sender := &fakeSender{delay: time.Second}
	d := NewDispatcher(context.Background(), DispatcherConfig{
		BusinessRecipient: testBusiness,
		SendTimeout:       20 * time.Millisecond,
	}, StaticTransport(sender), logging.New("error"))

	out := d.Dispatch(context.Background(), contactSubmission(t))

	assert.Equal(t, StatusPartialFailure, out.Status)
	require.NotEmpty(t, out.Failures)
	assert.ErrorIs(t, out.Failures[0], context.DeadlineExceeded)
}

func TestDispatch_TransportUnavailable(t *testing.T) {
	calls := 0
	factory := func(context.Context) (EmailSender, error) {
		calls++
		return nil, &ConfigError{Problems: []string{"EMAIL_PASS is not set"}}
	}
	d := NewDispatcher(context.Background(), DispatcherConfig{BusinessRecipient: testBusiness}, factory, logging.New("error"))

	out := d.Dispatch(context.Background(), contactSubmission(t))
	out2 := d.Dispatch(context.Background(), contactSubmission(t))

	assert.Equal(t, StatusTransportUnavailable, out.Status)
	assert.Equal(t, StatusTransportUnavailable, out2.Status)
	assert.Contains(t, out.Reason, "EMAIL_PASS")
	assert.Equal(t, 1, calls, "transport is built once")
	assert.ErrorIs(t, d.TransportError(), ErrTransportUnavailable)
}

func TestDispatch_MissingRecipientNeverSends(t *testing.T) {
	sender := &fakeSender{}
	for _, recipient := range []string{"", "not-an-address"} {
		d := NewDispatcher(context.Background(), DispatcherConfig{BusinessRecipient: recipient}, StaticTransport(sender), logging.New("error"))

		out := d.Dispatch(context.Background(), contactSubmission(t))

		assert.Equal(t, StatusTransportUnavailable, out.Status)
		assert.Contains(t, out.Reason, "BUSINESS_EMAIL")
	}
	assert.Zero(t, sender.count())
}

func TestDispatch_NilSenderFromFactory(t *testing.T) {
	d := NewDispatcher(context.Background(), DispatcherConfig{BusinessRecipient: testBusiness}, StaticTransport(nil), logging.New("error"))
	assert.False(t, d.Available())
	assert.Equal(t, StatusTransportUnavailable, d.Dispatch(context.Background(), contactSubmission(t)).Status)
}

func TestDispatch_Booking(t *testing.T) {
	sender := &fakeSender{}
	d := testDispatcher(t, sender)
	sub := normalized(t, forms.Booking, forms.Submission{
		"firstName": "Sipho",
		"lastName":  "Ndlovu",
		"email":     "sipho@example.com",
		"checkIn":   "2026-11-01",
		"checkOut":  "2026-11-04",
		"adults":    "2",
		"suite":     "Marula Suite",
	})

	out := d.Dispatch(context.Background(), sub)

	require.Equal(t, StatusSent, out.Status)
	require.Equal(t, 2, sender.count())
	for _, msg := range sender.sent {
		assert.Contains(t, msg.HTML, "2026-11-01")
		assert.Contains(t, msg.HTML, "Marula Suite")
	}
}
