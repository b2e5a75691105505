package notify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mulambwane/safari-forms/internal/forms"
	"github.com/mulambwane/safari-forms/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var dispatchTracer = otel.Tracer("safari.internal.notify.dispatch")

// Status is the overall result of a dispatch.
type Status string

const (
	StatusSent                 Status = "sent"
	StatusPartialFailure       Status = "partial_failure"
	StatusTransportUnavailable Status = "transport_unavailable"
)

// Outcome aggregates the per-message results of one dispatch.
type Outcome struct {
	Status      Status
	Delivered   int
	DeliveryIDs map[Audience]string
	// Failures are fatal: the business never got the lead.
	Failures []*DeliveryError
	// Warnings are customer-side failures that did not lose the lead.
	Warnings []*DeliveryError
	// Reason explains TransportUnavailable or a render failure.
	Reason string
}

// Cause returns a short description of why the dispatch failed.
func (o Outcome) Cause() string {
	if o.Reason != "" {
		return o.Reason
	}
	parts := make([]string, 0, len(o.Failures))
	for _, f := range o.Failures {
		parts = append(parts, f.Err.Error())
	}
	return strings.Join(parts, "; ")
}

// DeliveryRecorder observes each message delivery attempt.
type DeliveryRecorder interface {
	ObserveDelivery(kind, audience, status string)
}

// DispatcherConfig is the read-only configuration a Dispatcher is built with.
type DispatcherConfig struct {
	BusinessRecipient string
	Branding          Branding
	SendTimeout       time.Duration
}

// Dispatcher renders and sends the emails for a validated submission.
type Dispatcher struct {
	cfg          DispatcherConfig
	sender       EmailSender
	transportErr error
	recorder     DeliveryRecorder
	logger       *logging.Logger
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDeliveryRecorder sets the recorder for delivery metrics.
func WithDeliveryRecorder(r DeliveryRecorder) DispatcherOption {
	return func(d *Dispatcher) { d.recorder = r }
}

// NewDispatcher builds the transport once through factory. If the factory
// fails, or no business recipient is configured, the dispatcher is still
// returned and every Dispatch reports TransportUnavailable.
func NewDispatcher(ctx context.Context, cfg DispatcherConfig, factory TransportFactory, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(d)
	}

	recipient := strings.TrimSpace(cfg.BusinessRecipient)
	switch {
	case recipient == "":
		d.transportErr = &ConfigError{Problems: []string{"BUSINESS_EMAIL is not set"}}
	case !forms.ValidEmail(recipient):
		d.transportErr = &ConfigError{Problems: []string{"BUSINESS_EMAIL is invalid"}}
	case factory == nil:
		d.transportErr = &ConfigError{Problems: []string{"no transport factory"}}
	default:
		sender, err := factory(ctx)
		switch {
		case err != nil:
			d.transportErr = err
		case sender == nil:
			d.transportErr = &ConfigError{Problems: []string{"transport factory returned no sender"}}
		default:
			d.sender = sender
		}
	}

	if d.transportErr != nil {
		logger.Error("notify: mail transport unavailable", "error", d.transportErr)
	}
	return d
}

// Available reports whether a transport was constructed.
func (d *Dispatcher) Available() bool { return d.sender != nil }

// TransportError returns the reason the transport could not be built, if any.
func (d *Dispatcher) TransportError() error { return d.transportErr }

// Sender exposes the underlying transport, nil when unavailable.
func (d *Dispatcher) Sender() EmailSender { return d.sender }

// BusinessRecipient is the address leads are sent to.
func (d *Dispatcher) BusinessRecipient() string { return d.cfg.BusinessRecipient }

type sendResult struct {
	id  string
	err error
}

// Dispatch sends the business notification and the customer confirmation
// concurrently and waits for both. Each message gets exactly one attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, sub *forms.Normalized) Outcome {
	if d.sender == nil {
		reason := "mail transport unavailable"
		if d.transportErr != nil {
			reason = d.transportErr.Error()
		}
		return Outcome{Status: StatusTransportUnavailable, Reason: reason}
	}
	if sub == nil {
		return Outcome{Status: StatusPartialFailure, Reason: "notify: nothing to dispatch"}
	}
	kind := string(sub.Kind())

	ctx, span := dispatchTracer.Start(ctx, "notify.Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("safari.form.kind", kind))

	rendered, err := Render(sub, d.cfg.BusinessRecipient, d.cfg.Branding)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		d.logger.Error("notify: render failed", "error", err, "kind", kind)
		return Outcome{Status: StatusPartialFailure, Reason: err.Error()}
	}

	var business, customer sendResult
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		business = d.send(ctx, rendered.Business)
	}()
	go func() {
		defer wg.Done()
		customer = d.send(ctx, rendered.Customer)
	}()
	wg.Wait()

	out := Outcome{DeliveryIDs: map[Audience]string{}}
	if business.err != nil {
		out.Failures = append(out.Failures, &DeliveryError{Audience: AudienceBusiness, To: rendered.Business.To, Err: business.err})
	} else {
		out.Delivered++
		out.DeliveryIDs[AudienceBusiness] = business.id
	}
	if customer.err != nil {
		custErr := &DeliveryError{Audience: AudienceCustomer, To: rendered.Customer.To, Err: customer.err}
		if business.err != nil {
			out.Failures = append(out.Failures, custErr)
		} else {
			out.Warnings = append(out.Warnings, custErr)
		}
	} else {
		out.Delivered++
		out.DeliveryIDs[AudienceCustomer] = customer.id
	}

	d.observe(kind, AudienceBusiness, business.err)
	d.observe(kind, AudienceCustomer, customer.err)

	if business.err != nil {
		out.Status = StatusPartialFailure
		span.RecordError(business.err)
		span.SetStatus(codes.Error, "business notification failed")
		d.logger.Error("notify: business notification failed", "error", business.err, "kind", kind, "to", rendered.Business.To)
		return out
	}

	out.Status = StatusSent
	for _, w := range out.Warnings {
		d.logger.Warn("notify: customer confirmation failed", "error", w.Err, "kind", kind, "to", w.To)
	}
	span.SetAttributes(attribute.Int("safari.notify.delivered", out.Delivered))
	d.logger.Info("notify: submission dispatched", "kind", kind, "delivered", out.Delivered, "business_message_id", business.id)
	return out
}

func (d *Dispatcher) send(ctx context.Context, msg EmailMessage) sendResult {
	if d.cfg.SendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
		defer cancel()
	}
	id, err := d.sender.Send(ctx, msg)
	return sendResult{id: id, err: err}
}

func (d *Dispatcher) observe(kind string, audience Audience, err error) {
	if d.recorder == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	d.recorder.ObserveDelivery(kind, string(audience), status)
}
