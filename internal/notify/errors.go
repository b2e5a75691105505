package notify

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTransportUnavailable is matched by every error that means no mail
// transport could be built from the configuration.
var ErrTransportUnavailable = errors.New("notify: mail transport unavailable")

// ConfigError lists the configuration problems that kept the transport from
// being constructed.
type ConfigError struct {
	Problems []string
	Err      error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(ErrTransportUnavailable.Error())
	if len(e.Problems) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Problems, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransportUnavailable}
	}
	return []error{ErrTransportUnavailable, e.Err}
}

// Audience says who a message is addressed to.
type Audience string

const (
	AudienceBusiness Audience = "business"
	AudienceCustomer Audience = "customer"
)

// DeliveryError records a transport failure for one message.
type DeliveryError struct {
	Audience Audience
	To       string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s email to %s: %v", e.Audience, e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
