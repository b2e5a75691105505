package notify

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/go-playground/validator/v10"
	"github.com/mulambwane/safari-forms/pkg/logging"
)

// Mail providers accepted in TransportConfig.Provider.
const (
	ProviderSMTP     = "smtp"
	ProviderGmail    = "gmail"
	ProviderSES      = "ses"
	ProviderSendGrid = "sendgrid"
	ProviderStub     = "stub"
)

// TransportConfig selects and configures the mail transport. The env tags
// name the variables each field comes from so problems can be reported in
// operator terms.
type TransportConfig struct {
	Provider        string `env:"MAIL_PROVIDER" validate:"required,oneof=smtp gmail ses sendgrid stub"`
	FromEmail       string `env:"EMAIL_USER" validate:"required,email"`
	FromName        string `env:"EMAIL_FROM_NAME"`
	SMTPHost        string `env:"SMTP_HOST" validate:"required_if=Provider smtp"`
	SMTPPort        string `env:"SMTP_PORT" validate:"required_if=Provider smtp"`
	SMTPPassword    string `env:"EMAIL_PASS" validate:"required_if=Provider smtp"`
	GmailCredential string `env:"GMAIL_CREDENTIALS_JSON" validate:"required_if=Provider gmail"`
	SendGridAPIKey  string `env:"SENDGRID_API_KEY" validate:"required_if=Provider sendgrid"`

	// LoadAWS is consulted only for the ses provider.
	LoadAWS func(ctx context.Context) (aws.Config, error) `validate:"-"`
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Validate reports every missing or malformed setting as a *ConfigError.
func (c TransportConfig) Validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ConfigError{Err: err}
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required", "required_if":
			problems = append(problems, fe.Field()+" is not set")
		default:
			problems = append(problems, fe.Field()+" is invalid")
		}
	}
	return &ConfigError{Problems: problems}
}

// TransportFactory builds the mail transport. It runs once at start-up.
type TransportFactory func(ctx context.Context) (EmailSender, error)

// NewTransportFactory returns a factory for the provider named in cfg.
func NewTransportFactory(cfg TransportConfig, logger *logging.Logger) TransportFactory {
	if logger == nil {
		logger = logging.Default()
	}
	return func(ctx context.Context) (EmailSender, error) {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		switch cfg.Provider {
		case ProviderSMTP:
			sender := NewSMTPSender(SMTPConfig{
				Host:      cfg.SMTPHost,
				Port:      cfg.SMTPPort,
				Username:  cfg.FromEmail,
				Password:  cfg.SMTPPassword,
				FromEmail: cfg.FromEmail,
				FromName:  cfg.FromName,
			}, logger)
			if sender == nil {
				return nil, &ConfigError{Problems: []string{"SMTP settings are blank"}}
			}
			return sender, nil
		case ProviderGmail:
			sender, err := NewGmailSender(ctx, GmailConfig{
				CredentialsJSON: cfg.GmailCredential,
				FromEmail:       cfg.FromEmail,
				FromName:        cfg.FromName,
			}, logger)
			if err != nil {
				return nil, &ConfigError{Err: err}
			}
			return sender, nil
		case ProviderSES:
			if cfg.LoadAWS == nil {
				return nil, &ConfigError{Problems: []string{"AWS configuration is not available"}}
			}
			awsCfg, err := cfg.LoadAWS(ctx)
			if err != nil {
				return nil, &ConfigError{Err: fmt.Errorf("load aws config: %w", err)}
			}
			sender := NewSESSender(sesv2.NewFromConfig(awsCfg), SESConfig{
				FromEmail: cfg.FromEmail,
				FromName:  cfg.FromName,
			}, logger)
			if sender == nil {
				return nil, &ConfigError{Problems: []string{"SES client could not be built"}}
			}
			return sender, nil
		case ProviderSendGrid:
			sender := NewSendGridSender(SendGridConfig{
				APIKey:    cfg.SendGridAPIKey,
				FromEmail: cfg.FromEmail,
				FromName:  cfg.FromName,
			}, logger)
			if sender == nil {
				return nil, &ConfigError{Problems: []string{"SENDGRID_API_KEY is blank"}}
			}
			return sender, nil
		default:
			return NewStubEmailSender(logger), nil
		}
	}
}

// StaticTransport wraps an already constructed sender, mainly for tests.
func StaticTransport(sender EmailSender) TransportFactory {
	return func(context.Context) (EmailSender, error) {
		if sender == nil {
			return nil, &ConfigError{Problems: []string{"no sender configured"}}
		}
		return sender, nil
	}
}
