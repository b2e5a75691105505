package mainconfig

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mulambwane/safari-forms/internal/api/router"
	"github.com/mulambwane/safari-forms/internal/chat"
	appconfig "github.com/mulambwane/safari-forms/internal/config"
	"github.com/mulambwane/safari-forms/internal/diagnostics"
	"github.com/mulambwane/safari-forms/internal/forms"
	"github.com/mulambwane/safari-forms/internal/http/handlers"
	httpmiddleware "github.com/mulambwane/safari-forms/internal/http/middleware"
	"github.com/mulambwane/safari-forms/internal/notify"
	"github.com/mulambwane/safari-forms/internal/observability/metrics"
	"github.com/mulambwane/safari-forms/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chat providers accepted in CHAT_PROVIDER.
const (
	ChatProviderOpenAI   = "openai"
	ChatProviderBedrock  = "bedrock"
	ChatProviderGemini   = "gemini"
	ChatProviderFallback = "fallback"
)

// TransportConfig maps the environment onto the mail transport settings.
func TransportConfig(cfg *appconfig.Config) notify.TransportConfig {
	return notify.TransportConfig{
		Provider:        cfg.MailProvider,
		FromEmail:       cfg.EmailUser,
		FromName:        cfg.EmailFromName,
		SMTPHost:        cfg.SMTPHost,
		SMTPPort:        cfg.SMTPPort,
		SMTPPassword:    cfg.EmailPass,
		GmailCredential: cfg.GmailCredentialsJSON,
		SendGridAPIKey:  cfg.SendGridAPIKey,
		LoadAWS: func(ctx context.Context) (aws.Config, error) {
			return LoadAWSConfig(ctx, cfg)
		},
	}
}

// DispatcherConfig maps the environment onto the dispatcher settings.
func DispatcherConfig(cfg *appconfig.Config) notify.DispatcherConfig {
	return notify.DispatcherConfig{
		BusinessRecipient: cfg.BusinessEmail,
		Branding: notify.Branding{
			Name:  cfg.BusinessName,
			Email: cfg.BusinessEmail,
			Phone: cfg.BusinessPhone,
		},
		SendTimeout: cfg.EmailSendTimeout,
	}
}

// LLMClient builds the completion client named by CHAT_PROVIDER. A nil
// client with a nil error means the assistant answers from canned replies.
func LLMClient(ctx context.Context, cfg *appconfig.Config) (chat.LLMClient, error) {
	switch cfg.ChatProvider {
	case ChatProviderOpenAI:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, nil
		}
		client, err := chat.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ChatProviderBedrock:
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, nil
		}
		awsCfg, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client, err := chat.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ChatProviderGemini:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			return nil, nil
		}
		client, err := chat.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ChatProviderFallback, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown CHAT_PROVIDER %q", cfg.ChatProvider)
	}
}

// App is the assembled HTTP application shared by the server and Lambda binaries.
type App struct {
	Handler    http.Handler
	Dispatcher *notify.Dispatcher
	Assistant  *chat.Assistant

	closers []io.Closer
}

// Close releases clients that hold connections, such as the Gemini client.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewApp wires configuration into handlers and the router. Metrics register
// on reg and are served from /metrics.
func NewApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, reg *prometheus.Registry) *App {
	if logger == nil {
		logger = logging.Default()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	formMetrics := metrics.NewFormMetrics(reg)

	dispatcher := notify.NewDispatcher(ctx, DispatcherConfig(cfg),
		notify.NewTransportFactory(TransportConfig(cfg), logger), logger,
		notify.WithDeliveryRecorder(formMetrics),
	)

	app := &App{Dispatcher: dispatcher}

	llm, err := LLMClient(ctx, cfg)
	if err != nil {
		logger.Warn("chat: llm client unavailable, using canned replies", "provider", cfg.ChatProvider, "error", err)
	}
	if closer, ok := llm.(io.Closer); ok {
		app.closers = append(app.closers, closer)
	}
	app.Assistant = chat.NewAssistant(llm,
		chat.NewFallbackReplies(chat.Contact{Name: cfg.BusinessName, Email: cfg.BusinessEmail, Phone: cfg.BusinessPhone}),
		chat.AssistantConfig{Timeout: cfg.ChatTimeout},
		logger,
	)

	policy := httpmiddleware.NewOriginPolicy(cfg.CORSAllowedOrigins)
	formOpts := []handlers.FormHandlerOption{
		handlers.WithFormMetrics(formMetrics),
		handlers.WithMaxBodyBytes(cfg.MaxBodyBytes),
		handlers.WithOriginPolicy(policy),
	}

	check := diagnostics.NewEmailCheck(dispatcher, diagnostics.Credentials{
		HasUser: cfg.EmailUser != "",
		HasPass: cfg.EmailPass != "",
	}, cfg.BusinessName, logger)

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		ContactHandler:     handlers.NewFormHandler(forms.Contact, dispatcher, logger, formOpts...),
		BookingHandler:     handlers.NewFormHandler(forms.Booking, dispatcher, logger, formOpts...),
		ChatHandler:        handlers.NewChatHandler(app.Assistant, formMetrics, policy, logger),
		EmailTestHandler:   handlers.NewEmailTestHandler(check, cfg.EmailTestEnabled, policy, logger),
		HealthHandler:      handlers.Health(dispatcher.Available),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	logger.Info("application wired",
		"mail_provider", cfg.MailProvider,
		"mail_ready", dispatcher.Available(),
		"chat_llm", app.Assistant.UsesLLM(),
		"email_test_enabled", cfg.EmailTestEnabled,
	)
	return app
}
