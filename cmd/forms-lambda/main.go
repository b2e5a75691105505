package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/mulambwane/safari-forms/cmd/mainconfig"
	appconfig "github.com/mulambwane/safari-forms/internal/config"
	"github.com/mulambwane/safari-forms/internal/lambdaproxy"
	"github.com/mulambwane/safari-forms/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	handler, err := newLambdaHandler(context.Background(), cfg, logger)
	if err != nil {
		panic(err)
	}
	lambda.Start(handler)
}

// newLambdaHandler builds the app once per cold start and returns the event
// handler for the configured payload version.
func newLambdaHandler(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (any, error) {
	app := mainconfig.NewApp(ctx, cfg, logger, prometheus.NewRegistry())
	adapter := lambdaproxy.New(app.Handler, logger)

	switch cfg.LambdaEventFormat {
	case "", "v1":
		return adapter.Handle, nil
	case "v2":
		return adapter.HandleV2, nil
	default:
		return nil, fmt.Errorf("unsupported LAMBDA_EVENT_FORMAT %q", cfg.LambdaEventFormat)
	}
}
