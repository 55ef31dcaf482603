package generative

import (
	"context"
	"log/slog"

	"github.com/productlister/lister/internal/providers"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/productlister/lister/internal/generative")

// traceCall wraps a provider call in a span named after the operation
func traceCall(
	ctx context.Context,
	op string,
	tier Tier,
	model string,
	fn func(context.Context) (*providers.Response, error),
) (*providers.Response, error) {
	ctx, span := tracer.Start(ctx, "generative."+op, trace.WithAttributes(
		attribute.String("gen_ai.request.model", model),
		attribute.String("lister.tier", string(tier)),
	))
	defer span.End()

	slog.Debug("Calling model", "op", op, "tier", tier, "model", model)

	resp, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if resp != nil {
		span.SetAttributes(attribute.Int("gen_ai.response.candidates", len(resp.Candidates)))
	}
	return resp, nil
}
