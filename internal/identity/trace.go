package identity

import (
	"context"
	"errors"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/mabego/shortlink-web/internal/identity"

type tracedProvider struct {
	next   Provider
	tracer trace.Tracer
}

// Traced wraps next so every resolve is recorded as a span.
func Traced(next Provider, tp trace.TracerProvider) Provider {
	return &tracedProvider{next: next, tracer: tp.Tracer(tracerName)}
}

func (p *tracedProvider) Resolve(ctx context.Context, r *http.Request) (Session, error) {
	ctx, span := p.tracer.Start(ctx, "identity.Resolve")
	defer span.End()

	s, err := p.next.Resolve(ctx, r)
	span.SetAttributes(attribute.Bool("identity.session.active", s.Active()))

	// A missing session is the normal signed-out case, not a failure.
	if err != nil && !errors.Is(err, ErrNoSession) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return s, err
}
