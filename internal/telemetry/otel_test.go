package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestNoopProviderNotEnabled(t *testing.T) {
	p := NoopProvider()
	if p.Enabled() {
		t.Fatal("expected NoopProvider to report disabled")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown on a provider with no backing TracerProvider should be a no-op: %v", err)
	}
}

func TestNewProviderDisabledConfig(t *testing.T) {
	p, err := NewProvider(DefaultConfig())
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if p.Enabled() {
		t.Fatal("expected disabled config to produce a disabled provider")
	}
}

func TestNewProviderNoneExporterStaysDisabled(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, Exporter: "none"})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if p.Enabled() {
		t.Fatal("expected \"none\" exporter to leave the provider disabled")
	}
}

func TestStartAuthorizeAndEndAuthorizeRoundTrip(t *testing.T) {
	p := NoopProvider()
	ctx, span := p.StartAuthorize(context.Background(), 7, "corr-1", "https://pdp.example.org/authz")
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	p.EndAuthorize(span, "Permit", 200, nil)
	p.EndAuthorize(span, "", 0, errors.New("boom")) // ending twice must not panic
}

func TestStartChildUsesParentTracer(t *testing.T) {
	p := NoopProvider()
	ctx, span := p.StartAuthorize(context.Background(), 1, "corr-2", "https://pdp.example.org/authz")
	defer span.End()

	_, child := p.StartChild(ctx, "pep.marshal")
	child.End()
}
