package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDisabledRegistryIsNoop(t *testing.T) {
	r := Disabled()
	r.ObserveAuthorize("Permit", ResultOK, 0.5)
	r.AddHessianBytes(DirectionSent, 128)

	mfs, err := r.Gatherer().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(mfs) != 0 {
		t.Fatalf("expected no metric families from a disabled registry, got %d", len(mfs))
	}
}

func TestObserveAuthorizeIncrementsCounter(t *testing.T) {
	r := New()
	r.ObserveAuthorize("Permit", ResultOK, 0.1)
	r.ObserveAuthorize("Deny", ResultOK, 0.2)

	got := testutil.ToFloat64(r.authorizeTotal.WithLabelValues("Permit", string(ResultOK)))
	if got != 1 {
		t.Fatalf("expected 1 Permit/ok observation, got %v", got)
	}
}

func TestAddHessianBytesIgnoresNonPositive(t *testing.T) {
	r := New()
	r.AddHessianBytes(DirectionSent, 0)
	r.AddHessianBytes(DirectionSent, -5)
	r.AddHessianBytes(DirectionSent, 10)

	got := testutil.ToFloat64(r.hessianBytesTotal.WithLabelValues(string(DirectionSent)))
	if got != 10 {
		t.Fatalf("expected 10 bytes recorded, got %v", got)
	}
}
