package graph

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	ctx, err := NewContext(core.WithSampleRate(48000), core.WithBlockSize(128))
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	return ctx
}

func TestParamSetValueAtTime(t *testing.T) {
	ctx := newTestContext(t)
	p := newParam(ctx, 1)

	p.SetValueAtTime(0.5, 1.0)

	if got := p.automationValue(0.5); got != 1 {
		t.Fatalf("value before event = %v, want 1", got)
	}
	if got := p.automationValue(1.0); got != 0.5 {
		t.Fatalf("value at event = %v, want 0.5", got)
	}
	if got := p.automationValue(2.0); got != 0.5 {
		t.Fatalf("value after event = %v, want 0.5", got)
	}
}

func TestParamLinearRamp(t *testing.T) {
	ctx := newTestContext(t)
	p := newParam(ctx, 0)

	p.SetValueAtTime(0, 0)
	p.LinearRampToValueAtTime(1, 1)

	for _, tc := range []struct{ at, want float64 }{
		{0, 0}, {0.25, 0.25}, {0.5, 0.5}, {1, 1}, {2, 1},
	} {
		if got := p.automationValue(tc.at); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("value at %v = %v, want %v", tc.at, got, tc.want)
		}
	}
}

func TestParamExponentialRamp(t *testing.T) {
	ctx := newTestContext(t)
	p := newParam(ctx, 1)

	p.SetValueAtTime(1, 0)
	p.ExponentialRampToValueAtTime(0.01, 1)

	if got := p.automationValue(0.5); math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("midpoint = %v, want 0.1", got)
	}
	if got := p.automationValue(1); math.Abs(got-0.01) > 1e-12 {
		t.Fatalf("endpoint = %v, want 0.01", got)
	}
}

func TestParamExponentialRampClampsZeroTarget(t *testing.T) {
	ctx := newTestContext(t)
	p := newParam(ctx, 1)

	p.SetValueAtTime(1, 0)
	p.ExponentialRampToValueAtTime(0, 1)

	got := p.automationValue(1)
	if got <= 0 {
		t.Fatalf("exp ramp reached %v, want small positive floor", got)
	}
	if got > 1e-5 {
		t.Fatalf("exp ramp floor = %v, want <= 1e-5", got)
	}
}

func TestParamSetTarget(t *testing.T) {
	ctx := newTestContext(t)
	p := newParam(ctx, 1)

	p.SetValueAtTime(1, 0)
	p.SetTargetAtTime(0, 0, 0.5)

	want := math.Exp(-1) // exactly one time constant in
	if got := p.automationValue(0.5); math.Abs(got-want) > 1e-12 {
		t.Fatalf("target approach at 0.5s = %v, want %v", got, want)
	}
	if got := p.automationValue(10); got > 1e-8 {
		t.Fatalf("target approach at 10s = %v, want ~0", got)
	}
}

func TestParamSetTargetZeroTimeConstantActsAsSet(t *testing.T) {
	ctx := newTestContext(t)
	p := newParam(ctx, 1)

	p.SetTargetAtTime(0.25, 1, 0)

	if got := p.automationValue(1); got != 0.25 {
		t.Fatalf("value = %v, want 0.25", got)
	}
}

func TestParamCancelScheduledValues(t *testing.T) {
	ctx := newTestContext(t)
	p := newParam(ctx, 1)

	p.SetValueAtTime(1, 0)
	p.LinearRampToValueAtTime(0, 2)
	p.CancelScheduledValues(1.5)

	if got := p.automationValue(2); got != 1 {
		t.Fatalf("value after cancel = %v, want 1", got)
	}
}

func TestParamEventsSortedRegardlessOfInsertionOrder(t *testing.T) {
	ctx := newTestContext(t)
	p := newParam(ctx, 0)

	p.SetValueAtTime(3, 3)
	p.SetValueAtTime(1, 1)
	p.SetValueAtTime(2, 2)

	for _, tc := range []struct{ at, want float64 }{
		{1, 1}, {2, 2}, {3, 3},
	} {
		if got := p.automationValue(tc.at); got != tc.want {
			t.Fatalf("value at %v = %v, want %v", tc.at, got, tc.want)
		}
	}
}
