package driver

import (
	"context"
	"testing"

	"github.com/certen/signum/pkg/factors"
)

type fakeSerial struct {
	outcome DriverOutcome
	calls   int
}

func (f *fakeSerial) SignOne(ctx context.Context, input BatchInput) DriverOutcome {
	f.calls++
	return f.outcome
}

func TestSerialDriverCallCount(t *testing.T) {
	fs := factors.FactorSource{ID: factors.NewFactorSourceID([]byte{1}), Kind: factors.FactorSourceKindLedger}
	fd := &fakeSerial{outcome: DriverOutcome{Kind: Signed}}
	sd := NewSerial(factors.FactorSourceKindLedger, fd, nil)

	out := sd.Serial.SignOne(context.Background(), BatchInput{FactorSource: fs})
	if out.Kind != Signed {
		t.Fatalf("expected Signed, got %v", out.Kind)
	}
	if fd.calls != 1 {
		t.Fatalf("expected exactly one call, got %d", fd.calls)
	}
}

func TestBatchInputInvalidIfSkipped(t *testing.T) {
	input := BatchInput{Transactions: []TransactionContext{
		{IntentHash: factors.NewIntentHash([]byte{1})},
		{IntentHash: factors.NewIntentHash([]byte{2}), EntitiesInvalidIfSkipped: []factors.EntityAddress{{Value: "e1"}}},
	}}
	if !input.InvalidIfSkipped() {
		t.Fatal("expected InvalidIfSkipped to be true when any transaction names an at-risk entity")
	}

	empty := BatchInput{Transactions: []TransactionContext{{IntentHash: factors.NewIntentHash([]byte{1})}}}
	if empty.InvalidIfSkipped() {
		t.Fatal("expected InvalidIfSkipped to be false when no transaction is at risk")
	}
}

type fakeRetrier struct{ allow bool }

func (f fakeRetrier) ShouldRetry(ctx context.Context, failed DriverOutcome) bool { return f.allow }

func TestRetrierCapability(t *testing.T) {
	sd := NewSerial(factors.FactorSourceKindDevice, &fakeSerial{outcome: DriverOutcome{Kind: DriverFailed}}, fakeRetrier{allow: true})
	if sd.Retry == nil {
		t.Fatal("expected retrier to be wired")
	}
	if !sd.Retry.ShouldRetry(context.Background(), DriverOutcome{Kind: DriverFailed}) {
		t.Fatal("expected fake retrier to allow retry")
	}
}
