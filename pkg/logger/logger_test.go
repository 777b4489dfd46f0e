package logger

import (
	"testing"

	"github.com/theory-cloud/sitetheory/pkg/observability"
)

func TestLogger_DefaultIsNoOp(t *testing.T) {
	got := Logger()
	if got == nil {
		t.Fatal("expected Logger() to return a non-nil logger")
	}
	if !got.IsHealthy() {
		t.Fatal("expected default logger to be healthy")
	}
}

func TestSetLogger_ReplacesAndResets(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	test := observability.NewTestLogger()
	SetLogger(test)
	Logger().Info("hello")
	if len(test.Entries()) != 1 {
		t.Fatalf("expected global logger to receive entry, got %d", len(test.Entries()))
	}

	SetLogger(nil)
	if Logger() == observability.StructuredLogger(test) {
		t.Fatal("expected SetLogger(nil) to reset the logger")
	}
}

func TestOr(t *testing.T) {
	t.Cleanup(func() { SetLogger(nil) })

	global := observability.NewTestLogger()
	SetLogger(global)

	local := observability.NewTestLogger()
	if Or(local) != observability.StructuredLogger(local) {
		t.Fatal("expected explicit logger to win")
	}
	if Or(nil) != observability.StructuredLogger(global) {
		t.Fatal("expected nil to fall back to the global logger")
	}
}
