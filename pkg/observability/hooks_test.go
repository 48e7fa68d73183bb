package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Registry hooks
	r := NoopRegistryHooks{}
	r.OnScanComplete(ctx, 3, 1, time.Second, nil)
	r.OnPublish(ctx, "/tmp/kv_registry.json", nil)
	r.OnResolve(ctx, "characters", "found")
	r.OnRead(ctx, "characters.json", errors.New("boom"))

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/registry/image")
	h.OnResponse(ctx, "GET", "/registry/image", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Registry().(NoopRegistryHooks); !ok {
		t.Error("Registry() should return NoopRegistryHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customRegistry := &testRegistryHooks{}
	SetRegistryHooks(customRegistry)
	if Registry() != customRegistry {
		t.Error("SetRegistryHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Registry().(NoopRegistryHooks); !ok {
		t.Error("Reset() should restore NoopRegistryHooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset() should restore NoopHTTPHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testRegistryHooks{}
	SetRegistryHooks(custom)

	// Setting nil should be ignored
	SetRegistryHooks(nil)

	if Registry() != custom {
		t.Error("SetRegistryHooks(nil) should be ignored")
	}

	Reset()
}

func TestCustomHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	custom := &testRegistryHooks{}
	SetRegistryHooks(custom)

	Registry().OnResolve(context.Background(), "characters", "forbidden")
	if custom.lastOutcome != "forbidden" {
		t.Errorf("lastOutcome = %q, want %q", custom.lastOutcome, "forbidden")
	}
}

// Test implementations
type testRegistryHooks struct {
	NoopRegistryHooks
	lastOutcome string
}

func (h *testRegistryHooks) OnResolve(_ context.Context, _, outcome string) {
	h.lastOutcome = outcome
}

type testHTTPHooks struct{ NoopHTTPHooks }
