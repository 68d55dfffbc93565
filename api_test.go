package gonwjs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests exercise the package-level API, which shares one bridge
// process-wide, so each test leaves the registry and session closed.

func TestPackageAPIValidation(t *testing.T) {
	t.Cleanup(ClearAll)

	require.ErrorIs(t, On("__internal", func(any) {}), ErrInvalidEventName)
	require.ErrorIs(t, Clear("__internal"), ErrInvalidEventName)

	// no session open
	require.ErrorIs(t, Emit("ping", nil), ErrSessionClosed)
	require.ErrorIs(t, Emitter("ping")(nil), ErrSessionClosed)

	// closing with nothing open is fine
	require.NoError(t, Close())
	Wait()
}

func TestClearRemovesOnlyOneEvent(t *testing.T) {
	t.Cleanup(ClearAll)

	require.NoError(t, On("keep", func(any) {}))
	require.NoError(t, On("drop", func(any) {}))
	require.NoError(t, Clear("drop"))

	assert.Len(t, defaultBridge.registry.Lookup("keep"), 1)
	assert.Empty(t, defaultBridge.registry.Lookup("drop"))
}

func TestAddEventListener(t *testing.T) {
	t.Cleanup(ClearAll)

	called := make(chan any, 1)
	AddEventListener("my_button", "click", func(payload any) {
		called <- payload
	})

	defaultBridge.registry.Dispatch("__event__.my_button.click", "clicked")
	select {
	case payload := <-called:
		assert.Equal(t, "clicked", payload)
	default:
		t.Fatal("listener was not invoked")
	}
}

func TestEmitResultReservedName(t *testing.T) {
	_, err := EmitResult("__secret", func() (any, error) { return nil, nil })
	require.ErrorIs(t, err, ErrInvalidEventName)
}

func TestEmitResultWithoutSession(t *testing.T) {
	fn, err := EmitResult("show_result", func() (any, error) {
		return "this text is my result", nil
	})
	require.NoError(t, err)

	// the emit is swallowed on a closed session, the result survives
	v, err := fn()
	require.NoError(t, err)
	assert.Equal(t, "this text is my result", v)
}

func TestEmitResultEmitsToGUI(t *testing.T) {
	t.Cleanup(ClearAll)
	t.Cleanup(func() { Close() })

	got := make(chan any, 1)
	require.NoError(t, On("show_result", func(payload any) {
		got <- payload
	}))

	_, err := Open("test_app", WithExecutable(writeStub(t, stubEcho)), WithGracePeriod(time.Second))
	require.NoError(t, err)

	fn, err := EmitResult("show_result", func() (any, error) {
		return "computed", nil
	})
	require.NoError(t, err)

	v, err := fn()
	require.NoError(t, err)
	assert.Equal(t, "computed", v)

	select {
	case payload := <-got:
		assert.Equal(t, "computed", payload)
	case <-time.After(5 * time.Second):
		t.Fatal("result event never arrived")
	}
}

func TestEmitResultSkipsNil(t *testing.T) {
	t.Cleanup(func() { Close() })

	_, err := Open("test_app", WithExecutable(writeStub(t, stubIdle)), WithGracePeriod(time.Second))
	require.NoError(t, err)

	fn, err := EmitResult("show_result", func() (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	v, err := fn()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRunClosesOnReturn(t *testing.T) {
	var inside *Session
	err := Run("test_app", func(s *Session) error {
		inside = s
		return s.Emit("hello", "Hello JavaScript World!")
	}, WithExecutable(writeStub(t, stubIdle)), WithGracePeriod(time.Second))
	require.NoError(t, err)

	assert.False(t, inside.Active())
	require.ErrorIs(t, Emit("late", nil), ErrSessionClosed)
}

func TestRunToleratesCloseFromInside(t *testing.T) {
	err := Run("test_app", func(s *Session) error {
		return s.Close()
	}, WithExecutable(writeStub(t, stubIdle)), WithGracePeriod(time.Second))
	require.NoError(t, err)
}
