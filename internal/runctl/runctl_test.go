package runctl

import (
	"errors"
	"testing"
	"time"
)

func TestControllerHappyPath(t *testing.T) {
	c := New()
	if c.State() != Initializing {
		t.Fatalf("initial state = %v", c.State())
	}

	c.Start()
	if c.State() != AllRunning {
		t.Fatalf("state after Start = %v", c.State())
	}

	if err := c.SplitterFinished(); err != nil {
		t.Fatalf("SplitterFinished: %v", err)
	}
	if err := c.ExtractorsFinished(); err != nil {
		t.Fatalf("ExtractorsFinished: %v", err)
	}
	if err := c.ExecutorFinished(); err != nil {
		t.Fatalf("ExecutorFinished: %v", err)
	}

	if err := c.WaitTerminal(); err != nil {
		t.Fatalf("WaitTerminal = %v", err)
	}
}

func TestControllerOutOfOrderSignalIsError(t *testing.T) {
	c := New()
	c.Start()
	if err := c.ExtractorsFinished(); err == nil {
		t.Fatal("ExtractorsFinished before SplitterFinished must fail")
	}
}

func TestControllerSignalsAreNoopsAfterError(t *testing.T) {
	c := New()
	c.Start()
	boom := errors.New("boom")
	c.Fail(boom)

	if err := c.SplitterFinished(); err != nil {
		t.Errorf("SplitterFinished after Error: %v", err)
	}
	if err := c.ExtractorsFinished(); err != nil {
		t.Errorf("ExtractorsFinished after Error: %v", err)
	}
	if err := c.ExecutorFinished(); err != nil {
		t.Errorf("ExecutorFinished after Error: %v", err)
	}
	if !c.Cancelled() {
		t.Error("Cancelled() must be true after Fail")
	}
}

func TestControllerFailStoresFirstError(t *testing.T) {
	c := New()
	c.Start()
	first := errors.New("first")
	second := errors.New("second")
	c.Fail(first)
	c.Fail(second)
	if err := c.Err(); !errors.Is(err, first) {
		t.Fatalf("stored error = %v, want the first failure", err)
	}
}

func TestControllerWaitWakesOnError(t *testing.T) {
	c := New()
	c.Start()

	done := make(chan State, 1)
	go func() {
		done <- c.Wait(func(s State) bool { return s == ExecutorFinished })
	}()

	time.Sleep(20 * time.Millisecond)
	c.Fail(errors.New("boom"))

	select {
	case st := <-done:
		if st != Error {
			t.Fatalf("Wait returned %v, want Error", st)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait did not wake on Error")
	}
}

func TestControllerWaitTerminalReturnsStoredError(t *testing.T) {
	c := New()
	c.Start()
	boom := errors.New("boom")

	done := make(chan error, 1)
	go func() { done <- c.WaitTerminal() }()

	time.Sleep(20 * time.Millisecond)
	c.Fail(boom)

	select {
	case err := <-done:
		if !errors.Is(err, boom) {
			t.Fatalf("WaitTerminal = %v, want %v", err, boom)
		}
	case <-time.After(time.Second):
		t.Fatal("WaitTerminal did not return")
	}
}
