package click

import (
	"errors"
	"testing"
	"time"

	"continue-clicker/pkg/geometry"
)

type fakePointer struct {
	width, height int
	failFirst     int // number of leading attempts that error
	err           error
	clicks        []geometry.PointInt
}

func (f *fakePointer) ScreenSize() (int, int) { return f.width, f.height }

func (f *fakePointer) Click(x, y int) error {
	if f.failFirst > 0 {
		f.failFirst--
		return f.err
	}
	f.clicks = append(f.clicks, geometry.PointInt{X: x, Y: y})
	return nil
}

func newTestExecutor(p Pointer, opts Options) *Executor {
	e := NewExecutor(p, opts)
	e.sleep = func(time.Duration) {}
	return e
}

func TestExecuteClicksFirstCandidate(t *testing.T) {
	fp := &fakePointer{width: 1920, height: 1080}
	e := newTestExecutor(fp, Options{MaxRetries: 3})

	res, err := e.Execute([]geometry.PointInt{{X: 100, Y: 200}, {X: 500, Y: 500}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Target != (geometry.PointInt{X: 100, Y: 200}) || res.Attempts != 1 {
		t.Errorf("result = %+v, want target (100,200) on attempt 1", res)
	}
	if len(fp.clicks) != 1 {
		t.Errorf("performed %d clicks, want 1", len(fp.clicks))
	}
}

func TestExecuteAppliesOffsets(t *testing.T) {
	fp := &fakePointer{width: 1920, height: 1080}
	e := newTestExecutor(fp, Options{OffsetX: 10, OffsetY: -5, MaxRetries: 0})

	res, err := e.Execute([]geometry.PointInt{{X: 100, Y: 200}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Target != (geometry.PointInt{X: 110, Y: 195}) {
		t.Errorf("target = %v, want (110,195)", res.Target)
	}
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	fp := &fakePointer{width: 1920, height: 1080, failFirst: 2, err: errors.New("device busy")}
	e := newTestExecutor(fp, Options{MaxRetries: 3, RetryDelay: time.Second})

	res, err := e.Execute([]geometry.PointInt{{X: 50, Y: 60}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
	if len(fp.clicks) != 1 {
		t.Errorf("performed %d clicks, want exactly 1", len(fp.clicks))
	}
}

func TestExecuteExhaustsRetries(t *testing.T) {
	cause := errors.New("grab failed")
	fp := &fakePointer{width: 1920, height: 1080, failFirst: 10, err: cause}
	e := newTestExecutor(fp, Options{MaxRetries: 2})

	res, err := e.Execute([]geometry.PointInt{{X: 50, Y: 60}})
	if err == nil {
		t.Fatal("Execute() succeeded, want error")
	}
	if !errors.Is(err, cause) {
		t.Errorf("error chain lost the cause: %v", err)
	}
	if res.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", res.Attempts)
	}
}

func TestExecuteRejectsOutOfBounds(t *testing.T) {
	fp := &fakePointer{width: 800, height: 600}
	e := newTestExecutor(fp, Options{MaxRetries: 1})

	_, err := e.Execute([]geometry.PointInt{{X: 900, Y: 100}})
	if err == nil {
		t.Fatal("Execute() succeeded for out-of-bounds target")
	}
	if len(fp.clicks) != 0 {
		t.Errorf("clicked %v despite out-of-bounds target", fp.clicks)
	}
}

func TestExecuteOffsetCanPushOutOfBounds(t *testing.T) {
	fp := &fakePointer{width: 800, height: 600}
	e := newTestExecutor(fp, Options{OffsetX: 50, MaxRetries: 0})

	if _, err := e.Execute([]geometry.PointInt{{X: 790, Y: 100}}); err == nil {
		t.Error("Execute() succeeded, want bounds failure after offset")
	}
}

func TestExecuteNoCandidates(t *testing.T) {
	e := newTestExecutor(&fakePointer{width: 800, height: 600}, Options{})
	if _, err := e.Execute(nil); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("error = %v, want ErrNoCandidates", err)
	}
}

func TestExecuteSettleDelayAfterSuccess(t *testing.T) {
	fp := &fakePointer{width: 800, height: 600}
	e := NewExecutor(fp, Options{SettleDelay: 2 * time.Second})
	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }

	if _, err := e.Execute([]geometry.PointInt{{X: 10, Y: 10}}); err != nil {
		t.Fatal(err)
	}
	if len(slept) != 1 || slept[0] != 2*time.Second {
		t.Errorf("settle sleeps = %v, want one 2s sleep", slept)
	}
}
