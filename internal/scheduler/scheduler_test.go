package scheduler

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mingleapp/mingle-server/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestRunsImmediatelyAndOnTicks(t *testing.T) {
	var runs atomic.Int32

	s := New()
	s.Register(Job{
		Name:     "counter",
		Interval: 25 * time.Millisecond,
		Handler:  func() { runs.Add(1) },
	})
	s.Start()
	defer s.Stop()

	// The startup run happens before the first tick.
	deadline := time.Now().Add(time.Second)
	for runs.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("job never ran")
		}
		time.Sleep(time.Millisecond)
	}

	// Several intervals later it has run again.
	time.Sleep(120 * time.Millisecond)
	if got := runs.Load(); got < 3 {
		t.Errorf("runs after ~5 intervals = %d, want at least 3", got)
	}
}

func TestSkipsTickWhileHandlerRunning(t *testing.T) {
	var started atomic.Int32
	release := make(chan struct{})

	s := New()
	s.Register(Job{
		Name:     "slow",
		Interval: 15 * time.Millisecond,
		Handler: func() {
			started.Add(1)
			<-release
		},
	})
	s.Start()

	// Let several ticks fire while the first invocation is blocked.
	time.Sleep(100 * time.Millisecond)
	if got := started.Load(); got != 1 {
		t.Errorf("concurrent starts = %d, want 1 (ticks skipped)", got)
	}

	close(release)
	s.Stop()
}

func TestStopWaitsForInFlightHandler(t *testing.T) {
	var finished atomic.Bool
	entered := make(chan struct{})

	s := New()
	s.Register(Job{
		Name:     "lingering",
		Interval: time.Hour,
		Handler: func() {
			close(entered)
			time.Sleep(50 * time.Millisecond)
			finished.Store(true)
		},
	})
	s.Start()

	<-entered
	s.Stop()

	if !finished.Load() {
		t.Error("Stop returned before the in-flight handler finished")
	}
}

func TestRecoversFromPanickingHandler(t *testing.T) {
	var runs atomic.Int32

	s := New()
	s.Register(Job{
		Name:     "flaky",
		Interval: 20 * time.Millisecond,
		Handler: func() {
			runs.Add(1)
			panic("boom")
		},
	})
	s.Start()
	defer s.Stop()

	// The panic is contained and the job keeps getting dispatched.
	time.Sleep(100 * time.Millisecond)
	if got := runs.Load(); got < 2 {
		t.Errorf("runs = %d, want at least 2 after a panic", got)
	}
}

func TestIndependentJobs(t *testing.T) {
	var fast, slow atomic.Int32
	block := make(chan struct{})

	s := New()
	s.Register(Job{
		Name:     "blocked",
		Interval: 10 * time.Millisecond,
		Handler: func() {
			slow.Add(1)
			<-block
		},
	})
	s.Register(Job{
		Name:     "free",
		Interval: 10 * time.Millisecond,
		Handler:  func() { fast.Add(1) },
	})
	s.Start()

	// One job being stuck must not starve the other.
	time.Sleep(80 * time.Millisecond)
	if got := slow.Load(); got != 1 {
		t.Errorf("blocked job starts = %d, want 1", got)
	}
	if got := fast.Load(); got < 3 {
		t.Errorf("free job runs = %d, want at least 3", got)
	}

	close(block)
	s.Stop()
}
