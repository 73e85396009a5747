package workerpool_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shashiranjanraj/giftbid/pkg/workerpool"
)

func TestPoolRunsEveryJob(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	const jobs = 100
	var ran atomic.Int64
	var wg sync.WaitGroup
	wg.Add(jobs)

	for i := 0; i < jobs; i++ {
		if err := pool.SubmitWait(func() {
			defer wg.Done()
			ran.Add(1)
		}); err != nil {
			t.Fatalf("SubmitWait: %v", err)
		}
	}
	wg.Wait()

	if got := ran.Load(); got != jobs {
		t.Errorf("ran %d of %d jobs", got, jobs)
	}
}

func TestSubmitRejectsWhenFull(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	release := make(chan struct{})
	started := make(chan struct{})

	// Occupy the only worker, then fill the 2-slot buffer behind it.
	_ = pool.SubmitWait(func() {
		close(started)
		<-release
	})
	<-started
	_ = pool.Submit(func() {})
	_ = pool.Submit(func() {})

	if err := pool.Submit(func() {}); !errors.Is(err, workerpool.ErrPoolFull) {
		t.Errorf("Submit on full buffer = %v, want ErrPoolFull", err)
	}
	close(release)
}

func TestSubmitAfterShutdown(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()

	if err := pool.Submit(func() {}); !errors.Is(err, workerpool.ErrPoolClosed) {
		t.Errorf("Submit after Shutdown = %v, want ErrPoolClosed", err)
	}
}

func TestPanickingJobDoesNotKillWorker(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	wg.Add(1)

	// One listing settling badly must not stall the rest of the sweep pass.
	_ = pool.SubmitWait(func() {
		defer wg.Done()
		panic("expected panic")
	})
	wg.Wait()

	next := make(chan struct{})
	_ = pool.SubmitWait(func() { close(next) })

	select {
	case <-next:
	case <-time.After(2 * time.Second):
		t.Fatal("job submitted after a panic never ran")
	}
}

func TestShutdownWaitsForInFlightJobs(t *testing.T) {
	pool := workerpool.New(10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		_ = pool.SubmitWait(func() {
			defer wg.Done()
			time.Sleep(time.Millisecond)
		})
	}
	wg.Wait()

	pool.Shutdown()
	pool.Shutdown() // second call must be a no-op
}
