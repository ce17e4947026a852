package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCancelAndWait(t *testing.T) {
	t.Run("finishes fast enough", func(t *testing.T) {
		testJobs := Jobs{
			fakeJob("cleanup", 50*time.Millisecond),
			fakeJob("eviction", 100*time.Millisecond),
		}

		before := time.Now()
		unfinished := testJobs.CancelAndWait(time.Second)
		assert.WithinDuration(t, time.Now(), before, 500*time.Millisecond)
		assert.Empty(t, unfinished)
	})
	t.Run("reports unfinished jobs", func(t *testing.T) {
		testJobs := Jobs{
			fakeJob("cleanup", 50*time.Millisecond),
			fakeJob("stuck", 10*time.Second),
		}

		unfinished := testJobs.CancelAndWait(300 * time.Millisecond)
		assert.Equal(t, []string{"stuck"}, unfinished)
	})
}

func TestPeriodic(t *testing.T) {
	var calls int32
	job := Periodic("counter", 20*time.Millisecond, func(ctx context.Context) error {
		n := atomic.AddInt32(&calls, 1)
		switch n {
		case 1:
			return errors.New("first run fails")
		case 2:
			panic("second run panics")
		}
		return nil
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 3
	}, time.Second, 5*time.Millisecond, "errors and panics should not stop the loop")

	unfinished := Jobs{job}.CancelAndWait(time.Second)
	assert.Empty(t, unfinished)
}

func fakeJob(name string, shutdownTime time.Duration) *Job {
	job := New(name)
	go func() {
		<-job.Canceled()
		time.Sleep(shutdownTime)
		job.Finish()
	}()
	return job
}
