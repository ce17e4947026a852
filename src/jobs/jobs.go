/*
Package jobs runs background work that can be cancelled and waited on during
shutdown. A job's context is cancelled by Cancel; the job calls Finish once it
has actually stopped.
*/
package jobs

import (
	"context"
	"time"

	"github.com/quillpress/quill/src/logging"
	"github.com/quillpress/quill/src/utils"
	"github.com/rs/zerolog"
)

type Job struct {
	Name   string
	Ctx    context.Context
	Logger zerolog.Logger
	cancel func()
	done   chan struct{}
}

func New(name string) *Job {
	logger := logging.With().Str("job", name).Logger()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logging.AttachLoggerToContext(&logger, ctx)
	return &Job{
		Name:   name,
		Ctx:    ctx,
		Logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Asks the job to stop. Called from outside the job.
func (j *Job) Cancel() {
	j.cancel()
}

func (j *Job) Canceled() <-chan struct{} {
	return j.Ctx.Done()
}

// Called by the job itself once its work has stopped.
func (j *Job) Finish() *Job {
	close(j.done)
	return j
}

func (j *Job) Finished() <-chan struct{} {
	return j.done
}

/*
Starts a job that calls work right away and then once per interval until
cancelled. Errors and panics from work are logged and the loop keeps going.
*/
func Periodic(name string, interval time.Duration, work func(ctx context.Context) error) *Job {
	job := New(name)
	go func() {
		defer job.Finish()

		t := utils.NewInstaTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-job.Canceled():
				return
			case <-t.C:
				err := func() (err error) {
					defer utils.RecoverPanicAsError(&err)
					return work(job.Ctx)
				}()
				if err != nil && job.Ctx.Err() == nil {
					job.Logger.Error().Err(err).Msg("periodic job failed")
				}
			}
		}
	}()
	return job
}

// A set of jobs stopped together at shutdown.
type Jobs []*Job

// Cancels every job and waits up to timeout for all of them to finish.
// Returns the names of the jobs that were still running.
func (jobs Jobs) CancelAndWait(timeout time.Duration) []string {
	for _, job := range jobs {
		job.Cancel()
	}

	allDone := make(chan struct{})
	go func() {
		for _, job := range jobs {
			<-job.Finished()
		}
		close(allDone)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-timer.C:
		return jobs.ListUnfinished()
	case <-allDone:
		return nil
	}
}

func (jobs Jobs) ListUnfinished() []string {
	unfinished := []string{}
	for _, job := range jobs {
		select {
		case <-job.Finished():
		default:
			unfinished = append(unfinished, job.Name)
		}
	}
	return unfinished
}
