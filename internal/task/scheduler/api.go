package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"remindbot/internal/recurrence"
	logx "remindbot/pkg/logx"
)

// ScheduleRecurring registers rule and returns its handle.
//
//   - daily / weekly rules run on cron in the service timezone
//   - burst rules fire every rule.Every, rule.Times times, then stop themselves
//
// Malformed rules are rejected before anything is armed.
func (s *Service) ScheduleRecurring(name string, rule recurrence.Rule, fn Func) (*Job, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if fn == nil {
		return nil, ErrNilFunc
	}

	j := &Job{svc: s, name: name, rule: rule, fn: fn}
	switch rule.Kind {
	case recurrence.KindBurst:
		if rule.Every <= 0 || rule.Times <= 0 {
			return nil, fmt.Errorf("scheduler: %s: %w", name, recurrence.ErrBadBurst)
		}
		j.kind = jobBurst
		j.every = rule.Every
		j.times = rule.Times
	default:
		sched, err := rule.Schedule()
		if err != nil {
			return nil, fmt.Errorf("scheduler: %s: %w", name, err)
		}
		j.kind = jobCron
		j.sched = sched
	}

	s.mu.Lock()
	s.jobs[j] = struct{}{}
	switch j.kind {
	case jobBurst:
		s.armLocked(j, j.every)
	case jobCron:
		if s.c != nil {
			job := j
			j.entryID = s.c.Schedule(j.sched, cron.FuncJob(func() { s.fireCron(job) }))
		}
	}
	next := s.nextLocked(j)
	s.mu.Unlock()

	if s.log.Enabled(logx.LevelDebug) {
		s.log.Debug("schedule registered",
			logx.String("name", name),
			logx.String("rule", rule.String()),
			logx.Time("next", next),
		)
	}
	return j, nil
}

// ScheduleOnce fires fn once after delay.
func (s *Service) ScheduleOnce(name string, delay time.Duration, fn Func) *Job {
	if delay < 0 {
		delay = 0
	}
	j := &Job{svc: s, name: strings.TrimSpace(name), kind: jobOnce, fn: fn, every: delay, times: 1}
	if fn == nil {
		j.stopped = true
		return j
	}
	s.mu.Lock()
	s.jobs[j] = struct{}{}
	s.armLocked(j, delay)
	s.mu.Unlock()
	return j
}

// Len reports the number of live jobs.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (j *Job) Name() string { return j.name }

// Stop cancels the job. After it returns no new invocation starts; one already
// handed to the executor is dropped before it runs. Returns false when the job
// was already stopped.
func (j *Job) Stop() bool {
	if j == nil || j.svc == nil {
		return false
	}
	s := j.svc
	s.mu.Lock()
	if j.stopped {
		s.mu.Unlock()
		return false
	}
	j.stopped = true
	j.ver++
	if j.timer != nil {
		_ = j.timer.Stop()
		j.timer = nil
	}
	if j.entryID != 0 && s.c != nil {
		s.c.Remove(j.entryID)
	}
	j.entryID = 0
	delete(s.jobs, j)
	s.mu.Unlock()

	s.log.Debug("schedule removed", logx.String("name", j.name))
	return true
}

// Stopped reports whether Stop was called.
func (j *Job) Stopped() bool {
	if j == nil || j.svc == nil {
		return true
	}
	j.svc.mu.Lock()
	defer j.svc.mu.Unlock()
	return j.stopped
}

// Next is the next trigger time, zero when the job will not fire again.
func (j *Job) Next() time.Time {
	if j == nil || j.svc == nil {
		return time.Time{}
	}
	j.svc.mu.Lock()
	defer j.svc.mu.Unlock()
	return j.svc.nextLocked(j)
}

// Fired is the number of firings so far.
func (j *Job) Fired() int {
	if j == nil || j.svc == nil {
		return 0
	}
	j.svc.mu.Lock()
	defer j.svc.mu.Unlock()
	return j.fired
}

func (s *Service) nextLocked(j *Job) time.Time {
	if j.stopped || j.done {
		return time.Time{}
	}
	switch j.kind {
	case jobCron:
		loc := s.loc
		if loc == nil {
			loc = time.Local
		}
		return j.sched.Next(time.Now().In(loc))
	default:
		return j.nextAt
	}
}

// armLocked starts the timer for the next burst or once firing. Call with s.mu held.
func (s *Service) armLocked(j *Job, d time.Duration) {
	// bump version to ignore stale callbacks from previous timers
	j.ver++
	ver := j.ver
	j.nextAt = time.Now().Add(d)
	j.timer = time.AfterFunc(d, func() { s.fireTimer(j, ver) })
}

func (s *Service) fireTimer(j *Job, ver uint64) {
	s.mu.Lock()
	if j.stopped || j.done || j.ver != ver {
		s.mu.Unlock()
		return
	}
	j.fired++
	f := Fire{Seq: j.fired, At: time.Now()}
	if j.fired >= j.times {
		f.Last = true
		j.done = true
		j.timer = nil
		j.nextAt = time.Time{}
		delete(s.jobs, j)
	} else {
		s.armLocked(j, j.every)
	}
	ctx := s.ctx
	s.mu.Unlock()

	s.dispatch(ctx, j, f)
}

func (s *Service) fireCron(j *Job) {
	s.mu.Lock()
	if j.stopped {
		s.mu.Unlock()
		return
	}
	j.fired++
	loc := s.loc
	if loc == nil {
		loc = time.Local
	}
	f := Fire{Seq: j.fired, At: time.Now().In(loc)}
	ctx := s.ctx
	s.mu.Unlock()

	s.dispatch(ctx, j, f)
}

func (s *Service) dispatch(ctx context.Context, j *Job, f Fire) {
	s.exec(func() {
		// Stop may have landed between the trigger and the executor.
		if j.Stopped() {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("job panic", logx.String("name", j.name), logx.Any("panic", r))
			}
		}()
		j.fn(ctx, f)
	})
}
