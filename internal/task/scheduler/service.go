package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	logx "remindbot/pkg/logx"
)

func New(cfg Config, log logx.Logger, opts ...Option) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		cfg:  cfg,
		log:  log,
		exec: func(fn func()) { go fn() },
		ctx:  context.Background(),
		jobs: map[*Job]struct{}{},
	}
	for _, o := range opts {
		o(s)
	}
	s.loc = s.loadLocationLocked()
	return s
}

// Location is the timezone every calendar rule is evaluated in.
func (s *Service) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loc == nil {
		return time.Local
	}
	return s.loc
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldTZ := strings.TrimSpace(s.cfg.Timezone)
	newTZ := strings.TrimSpace(cfg.Timezone)
	s.cfg = cfg
	if oldTZ == newTZ {
		return
	}
	if s.c == nil {
		s.loc = s.loadLocationLocked()
		return
	}
	// restart cron with the new location and re-register live jobs
	s.restartLocked()
}

// Start begins cron triggering. Calendar jobs registered earlier are attached now.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	if ctx != nil {
		s.ctx = ctx
	}
	s.loc = s.loadLocationLocked()
	s.c = cron.New(cron.WithLocation(s.loc))
	n := s.attachCronLocked()
	s.c.Start()
	s.log.Info("service started", logx.String("tz", s.loc.String()), logx.Int("schedules", n))
}

// Stop halts cron and every pending timer. Job handles stay valid but no longer fire.
// It is safe to call more than once; a nil ctx waits for running cron jobs without a deadline.
func (s *Service) Stop(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	s.mu.Lock()
	c := s.c
	s.c = nil
	for j := range s.jobs {
		j.ver++
		j.entryID = 0
		if j.timer != nil {
			_ = j.timer.Stop()
			j.timer = nil
		}
	}
	s.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}
	s.log.Info("service stopped", logx.Duration("took", time.Since(start)))
}

func (s *Service) restartLocked() {
	if s.c != nil {
		// Do not wait for running jobs here: they take s.mu.
		s.c.Stop()
	}
	s.loc = s.loadLocationLocked()
	s.c = cron.New(cron.WithLocation(s.loc))
	n := s.attachCronLocked()
	s.c.Start()
	s.log.Info("service restarted", logx.String("tz", s.loc.String()), logx.Int("schedules", n))
}

// attachCronLocked registers every live calendar job with s.c. Call with s.mu held.
func (s *Service) attachCronLocked() int {
	n := 0
	for j := range s.jobs {
		if j.kind != jobCron || j.stopped {
			continue
		}
		job := j
		j.entryID = s.c.Schedule(j.sched, cron.FuncJob(func() { s.fireCron(job) }))
		n++
	}
	return n
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone; falling back to Local", logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}
