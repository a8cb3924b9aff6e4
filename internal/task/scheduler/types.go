package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"remindbot/internal/recurrence"
	logx "remindbot/pkg/logx"
)

var (
	ErrNameRequired = errors.New("name required")
	ErrNilFunc      = errors.New("callback required")
)

// Config controls the scheduler service.
type Config struct {
	Timezone string // IANA TZ, e.g. "America/El_Salvador"
}

// Fire describes one invocation of a job.
type Fire struct {
	Seq  int  // 1-based
	Last bool // true on the final firing of a burst or once job
	At   time.Time
}

// Func is the callback attached to a job.
type Func func(ctx context.Context, f Fire)

// Executor runs a firing. The default starts a goroutine.
type Executor func(fn func())

type Option func(*Service)

// WithExecutor routes every firing through ex.
func WithExecutor(ex Executor) Option {
	return func(s *Service) {
		if ex != nil {
			s.exec = ex
		}
	}
}

type jobKind int

const (
	jobCron jobKind = iota + 1
	jobBurst
	jobOnce
)

// Job is a handle to a scheduled callback. Stop is idempotent.
type Job struct {
	svc  *Service
	name string
	kind jobKind
	rule recurrence.Rule
	fn   Func

	// guarded by svc.mu
	sched   cron.Schedule
	entryID cron.EntryID
	timer   *time.Timer
	ver     uint64
	fired   int
	times   int
	every   time.Duration
	nextAt  time.Time
	done    bool
	stopped bool
}

type Service struct {
	mu sync.Mutex

	log  logx.Logger
	cfg  Config
	loc  *time.Location
	exec Executor
	ctx  context.Context

	c    *cron.Cron
	jobs map[*Job]struct{}
}
