package scheduler

import (
	"fmt"
	"time"

	"workshop-web/internal/utils"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// IdleEvictor drops report screens nobody has looked at since cutoff.
type IdleEvictor interface {
	EvictIdle(cutoff time.Time) int
}

// Pruner drops expired entries from a store that does not expire them itself.
type Pruner interface {
	Prune() int
}

// Sweeper periodically evicts idle report screens so abandoned sessions do
// not keep their datasets in memory. It also prunes expired session entries.
type Sweeper struct {
	cronScheduler *cron.Cron
	screens       IdleEvictor
	pruners       []Pruner
	schedule      string
	idleTTL       time.Duration
	now           func() time.Time
	logger        *logrus.Entry
	jobID         cron.EntryID
}

func NewSweeper(screens IdleEvictor, schedule string, idleTTL time.Duration, pruners ...Pruner) *Sweeper {
	return &Sweeper{
		cronScheduler: cron.New(cron.WithSeconds()),
		screens:       screens,
		pruners:       pruners,
		schedule:      schedule,
		idleTTL:       idleTTL,
		now:           time.Now,
		logger:        utils.Component("sweeper"),
	}
}

func (s *Sweeper) Start() error {
	var err error
	s.jobID, err = s.cronScheduler.AddFunc(s.schedule, func() {
		s.Sweep()
	})
	if err != nil {
		return fmt.Errorf("error scheduling screen sweep %q: %w", s.schedule, err)
	}

	s.cronScheduler.Start()
	s.logger.WithFields(logrus.Fields{
		"schedule": s.schedule,
		"idle_ttl": s.idleTTL.String(),
	}).Info("Screen sweeper started")
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cronScheduler.Stop().Done()
}

// Sweep evicts once and returns how many screens were dropped.
func (s *Sweeper) Sweep() int {
	evicted := s.screens.EvictIdle(s.now().Add(-s.idleTTL))
	if evicted > 0 {
		s.logger.WithField("evicted", evicted).Info("Evicted idle report screens")
	}

	pruned := 0
	for _, p := range s.pruners {
		pruned += p.Prune()
	}
	if pruned > 0 {
		s.logger.WithField("pruned", pruned).Info("Pruned expired sessions")
	}
	return evicted
}
