// Package integrity runs a periodic background sweep enforcing the
// invariant that every contract on disk has a bound key file, the same
// way the teacher's session manager runs a periodic gocron job to sweep
// expired sessions rather than checking on every request.
package integrity

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"covenant/pkg/keyregistry"
)

type Sweep struct {
	Keys *keyregistry.Registry
	Log  *zap.SugaredLogger
}

// Start schedules the sweep to run every minute and returns the
// scheduler so callers can stop it on shutdown.
func (s *Sweep) Start() *gocron.Scheduler {
	sched := gocron.NewScheduler(time.UTC)
	sched.Every("1m").Do(s.run)
	sched.StartAsync()
	return sched
}

func (s *Sweep) run() {
	broken := s.Keys.Sweep()
	if len(broken) == 0 {
		if s.Log != nil {
			s.Log.Debugw("integrity sweep: all bound keys present")
		}
		return
	}
	if s.Log != nil {
		s.Log.Errorw("integrity sweep: contracts with a missing bound key", "contract_ids", broken)
	}
}
