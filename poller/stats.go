package poller

import (
	"time"
)

// Stats holds scheduler statistics since startup.
type Stats struct {
	CyclesRun         int64         `json:"cycles_run"`
	AccountsChecked   int64         `json:"accounts_checked"`
	AccountErrors     int64         `json:"account_errors"`
	Relogins          int64         `json:"relogins"`
	ReloginFailures   int64         `json:"relogin_failures"`
	ItemsNotified     int64         `json:"items_notified"`
	DeliveryFailures  int64         `json:"delivery_failures"`
	LastCycleStart    time.Time     `json:"last_cycle_start"`
	LastCycleDuration time.Duration `json:"last_cycle_duration"`
	LastCycleAccounts int           `json:"last_cycle_accounts"`
	LastCycleErrors   int           `json:"last_cycle_errors"`
}

// CycleResult summarizes one pass over the alert accounts.
type CycleResult struct {
	Accounts int
	Errors   int
	Notified int
}

func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

func (s *Scheduler) record(update func(*Stats)) {
	s.mu.Lock()
	update(&s.stats)
	s.mu.Unlock()
}

// Health reports the scheduler status from the error rate of the last
// cycle: above 0.5 is unhealthy, above 0.1 degraded.
func (s *Scheduler) Health() map[string]interface{} {
	stats := s.Stats()

	health := map[string]interface{}{
		"status":           "healthy",
		"running":          s.running.Load(),
		"cycles_run":       stats.CyclesRun,
		"accounts_checked": stats.AccountsChecked,
		"account_errors":   stats.AccountErrors,
		"interval":         s.cfg.Interval.String(),
	}

	if !stats.LastCycleStart.IsZero() {
		health["last_cycle_at"] = stats.LastCycleStart.Format(time.RFC3339)
		health["last_cycle_ago"] = time.Since(stats.LastCycleStart).Round(time.Second).String()
		health["last_cycle_duration"] = stats.LastCycleDuration.String()
	}

	if stats.LastCycleAccounts > 0 {
		errorRate := float64(stats.LastCycleErrors) / float64(stats.LastCycleAccounts)
		if errorRate > 0.5 {
			health["status"] = "unhealthy"
		} else if errorRate > 0.1 {
			health["status"] = "degraded"
		}
		health["error_rate"] = errorRate
	}

	return health
}
