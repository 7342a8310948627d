// Package poller runs the periodic check of every alert account: it keeps the
// portal session alive, diffs fresh assignments and resources against the
// stored watermarks and hands new items to the notifier.
package poller

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"NucleusBot/logger"
	"NucleusBot/models"
	"NucleusBot/notify"
	"NucleusBot/nucleus"

	"github.com/codeGROOVE-dev/retry"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var errNoPassword = errors.New("no stored password")

type Portal interface {
	Login(ctx context.Context, username, password string) (*nucleus.Session, error)
	IsSessionAlive(ctx context.Context, sess *nucleus.Session) (bool, error)
	Assignments(ctx context.Context, sess *nucleus.Session, courseID string) ([]nucleus.Assignment, error)
	Resources(ctx context.Context, sess *nucleus.Session, courseID string) ([]nucleus.Resource, error)
}

// Store is the credential and watermark storage the scheduler writes to.
type Store interface {
	AlertAccounts(ctx context.Context) ([]models.Account, error)
	SaveRefreshedSession(ctx context.Context, username, cookies string) error
	Watermarks(ctx context.Context, classID string) (map[string]models.Watermark, error)
	AdvanceWatermark(ctx context.Context, classID, courseID string, kind models.ItemKind, ts time.Time) error
}

type Notifier interface {
	Deliver(ctx context.Context, classID string, assignments []nucleus.Assignment, resources []nucleus.Resource) (notify.Report, error)
}

type AdminAlerter interface {
	Alert(ctx context.Context, key, title, message string) error
}

type Config struct {
	Interval      time.Duration
	Workers       int
	RetryAttempts int
	RetryDelay    time.Duration
}

type Scheduler struct {
	cfg      Config
	store    Store
	portal   Portal
	notifier Notifier
	alerts   AdminAlerter

	flight  singleflight.Group
	trigger chan struct{}
	running atomic.Bool

	mu    sync.RWMutex
	stats Stats
}

func New(cfg Config, store Store, portal Portal, notifier Notifier, alerts AdminAlerter) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	return &Scheduler{
		cfg:      cfg,
		store:    store,
		portal:   portal,
		notifier: notifier,
		alerts:   alerts,
		trigger:  make(chan struct{}, 1),
	}
}

// Run polls immediately and then once per interval until ctx is done. A
// second concurrent Run returns at once.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		logger.Log.Warn("Poll scheduler already running")
		return
	}
	defer s.running.Store(false)

	logger.Log.Infof("Starting poll scheduler, interval %v, %d workers", s.cfg.Interval, s.cfg.Workers)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Poll scheduler stopped")
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		case <-s.trigger:
			logger.Log.Info("Running out-of-band poll cycle")
			s.RunCycle(ctx)
		}
	}
}

// TriggerNow asks Run for an extra cycle. It returns false when one is
// already queued.
func (s *Scheduler) TriggerNow() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// RunCycle checks every alert account once. Account failures are logged and
// counted; they never stop the other accounts.
func (s *Scheduler) RunCycle(ctx context.Context) CycleResult {
	start := time.Now()
	var result CycleResult

	accounts, err := s.store.AlertAccounts(ctx)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to load alert accounts, skipping cycle")
		s.record(func(st *Stats) {
			st.CyclesRun++
			st.LastCycleStart = start
			st.LastCycleDuration = time.Since(start)
			st.LastCycleAccounts = 0
			st.LastCycleErrors = 0
		})
		return result
	}
	logger.Log.Debugf("Poll cycle started for %d alert accounts", len(accounts))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for _, class := range byClass(accounts) {
		g.Go(func() error {
			r := s.checkClassOnce(ctx, class)
			mu.Lock()
			result.Accounts += r.Accounts
			result.Errors += r.Errors
			result.Notified += r.Notified
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)
	s.record(func(st *Stats) {
		st.CyclesRun++
		st.AccountsChecked += int64(result.Accounts)
		st.AccountErrors += int64(result.Errors)
		st.LastCycleStart = start
		st.LastCycleDuration = elapsed
		st.LastCycleAccounts = result.Accounts
		st.LastCycleErrors = result.Errors
	})
	logger.Log.Infof("Poll cycle finished in %v: %d accounts, %d errors, %d items notified",
		elapsed.Round(time.Millisecond), result.Accounts, result.Errors, result.Notified)
	return result
}

// classAccounts are the alert accounts of one class, freshest session first.
type classAccounts struct {
	classID  string
	accounts []models.Account
}

func byClass(accounts []models.Account) []classAccounts {
	var out []classAccounts
	index := map[string]int{}
	for _, a := range accounts {
		i, ok := index[a.ClassID]
		if !ok {
			i = len(out)
			index[a.ClassID] = i
			out = append(out, classAccounts{classID: a.ClassID})
		}
		out[i].accounts = append(out[i].accounts, a)
	}
	for _, c := range out {
		sort.SliceStable(c.accounts, func(i, j int) bool {
			return c.accounts[i].LastRefresh.After(c.accounts[j].LastRefresh)
		})
	}
	return out
}

// checkClassOnce checks a class under a per-class single-flight key.
// Watermarks belong to the class, so two checks of one class must never
// diff at the same time, whichever account or cycle runs them.
func (s *Scheduler) checkClassOnce(ctx context.Context, class classAccounts) CycleResult {
	v, _, shared := s.flight.Do("class:"+class.classID, func() (interface{}, error) {
		return s.checkClass(ctx, class), nil
	})
	if shared {
		logger.Log.WithField("class_id", class.classID).Debug("Class check was shared with an overlapping cycle")
		return CycleResult{}
	}
	r, _ := v.(CycleResult)
	return r
}

// checkClass polls the class with its first account that has a working
// session. The next account is tried only when no session could be had, so
// nothing is diffed twice.
func (s *Scheduler) checkClass(ctx context.Context, class classAccounts) CycleResult {
	var r CycleResult
	for _, account := range class.accounts {
		notified, sessionOK, err := s.checkAccount(ctx, account)
		r.Accounts++
		r.Notified += notified
		if err == nil {
			return r
		}
		r.Errors++
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"username": account.Username,
			"class_id": account.ClassID,
		}).Error("Account check failed")
		if sessionOK {
			return r
		}
	}
	return r
}

func (s *Scheduler) checkAccount(ctx context.Context, account models.Account) (notified int, sessionOK bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("username", account.Username).Errorf("Recovered from panic in account check: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	log := logger.Log.WithFields(logrus.Fields{
		"username": account.Username,
		"class_id": account.ClassID,
	})

	sess, err := s.ensureSession(ctx, account, log)
	if err != nil {
		return 0, false, err
	}
	sessionOK = true

	marks, err := s.store.Watermarks(ctx, account.ClassID)
	if err != nil {
		return 0, true, fmt.Errorf("load watermarks: %w", err)
	}
	if len(marks) == 0 {
		log.Debug("Class has no tracked courses")
		return 0, true, nil
	}

	assignments, resources, err := s.fetch(ctx, sess, marks)
	if err != nil {
		return 0, true, err
	}

	found := diff(marks, assignments, resources)
	if len(found.advances) == 0 {
		log.Debug("No new items")
		return 0, true, nil
	}

	stored := make(map[markKey]bool, len(found.advances))
	var advanceErr error
	for _, a := range found.advances {
		if err := s.store.AdvanceWatermark(ctx, account.ClassID, a.courseID, a.kind, a.ts); err != nil {
			log.WithError(err).WithField("course_id", a.courseID).Errorf("Failed to advance %s watermark", a.kind)
			advanceErr = errors.Join(advanceErr, err)
			continue
		}
		stored[a.key()] = true
	}

	// Items whose watermark could not be stored are left for the next cycle.
	deliver := found.only(stored)
	if !deliver.empty() {
		report, err := s.notifier.Deliver(ctx, account.ClassID, deliver.assignments, deliver.resources)
		if err != nil {
			return 0, true, fmt.Errorf("deliver: %w", errors.Join(err, advanceErr))
		}
		notified = len(deliver.assignments) + len(deliver.resources)
		s.record(func(st *Stats) {
			st.ItemsNotified += int64(notified)
			st.DeliveryFailures += int64(report.Failed)
		})
		log.Infof("Found %d new assignments and %d new resources", len(deliver.assignments), len(deliver.resources))
	}

	if advanceErr != nil {
		return notified, true, fmt.Errorf("advance watermarks: %w", advanceErr)
	}
	return notified, true, nil
}

// ensureSession returns a live session, logging in again at most once.
func (s *Scheduler) ensureSession(ctx context.Context, account models.Account, log *logrus.Entry) (*nucleus.Session, error) {
	sess, err := nucleus.DecodeSession(account.Username, account.Cookies)
	if err != nil {
		log.WithError(err).Warn("Stored cookies are unreadable, treating session as expired")
		sess = &nucleus.Session{Username: account.Username}
	}

	var alive bool
	err = s.withRetry(ctx, "session check", log, func() error {
		var err error
		alive, err = s.portal.IsSessionAlive(ctx, sess)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("session check: %w", err)
	}
	if alive {
		return sess, nil
	}

	log.Info("Session expired, logging in again")
	if account.Password == "" {
		s.alertLoginFailure(ctx, account, errNoPassword)
		return nil, fmt.Errorf("re-login: %w", errNoPassword)
	}

	s.record(func(st *Stats) { st.Relogins++ })
	fresh, err := s.portal.Login(ctx, account.Username, account.Password)
	if err != nil {
		s.record(func(st *Stats) { st.ReloginFailures++ })
		s.alertLoginFailure(ctx, account, err)
		return nil, fmt.Errorf("re-login: %w", err)
	}

	encoded, err := fresh.EncodeCookies()
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveRefreshedSession(ctx, account.Username, encoded); err != nil {
		log.WithError(err).Error("Failed to store refreshed session, continuing with it for this cycle")
	} else {
		log.Info("Stored refreshed session")
	}
	return fresh, nil
}

func (s *Scheduler) alertLoginFailure(ctx context.Context, account models.Account, cause error) {
	var reason string
	switch {
	case errors.Is(cause, errNoPassword):
		reason = "The session expired and no password is stored for this account."
	case errors.Is(cause, nucleus.ErrInvalidCredentials):
		reason = "The portal rejected the stored password."
	case errors.Is(cause, nucleus.ErrUnexpectedResponse):
		reason = "The portal answered the login with an unexpected response."
	default:
		reason = fmt.Sprintf("Login failed: %v", cause)
	}

	message := fmt.Sprintf("Alert account `%s` (class %s) could not log in to Nucleus and was skipped this cycle.\n%s\nRun `alert_account %s` again to update the password.",
		account.Username, account.ClassID, reason, account.Username)
	if err := s.alerts.Alert(ctx, "relogin:"+account.Username, "Alert account login failed", message); err != nil {
		logger.Log.WithError(err).WithField("username", account.Username).Error("Failed to send admin alert")
	}
}

// fetch reads all assignments and the resources of every tracked course.
// Any failure aborts the account so nothing is half-advanced.
func (s *Scheduler) fetch(ctx context.Context, sess *nucleus.Session, marks map[string]models.Watermark) ([]nucleus.Assignment, []nucleus.Resource, error) {
	log := logger.Log.WithField("username", sess.Username)

	var assignments []nucleus.Assignment
	err := s.withRetry(ctx, "fetch assignments", log, func() error {
		var err error
		assignments, err = s.portal.Assignments(ctx, sess, "all")
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch assignments: %w", err)
	}

	courseIDs := make([]string, 0, len(marks))
	for id := range marks {
		courseIDs = append(courseIDs, id)
	}
	sort.Strings(courseIDs)

	var resources []nucleus.Resource
	for _, courseID := range courseIDs {
		var items []nucleus.Resource
		err := s.withRetry(ctx, "fetch resources", log.WithField("course_id", courseID), func() error {
			var err error
			items, err = s.portal.Resources(ctx, sess, courseID)
			return err
		})
		if err != nil {
			return nil, nil, fmt.Errorf("fetch resources for %s: %w", courseID, err)
		}
		for i := range items {
			if items[i].CourseID == "" {
				items[i].CourseID = courseID
			}
		}
		resources = append(resources, items...)
	}
	return assignments, resources, nil
}

// withRetry retries fn on network errors with backoff. Any other error is
// returned on the first attempt.
func (s *Scheduler) withRetry(ctx context.Context, op string, log *logrus.Entry, fn func() error) error {
	var lastErr error
	err := retry.Do(
		func() error {
			lastErr = fn()
			return lastErr
		},
		retry.Attempts(uint(s.cfg.RetryAttempts)),
		retry.Delay(s.cfg.RetryDelay),
		retry.MaxDelay(time.Minute),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			log.WithError(err).Warnf("Retrying %s (attempt %d)", op, n+1)
		}),
		retry.RetryIf(nucleus.IsNetworkError),
	)
	if err == nil {
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return err
}
