package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stockpulse/stockpulseapi/api/quote"
	"github.com/stockpulse/stockpulseapi/api/session"
	"github.com/stockpulse/stockpulseapi/config"
	"github.com/stockpulse/stockpulseapi/pkg/smartapi"
	"github.com/stockpulse/stockpulseapi/shared/logger"
	"github.com/stockpulse/stockpulseapi/shared/zaplogger"
)

const fetchTimeout = 20 * time.Second

// quoteFetcher pulls quotes for the watched universe.
type quoteFetcher interface {
	FetchAll(ctx context.Context, authToken string) ([]quote.Quote, error)
}

// snapshotStore persists the latest quote batch.
type snapshotStore interface {
	SaveSnapshot(ctx context.Context, quotes []quote.Quote) error
}

// broadcaster fans a quote batch out to live subscribers.
type broadcaster interface {
	PublishQuotes(quotes []quote.Quote)
}

// sessionManager supplies and refreshes the upstream auth session.
type sessionManager interface {
	Token() string
	IsAuthenticated() bool
	LoginTime() time.Time
	Login() (string, error)
}

// historyRecorder appends quote observations and prunes old ones.
type historyRecorder interface {
	RecordQuotes(quotes []quote.Quote)
	PruneHistory() (int64, error)
}

// instrumentUpdater refreshes the symbol master.
type instrumentUpdater interface {
	UpdateInstruments() (int, error)
}

// PollerStatus is a snapshot of the polling loop for the status endpoint.
type PollerStatus struct {
	Running           bool      `json:"running"`
	InFlight          bool      `json:"in_flight"`
	Authenticated     bool      `json:"authenticated"`
	LastRunAt         time.Time `json:"last_run_at"`
	LastSuccessAt     time.Time `json:"last_success_at"`
	LastQuoteCount    int       `json:"last_quote_count"`
	LastError         string    `json:"last_error,omitempty"`
	ConsecutiveErrors int       `json:"consecutive_errors"`
}

// Poller drives the periodic quote fetch/broadcast cycle plus the
// housekeeping jobs. At most one fetch cycle runs at a time; a cycle that
// outlives the interval causes the next tick to be skipped, not queued.
type Poller struct {
	cfg         *config.Config
	c           *cron.Cron
	dbLogger    *logger.Logger
	fetcher     quoteFetcher
	snapshots   snapshotStore
	broadcaster broadcaster
	session     sessionManager
	history     historyRecorder
	instruments instrumentUpdater

	inFlight atomic.Bool

	mu      sync.RWMutex
	running bool
	status  PollerStatus
}

func NewPoller(cfg *config.Config, dbLogger *logger.Logger, fetcher quoteFetcher, snapshots snapshotStore, b broadcaster, sm sessionManager, history historyRecorder, instruments instrumentUpdater) *Poller {
	return &Poller{
		cfg:         cfg,
		c:           cron.New(),
		dbLogger:    dbLogger,
		fetcher:     fetcher,
		snapshots:   snapshots,
		broadcaster: b,
		session:     sm,
		history:     history,
		instruments: instruments,
	}
}

// Start registers the scheduled and startup jobs and starts the cron loop.
func (p *Poller) Start() {
	zaplogger.Info(config.SingleLine)
	zaplogger.Info("Initializing Poller")

	p.addScheduledJob("Quote Fetch Job", p.quoteFetchJob, "@every "+p.cfg.FetchInterval().String())
	p.addScheduledJob("Auth Check Job", p.authCheckJob, "@every "+p.cfg.AuthInterval().String())
	p.addScheduledJob("Instruments Update Job", p.instrumentsUpdateJob, "45 7 * * 1-5") // Once at 07:45am, Mon-Fri
	p.addScheduledJob("History Prune Job", p.historyPruneJob, "15 0 * * *")             // Once at 00:15am, daily

	p.addStartupJob("Instruments Update Job", p.instrumentsUpdateJob, 1*time.Second)
	p.addStartupJob("Auth Check Job", p.authCheckJob, 5*time.Second)
	p.addStartupJob("Quote Fetch Job", p.quoteFetchJob, 10*time.Second)

	p.c.Start()

	p.mu.Lock()
	p.running = true
	p.mu.Unlock()
}

// Stop halts the cron loop. An in-flight cycle finishes on its own.
func (p *Poller) Stop() {
	p.c.Stop()
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// Status reports the current poller state.
func (p *Poller) Status() PollerStatus {
	p.mu.RLock()
	status := p.status
	running := p.running
	p.mu.RUnlock()

	status.Running = running
	status.InFlight = p.inFlight.Load()
	status.Authenticated = p.session.IsAuthenticated()
	return status
}

func (p *Poller) addScheduledJob(name string, job func(), schedule string) {
	_, err := p.c.AddFunc(schedule, func() {
		zaplogger.Debug("Executing scheduled job", zaplogger.Fields{"job": name})
		job()
	})
	if err != nil {
		p.dbLogger.Error("PollerService", "Failed to schedule job", map[string]interface{}{
			"job":   name,
			"error": err.Error(),
		})
		zaplogger.Error("Failed to schedule job", zaplogger.Fields{"job": name, "error": err})
		return
	}
	zaplogger.Info("  * Scheduled job added: " + name)
}

func (p *Poller) addStartupJob(name string, job func(), delay time.Duration) {
	go func() {
		time.Sleep(delay)
		zaplogger.Debug("Executing startup job", zaplogger.Fields{"job": name})
		job()
	}()
	zaplogger.Info("  * Startup job queued : " + name)
}

// quoteFetchJob runs one fetch/broadcast cycle if none is in flight.
func (p *Poller) quoteFetchJob() {
	if !p.inFlight.CompareAndSwap(false, true) {
		zaplogger.Warn("Skipping quote fetch, previous cycle still running")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			zaplogger.Error("Quote fetch cycle panicked", zaplogger.Fields{"panic": r})
			p.recordFailure("quote fetch cycle panicked")
		}
		p.inFlight.Store(false)
	}()

	p.runCycle()
}

// runCycle fetches, stores, broadcasts, and records one quote batch.
func (p *Poller) runCycle() {
	started := time.Now()

	p.mu.Lock()
	p.status.LastRunAt = started
	p.mu.Unlock()

	authToken, err := p.ensureAuthenticated()
	if err != nil {
		zaplogger.Error("Quote fetch skipped, authentication failed", zaplogger.Fields{"error": err})
		p.recordFailure("authentication failed: " + err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	quotes, err := p.fetcher.FetchAll(ctx, authToken)
	if errors.Is(err, smartapi.ErrUnauthorized) {
		// Token revoked upstream. One re-login and retry, then give up
		// until the next tick.
		zaplogger.Warn("Auth token rejected, re-authenticating")
		authToken, err = p.session.Login()
		if err == nil {
			quotes, err = p.fetcher.FetchAll(ctx, authToken)
		}
	}
	if err != nil {
		zaplogger.Error("Quote fetch failed", zaplogger.Fields{"error": err})
		p.recordFailure(err.Error())
		return
	}

	if len(quotes) == 0 {
		zaplogger.Debug("No watched instruments, nothing to broadcast")
		p.recordSuccess(0)
		return
	}

	if err := p.snapshots.SaveSnapshot(ctx, quotes); err != nil {
		zaplogger.Error("Failed to save quote snapshot", zaplogger.Fields{"error": err})
		p.recordFailure(err.Error())
		return
	}

	p.broadcaster.PublishQuotes(quotes)
	p.history.RecordQuotes(quotes)

	zaplogger.Debug("Quote cycle complete", zaplogger.Fields{
		"quotes":   len(quotes),
		"duration": time.Since(started).String(),
	})
	p.recordSuccess(len(quotes))
}

// ensureAuthenticated returns a usable auth token, logging in when the
// session is missing or older than the trust window.
func (p *Poller) ensureAuthenticated() (string, error) {
	if p.session.IsAuthenticated() && time.Since(p.session.LoginTime()) < session.MaxSessionAge {
		return p.session.Token(), nil
	}
	return p.session.Login()
}

// authCheckJob proactively refreshes a stale session between fetch cycles.
func (p *Poller) authCheckJob() {
	if _, err := p.ensureAuthenticated(); err != nil {
		p.dbLogger.Error("PollerService", "Auth check failed", map[string]interface{}{
			"error": err.Error(),
		})
		zaplogger.Error("Auth check failed", zaplogger.Fields{"error": err})
		return
	}
	zaplogger.Debug("Auth check ok")
}

func (p *Poller) instrumentsUpdateJob() {
	totalInserted, err := p.instruments.UpdateInstruments()
	if err != nil {
		p.dbLogger.Error("PollerService", "Failed to update instruments", map[string]interface{}{
			"error": err.Error(),
		})
		zaplogger.Error("Failed to update instruments", zaplogger.Fields{"error": err})
		return
	}

	p.dbLogger.Info("PollerService", "Instruments update successful", map[string]interface{}{
		"total_inserted": totalInserted,
	})
	zaplogger.Info("Instruments update successful")
	zaplogger.Info("  * total_inserted : " + strconv.Itoa(totalInserted))
	zaplogger.Info(config.SingleLine)
}

func (p *Poller) historyPruneJob() {
	pruned, err := p.history.PruneHistory()
	if err != nil {
		zaplogger.Error("Failed to prune price history", zaplogger.Fields{"error": err})
		return
	}
	zaplogger.Info("Price history pruned", zaplogger.Fields{"rows": pruned})
}

func (p *Poller) recordSuccess(quoteCount int) {
	p.mu.Lock()
	p.status.LastSuccessAt = time.Now()
	p.status.LastQuoteCount = quoteCount
	p.status.LastError = ""
	p.status.ConsecutiveErrors = 0
	p.mu.Unlock()
}

func (p *Poller) recordFailure(message string) {
	p.mu.Lock()
	p.status.LastError = message
	p.status.ConsecutiveErrors++
	p.mu.Unlock()
}
