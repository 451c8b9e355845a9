package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockpulse/stockpulseapi/api/quote"
	"github.com/stockpulse/stockpulseapi/config"
	"github.com/stockpulse/stockpulseapi/pkg/smartapi"
)

type fakeFetcher struct {
	mu      sync.Mutex
	quotes  []quote.Quote
	errs    []error
	calls   int
	block   chan struct{}
	panicOn bool
}

func (f *fakeFetcher) FetchAll(_ context.Context, _ string) ([]quote.Quote, error) {
	f.mu.Lock()
	call := f.calls
	f.calls++
	f.mu.Unlock()

	if f.panicOn {
		panic("boom")
	}
	if f.block != nil {
		<-f.block
	}
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	return f.quotes, nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSnapshots struct {
	mu    sync.Mutex
	saved [][]quote.Quote
	err   error
}

func (f *fakeSnapshots) SaveSnapshot(_ context.Context, quotes []quote.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, quotes)
	return f.err
}

type fakeBroadcaster struct {
	mu      sync.Mutex
	batches [][]quote.Quote
}

func (f *fakeBroadcaster) PublishQuotes(quotes []quote.Quote) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, quotes)
}

type fakeSession struct {
	mu        sync.Mutex
	token     string
	loginTime time.Time
	loginErr  error
	logins    int
}

func (f *fakeSession) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeSession) IsAuthenticated() bool { return f.Token() != "" }

func (f *fakeSession) LoginTime() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginTime
}

func (f *fakeSession) Login() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	if f.loginErr != nil {
		return "", f.loginErr
	}
	f.token = "fresh-token"
	f.loginTime = time.Now()
	return f.token, nil
}

type fakeHistory struct {
	mu       sync.Mutex
	recorded [][]quote.Quote
}

func (f *fakeHistory) RecordQuotes(quotes []quote.Quote) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, quotes)
}

func (f *fakeHistory) PruneHistory() (int64, error) { return 0, nil }

type fakeUpdater struct{}

func (fakeUpdater) UpdateInstruments() (int, error) { return 0, nil }

func testPoller(fetcher *fakeFetcher, snapshots *fakeSnapshots, b *fakeBroadcaster, sm *fakeSession, history *fakeHistory) *Poller {
	cfg := &config.Config{QuoteFetchInterval: "30s", AuthCheckInterval: "5m"}
	return NewPoller(cfg, nil, fetcher, snapshots, b, sm, history, fakeUpdater{})
}

func TestQuoteFetchJobHappyPath(t *testing.T) {
	quotes := []quote.Quote{{Token: "3045", Symbol: "SBIN", Ltp: 820.5}}
	fetcher := &fakeFetcher{quotes: quotes}
	snapshots := &fakeSnapshots{}
	broadcaster := &fakeBroadcaster{}
	session := &fakeSession{token: "jwt-1", loginTime: time.Now()}
	history := &fakeHistory{}

	p := testPoller(fetcher, snapshots, broadcaster, session, history)
	p.quoteFetchJob()

	require.Equal(t, 1, fetcher.callCount())
	require.Len(t, snapshots.saved, 1)
	require.Len(t, broadcaster.batches, 1)
	require.Len(t, history.recorded, 1)

	status := p.Status()
	require.Equal(t, 1, status.LastQuoteCount)
	require.Empty(t, status.LastError)
	require.False(t, status.InFlight)
}

func TestQuoteFetchJobSingleFlight(t *testing.T) {
	fetcher := &fakeFetcher{block: make(chan struct{})}
	session := &fakeSession{token: "jwt-1", loginTime: time.Now()}

	p := testPoller(fetcher, &fakeSnapshots{}, &fakeBroadcaster{}, session, &fakeHistory{})

	done := make(chan struct{})
	go func() {
		p.quoteFetchJob()
		close(done)
	}()

	// Wait for the first cycle to reach the fetcher.
	require.Eventually(t, func() bool { return fetcher.callCount() == 1 }, time.Second, 5*time.Millisecond)

	// Overlapping tick is skipped, not queued.
	p.quoteFetchJob()
	require.Equal(t, 1, fetcher.callCount())

	close(fetcher.block)
	<-done

	// Next tick runs again once the slot is free.
	fetcher.block = nil
	p.quoteFetchJob()
	require.Equal(t, 2, fetcher.callCount())
}

func TestQuoteFetchJobReleasesSlotOnPanic(t *testing.T) {
	fetcher := &fakeFetcher{panicOn: true}
	session := &fakeSession{token: "jwt-1", loginTime: time.Now()}

	p := testPoller(fetcher, &fakeSnapshots{}, &fakeBroadcaster{}, session, &fakeHistory{})

	require.NotPanics(t, func() { p.quoteFetchJob() })
	require.False(t, p.Status().InFlight)
	require.Equal(t, 1, p.Status().ConsecutiveErrors)

	fetcher.panicOn = false
	p.quoteFetchJob()
	require.Equal(t, 2, fetcher.callCount())
}

func TestQuoteFetchJobReAuthenticatesOnUnauthorized(t *testing.T) {
	quotes := []quote.Quote{{Token: "3045", Symbol: "SBIN"}}
	fetcher := &fakeFetcher{quotes: quotes, errs: []error{smartapi.ErrUnauthorized}}
	session := &fakeSession{token: "stale", loginTime: time.Now()}
	snapshots := &fakeSnapshots{}

	p := testPoller(fetcher, snapshots, &fakeBroadcaster{}, session, &fakeHistory{})
	p.quoteFetchJob()

	require.Equal(t, 2, fetcher.callCount())
	require.Equal(t, 1, session.logins)
	require.Len(t, snapshots.saved, 1)
	require.Empty(t, p.Status().LastError)
}

func TestQuoteFetchJobLoginFailure(t *testing.T) {
	fetcher := &fakeFetcher{}
	session := &fakeSession{loginErr: errors.New("totp rejected")}

	p := testPoller(fetcher, &fakeSnapshots{}, &fakeBroadcaster{}, session, &fakeHistory{})
	p.quoteFetchJob()

	require.Zero(t, fetcher.callCount())
	require.Contains(t, p.Status().LastError, "authentication failed")
}

func TestQuoteFetchJobStaleSessionTriggersLogin(t *testing.T) {
	fetcher := &fakeFetcher{}
	session := &fakeSession{token: "old", loginTime: time.Now().Add(-9 * time.Hour)}

	p := testPoller(fetcher, &fakeSnapshots{}, &fakeBroadcaster{}, session, &fakeHistory{})
	p.quoteFetchJob()

	require.Equal(t, 1, session.logins)
}

func TestQuoteFetchJobEmptyUniverse(t *testing.T) {
	fetcher := &fakeFetcher{quotes: []quote.Quote{}}
	session := &fakeSession{token: "jwt-1", loginTime: time.Now()}
	snapshots := &fakeSnapshots{}
	broadcaster := &fakeBroadcaster{}

	p := testPoller(fetcher, snapshots, broadcaster, session, &fakeHistory{})
	p.quoteFetchJob()

	require.Empty(t, snapshots.saved)
	require.Empty(t, broadcaster.batches)
	require.Zero(t, p.Status().LastQuoteCount)
	require.Empty(t, p.Status().LastError)
}
