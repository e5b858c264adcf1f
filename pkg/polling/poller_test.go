package polling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/runixer/botapi/internal/testutil"
	"github.com/runixer/botapi/pkg/telegram"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeUpdater replays scripted batches, then returns empty batches.
type fakeUpdater struct {
	mu       sync.Mutex
	batches  [][]telegram.Update
	errs     []error
	requests []telegram.GetUpdatesRequest
}

func (f *fakeUpdater) GetUpdates(_ context.Context, req telegram.GetUpdatesRequest) ([]telegram.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(f.batches) == 0 {
		return []telegram.Update{}, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeUpdater) Requests() []telegram.GetUpdatesRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]telegram.GetUpdatesRequest(nil), f.requests...)
}

// recorder is a Handler that remembers dispatched ids and fails or panics
// on request.
type recorder struct {
	mu      sync.Mutex
	ids     []int64
	failOn  map[int64]error
	panicOn map[int64]bool
}

func (r *recorder) HandleUpdate(_ context.Context, u *telegram.Update) error {
	r.mu.Lock()
	r.ids = append(r.ids, u.UpdateID)
	r.mu.Unlock()

	if r.panicOn[u.UpdateID] {
		panic("boom")
	}
	return r.failOn[u.UpdateID]
}

func (r *recorder) IDs() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.ids...)
}

func offsetIs(offset int64) any {
	return mock.MatchedBy(func(req telegram.GetUpdatesRequest) bool {
		return req.Offset == offset
	})
}

func stopAndWait(t *testing.T, p *Poller) error {
	t.Helper()
	require.NoError(t, p.Stop())
	return p.Wait()
}

func TestPoller_OffsetAdvancesAcrossCycles(t *testing.T) {
	api := new(testutil.MockBotAPI)
	reachedEnd := make(chan struct{})
	var once sync.Once

	api.On("GetUpdates", mock.Anything, offsetIs(0)).Return(testutil.Updates(5, 6, 7), nil).Once()
	api.On("GetUpdates", mock.Anything, offsetIs(8)).Return(testutil.Updates(8), nil).Once()
	api.On("GetUpdates", mock.Anything, offsetIs(9)).Return([]telegram.Update{}, nil).
		Run(func(mock.Arguments) { once.Do(func() { close(reachedEnd) }) })

	h := &recorder{}
	p := New(api, h, WithInterval(time.Millisecond), WithLogger(testutil.TestLogger()))
	_, err := p.Start(context.Background())
	require.NoError(t, err)

	select {
	case <-reachedEnd:
	case <-time.After(waitFor):
		t.Fatal("poller never fetched with offset 9")
	}
	require.NoError(t, stopAndWait(t, p))

	assert.Equal(t, []int64{5, 6, 7, 8}, h.IDs())
	assert.Equal(t, int64(9), p.Offset())
	api.AssertExpectations(t)
}

func TestPoller_SkipsFailingUpdate(t *testing.T) {
	api := &fakeUpdater{batches: [][]telegram.Update{testutil.Updates(6, 7, 8)}}
	h := &recorder{failOn: map[int64]error{7: errors.New("handler failed")}}
	logs := testutil.NewLogCapture()

	p := New(api, h, WithInterval(time.Millisecond), WithLogger(logs.Logger()))
	_, err := p.Start(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(api.Requests()) >= 2 }, waitFor, tick)
	require.NoError(t, stopAndWait(t, p))

	assert.Equal(t, []int64{6, 7, 8}, h.IDs())
	assert.Equal(t, int64(9), p.Offset())

	// The failed update is not fetched again.
	for _, req := range api.Requests()[1:] {
		assert.Equal(t, int64(9), req.Offset)
	}

	failures := logs.Find("ERROR", "update handler failed")
	require.Len(t, failures, 1)
	assert.EqualValues(t, 7, failures[0].Fields["update_id"])
}

func TestPoller_RecoversHandlerPanic(t *testing.T) {
	api := &fakeUpdater{batches: [][]telegram.Update{testutil.Updates(6, 7, 8)}}
	h := &recorder{panicOn: map[int64]bool{7: true}}
	logs := testutil.NewLogCapture()

	p := New(api, h, WithInterval(time.Millisecond), WithLogger(logs.Logger()))
	_, err := p.Start(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(h.IDs()) == 3 }, waitFor, tick)
	require.NoError(t, stopAndWait(t, p))

	assert.Equal(t, int64(9), p.Offset())
	assert.NotEmpty(t, logs.Find("ERROR", "update handler panicked"))
}

func TestPoller_StartStopDiscipline(t *testing.T) {
	api := &fakeUpdater{}
	p := New(api, HandlerFunc(func(context.Context, *telegram.Update) error { return nil }),
		WithInterval(time.Millisecond), WithLogger(testutil.TestLogger()))

	assert.ErrorIs(t, p.Stop(), ErrNotRunning)
	assert.NoError(t, p.Wait())
	assert.False(t, p.Running())

	handle, err := p.Start(context.Background())
	require.NoError(t, err)
	assert.Same(t, p, handle)
	assert.True(t, p.Running())

	_, err = p.Start(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, stopAndWait(t, p))
	assert.False(t, p.Running())
	assert.ErrorIs(t, p.Stop(), ErrNotRunning)
}

func TestPoller_RestartResumesFromOffset(t *testing.T) {
	api := &fakeUpdater{batches: [][]telegram.Update{testutil.Updates(1, 2)}}
	h := &recorder{}
	p := New(api, h, WithInterval(time.Millisecond), WithLogger(testutil.TestLogger()))

	_, err := p.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(h.IDs()) == 2 }, waitFor, tick)
	require.NoError(t, stopAndWait(t, p))
	require.Equal(t, int64(3), p.Offset())

	seen := len(api.Requests())
	api.mu.Lock()
	api.batches = [][]telegram.Update{testutil.Updates(3)}
	api.mu.Unlock()

	_, err = p.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(h.IDs()) == 3 }, waitFor, tick)
	require.NoError(t, stopAndWait(t, p))

	requests := api.Requests()
	require.Greater(t, len(requests), seen)
	assert.Equal(t, int64(3), requests[seen].Offset)
	assert.Equal(t, int64(4), p.Offset())
}

func TestPoller_RestartBeforePreviousLoopExits(t *testing.T) {
	api := &fakeUpdater{}
	p := New(api, HandlerFunc(func(context.Context, *telegram.Update) error { return nil }),
		WithInterval(time.Millisecond), WithLogger(testutil.TestLogger()))

	_, err := p.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Stop())

	// Start again without waiting; the new loop queues behind the old one.
	_, err = p.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, p.Running())

	require.NoError(t, stopAndWait(t, p))
	assert.False(t, p.Running())
}

func TestPoller_SortsAndSkipsStaleUpdates(t *testing.T) {
	api := &fakeUpdater{batches: [][]telegram.Update{testutil.Updates(12, 9, 11)}}
	h := &recorder{}
	p := New(api, h, WithInterval(time.Millisecond), WithInitialOffset(10), WithLogger(testutil.TestLogger()))

	_, err := p.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(api.Requests()) >= 2 }, waitFor, tick)
	require.NoError(t, stopAndWait(t, p))

	assert.Equal(t, []int64{11, 12}, h.IDs())
	assert.Equal(t, int64(13), p.Offset())
	assert.Equal(t, int64(10), api.Requests()[0].Offset)
}

func TestPoller_PassesRequestOptions(t *testing.T) {
	api := &fakeUpdater{}
	p := New(api, HandlerFunc(func(context.Context, *telegram.Update) error { return nil }),
		WithInterval(time.Millisecond),
		WithLongPollTimeout(25),
		WithLimit(50),
		WithAllowedUpdates("message", "callback_query"),
		WithLogger(testutil.TestLogger()),
	)

	_, err := p.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(api.Requests()) >= 1 }, waitFor, tick)
	require.NoError(t, stopAndWait(t, p))

	req := api.Requests()[0]
	assert.Equal(t, 25, req.Timeout)
	assert.Equal(t, 50, req.Limit)
	assert.Equal(t, []string{"message", "callback_query"}, req.AllowedUpdates)
}

func TestPoller_DevModeStopsOnHandlerError(t *testing.T) {
	handlerErr := errors.New("handler failed")
	api := &fakeUpdater{batches: [][]telegram.Update{testutil.Updates(1, 2, 3)}}
	h := &recorder{failOn: map[int64]error{2: handlerErr}}

	p := New(api, h, WithInterval(time.Millisecond), WithDevMode(true), WithLogger(testutil.TestLogger()))
	_, err := p.Start(context.Background())
	require.NoError(t, err)

	err = p.Wait()
	require.Error(t, err)
	assert.ErrorIs(t, err, handlerErr)

	assert.Equal(t, []int64{1, 2}, h.IDs())
	// The offset already moved past the failing update.
	assert.Equal(t, int64(3), p.Offset())
	assert.False(t, p.Running())
	assert.ErrorIs(t, p.Stop(), ErrNotRunning)
}

func TestPoller_DevModeStopsOnFetchError(t *testing.T) {
	fetchErr := errors.New("network down")
	api := &fakeUpdater{errs: []error{fetchErr}}

	p := New(api, &recorder{}, WithInterval(time.Millisecond), WithDevMode(true), WithLogger(testutil.TestLogger()))
	_, err := p.Start(context.Background())
	require.NoError(t, err)

	err = p.Wait()
	assert.ErrorIs(t, err, fetchErr)
	assert.Len(t, api.Requests(), 1)
}

func TestPoller_FetchErrorIsRetriedInProduction(t *testing.T) {
	api := &fakeUpdater{
		errs:    []error{errors.New("temporary"), nil},
		batches: [][]telegram.Update{testutil.Updates(4)},
	}
	h := &recorder{}
	logs := testutil.NewLogCapture()

	p := New(api, h, WithInterval(time.Millisecond), WithLogger(logs.Logger()))
	_, err := p.Start(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(h.IDs()) == 1 }, waitFor, tick)
	require.NoError(t, stopAndWait(t, p))

	assert.Equal(t, int64(5), p.Offset())
	assert.NotEmpty(t, logs.Find("ERROR", "failed to get updates"))
}

func TestPoller_ContextCancelStops(t *testing.T) {
	api := &fakeUpdater{}
	p := New(api, &recorder{}, WithInterval(time.Millisecond), WithLogger(testutil.TestLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	_, err := p.Start(ctx)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(api.Requests()) >= 1 }, waitFor, tick)

	cancel()
	assert.NoError(t, p.Wait())
	assert.False(t, p.Running())
}

func TestPoller_StopInterruptsSleep(t *testing.T) {
	api := &fakeUpdater{}
	p := New(api, &recorder{}, WithInterval(time.Hour), WithLogger(testutil.TestLogger()))

	_, err := p.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(api.Requests()) == 1 }, waitFor, tick)

	done := make(chan error, 1)
	go func() {
		_ = p.Stop()
		done <- p.Wait()
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("Stop did not interrupt the sleep between cycles")
	}
}

func TestPoller_InitialOffsetIsPublished(t *testing.T) {
	offsetGauge.Set(0)
	api := &fakeUpdater{}
	p := New(api, &recorder{}, WithInterval(time.Millisecond), WithInitialOffset(77), WithLogger(testutil.TestLogger()))

	_, err := p.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(api.Requests()) > 0 }, waitFor, tick)
	assert.Equal(t, 77.0, promtestutil.ToFloat64(offsetGauge))
	require.NoError(t, stopAndWait(t, p))

	assert.Equal(t, int64(77), api.Requests()[0].Offset)
}

func TestPoller_OffsetStore(t *testing.T) {
	api := &fakeUpdater{batches: [][]telegram.Update{testutil.Updates(50, 51)}}
	store := new(testutil.MockOffsetStore)
	saved := make(chan struct{})

	store.On("LoadOffset", mock.Anything).Return(int64(50), nil).Once()
	store.On("SaveOffset", mock.Anything, int64(52)).Return(nil).Once().
		Run(func(mock.Arguments) { close(saved) })

	h := &recorder{}
	p := New(api, h, WithInterval(time.Millisecond), WithOffsetStore(store), WithLogger(testutil.TestLogger()))
	_, err := p.Start(context.Background())
	require.NoError(t, err)

	select {
	case <-saved:
	case <-time.After(waitFor):
		t.Fatal("offset was not saved")
	}
	require.NoError(t, stopAndWait(t, p))

	assert.Equal(t, int64(50), api.Requests()[0].Offset)
	assert.Equal(t, []int64{50, 51}, h.IDs())
	// Empty cycles do not rewrite the stored offset.
	store.AssertNumberOfCalls(t, "SaveOffset", 1)
	store.AssertExpectations(t)
}

func TestPoller_OffsetStoreNeverLowersOffset(t *testing.T) {
	api := &fakeUpdater{}
	store := new(testutil.MockOffsetStore)
	store.On("LoadOffset", mock.Anything).Return(int64(5), nil)

	p := New(api, &recorder{}, WithInterval(time.Millisecond), WithInitialOffset(100),
		WithOffsetStore(store), WithLogger(testutil.TestLogger()))
	_, err := p.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(api.Requests()) >= 1 }, waitFor, tick)
	require.NoError(t, stopAndWait(t, p))

	assert.Equal(t, int64(100), api.Requests()[0].Offset)
	assert.Equal(t, int64(100), p.Offset())
}

func TestPoller_OffsetStoreErrorsAreNotFatal(t *testing.T) {
	api := &fakeUpdater{batches: [][]telegram.Update{testutil.Updates(1)}}
	store := new(testutil.MockOffsetStore)
	store.On("LoadOffset", mock.Anything).Return(int64(0), errors.New("db locked"))
	store.On("SaveOffset", mock.Anything, mock.Anything).Return(errors.New("db locked"))
	logs := testutil.NewLogCapture()

	h := &recorder{}
	p := New(api, h, WithInterval(time.Millisecond), WithDevMode(true),
		WithOffsetStore(store), WithLogger(logs.Logger()))
	_, err := p.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(api.Requests()) >= 2 }, waitFor, tick)
	require.NoError(t, stopAndWait(t, p))

	assert.Equal(t, []int64{1}, h.IDs())
	assert.NotEmpty(t, logs.Find("WARN", "failed to load offset"))
	assert.NotEmpty(t, logs.Find("WARN", "failed to save offset"))
}

func TestPoller_EndToEndHydratedUpdate(t *testing.T) {
	api := &fakeUpdater{batches: [][]telegram.Update{testutil.HydrateUpdates(t, testutil.HelpUpdateJSON)}}

	var mu sync.Mutex
	var commands []string
	h := HandlerFunc(func(_ context.Context, u *telegram.Update) error {
		mu.Lock()
		defer mu.Unlock()
		commands = append(commands, u.Message.EntitiesByType(telegram.EntityBotCommand)...)
		return nil
	})

	p := New(api, h, WithInterval(time.Millisecond), WithLogger(testutil.TestLogger()))
	_, err := p.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.Offset() == 101 }, waitFor, tick)
	require.NoError(t, stopAndWait(t, p))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/help"}, commands)
}
