package scheduler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upmail/upmail/internal/credential"
	"github.com/upmail/upmail/internal/db/testdb"
	"github.com/upmail/upmail/internal/scheduler"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = t
}

func TestRunValidation(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	db := testdb.New(t)

	store, err := credential.NewStore("test secret")
	require.NoError(t, err)

	s, err := scheduler.New("@hourly", db, store, &credential.Validator{BaseURL: srv.URL})
	require.NoError(t, err)

	s.RunValidation()
	assert.Zero(t, calls.Load(), "no key configured")

	status, err := credential.LoadStatus(db)
	require.NoError(t, err)
	assert.False(t, status.IsValid)
	assert.Equal(t, credential.ErrKeyEmpty, status.Error)

	require.NoError(t, store.SetAPIKey(db, "abcdefghijklmnopqrstuvwxyz012345"))

	s.RunValidation()
	assert.Equal(t, int32(1), calls.Load())

	status, err = credential.LoadStatus(db)
	require.NoError(t, err)
	assert.True(t, status.IsValid)

	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s.Stop(ctx)
}

func TestRunValidationEveryTick(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	db := testdb.New(t)

	store, err := credential.NewStore("test secret")
	require.NoError(t, err)
	require.NoError(t, store.SetAPIKey(db, "abcdefghijklmnopqrstuvwxyz012345"))

	clk := &clock{}
	s, err := scheduler.New("@hourly", db, store, &credential.Validator{BaseURL: srv.URL, Now: clk.Now})
	require.NoError(t, err)

	// the first status is stamped a little after its tick, the next ticks land exactly on the hour
	ticks := []time.Time{
		time.Date(2024, 5, 1, 10, 0, 0, int(150*time.Millisecond), time.UTC),
		time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	for i, tick := range ticks {
		clk.Set(tick)
		s.RunValidation()

		assert.Equal(t, int32(i+1), calls.Load(), "tick %s", tick.Format(time.TimeOnly))
	}
}

func TestInvalidSchedule(t *testing.T) {
	_, err := scheduler.New("every now and then", nil, nil, &credential.Validator{})
	require.Error(t, err)
}
