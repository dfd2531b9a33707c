package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status struct {
	Status string
	Checks map[string]string
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) status {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	s := status{Checks: map[string]string{}}
	err := jx.DecodeBytes(w.Body.Bytes()).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "status":
			v, err := d.Str()
			s.Status = v
			return err
		case "checks":
			return d.ObjBytes(func(d *jx.Decoder, name []byte) error {
				v, err := d.Str()
				s.Checks[string(name)] = v
				return err
			})
		default:
			return d.Skip()
		}
	})
	require.NoError(t, err)
	return s
}

func passing(context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func get(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passing)

	w := get(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeStatus(t, w).Status)
}

func TestLiveEndpoint_FailureThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("storage", time.Second, failing("connection refused"))
	ctx := context.Background()

	h.liveness[0].run(ctx)
	h.liveness[0].run(ctx)
	assert.Equal(t, http.StatusOK, get(h.LiveEndpoint).Code, "two failures stay healthy")

	h.liveness[0].run(ctx)
	w := get(h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	s := decodeStatus(t, w)
	assert.Equal(t, "unhealthy", s.Status)
	assert.Equal(t, "connection refused", s.Checks["storage"])
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)

	w := get(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decodeStatus(t, w).Checks, "_readiness")

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, get(h.ReadyEndpoint).Code)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.Equal(t, http.StatusServiceUnavailable, get(h.ReadyEndpoint).Code)
	assert.False(t, h.IsReady())
}

func TestReadyEndpoint_OneCheckFailing(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passing)
	h.AddReadinessCheck("slots", time.Second, failing("disk full"))
	h.SetReady(true)
	for range failureThreshold {
		h.readiness[1].run(context.Background())
	}

	w := get(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	s := decodeStatus(t, w)
	assert.Equal(t, "disk full", s.Checks["slots"])
	assert.NotContains(t, s.Checks, "postgres")
	assert.False(t, h.IsReady())
}

func TestProbe_Recovers(t *testing.T) {
	down := true
	p := newProbe("flaky", time.Second, func(context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	})
	ctx := context.Background()

	for range failureThreshold {
		p.run(ctx)
	}
	assert.Equal(t, "down", p.failure())

	down = false
	p.run(ctx)
	assert.Empty(t, p.failure())
}

func TestStartStop(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	h := New()
	h.AddLivenessCheck("count", time.Second, func(context.Context) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("live", time.Second, failing("err"))
	h.AddReadinessCheck("ready", time.Second, passing)
	h.SetReady(true)
	h.Start(t.Context(), time.Millisecond)
	defer h.Stop()

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			for range 50 {
				h.IsReady()
				get(h.LiveEndpoint)
				get(h.ReadyEndpoint)
			}
		})
	}
	wg.Wait()
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestCheckers(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, PingCheck(pinger{})(ctx))
	assert.ErrorContains(t, PingCheck(pinger{err: errors.New("refused")})(ctx), "ping: refused")

	assert.NoError(t, GoroutineCountCheck(100000)(ctx))
	assert.ErrorContains(t, GoroutineCountCheck(0)(ctx), "exceeds threshold")

	assert.NoError(t, GCMaxPauseCheck(time.Hour)(ctx))
}
