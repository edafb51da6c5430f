package control_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/courier/internal/control"
	"github.com/dmitrymomot/courier/pkg/dispatch"
	"github.com/dmitrymomot/courier/pkg/netprobe"
)

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestServer_ControlEndpoints(t *testing.T) {
	t.Parallel()

	ctl := dispatch.NewControl()
	h := control.New(ctl, control.NewTracker("run-1")).Handler()

	rec, body := do(t, h, http.MethodPost, "/pause")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, ctl.Paused())
	assert.Equal(t, true, body["paused"])

	rec, body = do(t, h, http.MethodPost, "/resume")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.False(t, ctl.Paused())
	assert.Equal(t, false, body["paused"])

	rec, body = do(t, h, http.MethodPost, "/cancel")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, ctl.Cancelled())
	assert.Equal(t, true, body["cancelled"])
	assert.Equal(t, "run-1", body["run_id"])

	rec, _ = do(t, h, http.MethodGet, "/pause")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Status(t *testing.T) {
	t.Parallel()

	tracker := control.NewTracker("")
	h := control.New(dispatch.NewControl(), tracker).Handler()

	for _, e := range []dispatch.Event{
		{Kind: dispatch.EventTotal, Value: 4},
		{Kind: dispatch.EventLog, Message: "Email sent successfully!"},
		{Kind: dispatch.EventSent, Value: 1},
		{Kind: dispatch.EventProgress, Value: 25},
	} {
		tracker.Observe(e)
	}

	rec, body := do(t, h, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.InDelta(t, 4, body["total"], 0)
	assert.InDelta(t, 1, body["sent"], 0)
	assert.InDelta(t, 25, body["percent"], 0)
	assert.Equal(t, "Email sent successfully!", body["last_log"])
	assert.Equal(t, false, body["finished"])

	tracker.Observe(dispatch.Event{Kind: dispatch.EventFinished})
	_, body = do(t, h, http.MethodGet, "/status")
	assert.Equal(t, true, body["finished"])
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()

		h := control.New(dispatch.NewControl(), control.NewTracker("")).Handler()
		rec, body := do(t, h, http.MethodGet, "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, control.StatusHealthy, body["status"])
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()

		h := control.New(dispatch.NewControl(), control.NewTracker(""), control.WithChecks(control.Checks{
			"network":    netprobe.Healthcheck(netprobe.Static(true)),
			"checkpoint": func(context.Context) error { return nil },
		})).Handler()

		rec, body := do(t, h, http.MethodGet, "/readyz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, control.StatusHealthy, body["status"])
	})

	t.Run("unready when the probe fails", func(t *testing.T) {
		t.Parallel()

		h := control.New(dispatch.NewControl(), control.NewTracker(""), control.WithChecks(control.Checks{
			"network":    netprobe.Healthcheck(netprobe.Static(false)),
			"checkpoint": func(context.Context) error { return nil },
		})).Handler()

		rec, body := do(t, h, http.MethodGet, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, control.StatusUnhealthy, body["status"])

		checks := body["checks"].(map[string]any)
		network := checks["network"].(map[string]any)
		assert.Equal(t, control.StatusUnhealthy, network["status"])
		assert.Equal(t, netprobe.ErrUnreachable.Error(), network["error"])
		checkpoint := checks["checkpoint"].(map[string]any)
		assert.Equal(t, control.StatusHealthy, checkpoint["status"])
	})

	t.Run("slow check times out", func(t *testing.T) {
		t.Parallel()

		h := control.New(dispatch.NewControl(), control.NewTracker(""),
			control.WithReadyTimeout(10*time.Millisecond),
			control.WithChecks(control.Checks{
				"slow": func(ctx context.Context) error {
					<-ctx.Done()
					return ctx.Err()
				},
			}),
		).Handler()

		rec, _ := do(t, h, http.MethodGet, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ctl := dispatch.NewControl()
	srv := control.New(ctl, control.NewTracker(""), control.WithShutdownTimeout(time.Second))

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := fmt.Sprintf("http://%s/pause", ln.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Post(url, "application/json", nil)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusAccepted
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, ctl.Paused())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, err = http.Post(url, "application/json", nil)
	require.Error(t, err, "listener is closed after shutdown")
}
