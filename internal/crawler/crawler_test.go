package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rateshub/rates-data/internal/pubsub"
	"github.com/rateshub/rates-data/internal/source"
	"github.com/rateshub/rates-data/internal/store"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestCrawler_TicksProducePointsAndPublishes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null({"Rates":[{"Symbol":"EURUSD","Bid":0.2,"Ask":0.4}]});`))
	}))
	defer srv.Close()

	hub := pubsub.NewHub(100, nil)
	st := store.NewMemoryStore(store.DefaultAssets(), 100, hub, nil)
	sub := hub.Subscribe("EURUSD")
	defer hub.Unsubscribe(sub)

	c := New(Config{Period: 20 * time.Millisecond, Timeout: time.Second},
		source.NewClient(srv.URL), st, nil)

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop(ctx)

	waitFor(t, 2*time.Second, func() bool { return c.Ticks() >= 2 })

	first := <-sub.Points()
	second := <-sub.Points()

	if first.Value.String() != "0.3" || second.Value.String() != "0.3" {
		t.Errorf("values = %s, %s, want 0.3 each", first.Value, second.Value)
	}
	if second.Timestamp < first.Timestamp {
		t.Errorf("timestamps decreased: %d then %d", first.Timestamp, second.Timestamp)
	}

	history, err := st.GetHistory(ctx, store.DefaultAssets()[0])
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) < 2 {
		t.Errorf("len(history) = %d, want >= 2", len(history))
	}
}

func TestCrawler_SurvivesFetchErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1)%2 == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"Rates":[{"Symbol":"EURUSD","Bid":1,"Ask":1}]}`))
	}))
	defer srv.Close()

	hub := pubsub.NewHub(100, nil)
	st := store.NewMemoryStore(store.DefaultAssets(), 100, hub, nil)
	sub := hub.Subscribe("EURUSD")
	defer hub.Unsubscribe(sub)

	c := New(Config{Period: 10 * time.Millisecond, Timeout: time.Second},
		source.NewClient(srv.URL), st, nil)

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop(ctx)

	// Failing ticks must not stop the loop: a successful tick follows.
	select {
	case <-sub.Points():
	case <-time.After(2 * time.Second):
		t.Fatal("no point delivered after transient fetch errors")
	}
}

func TestCrawler_SurvivesMalformedPayload(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Write([]byte(`<html>definitely not rates</html>`))
			return
		}
		w.Write([]byte(`{"Rates":[{"Symbol":"EURUSD","Bid":1,"Ask":1}]}`))
	}))
	defer srv.Close()

	hub := pubsub.NewHub(100, nil)
	st := store.NewMemoryStore(store.DefaultAssets(), 100, hub, nil)
	sub := hub.Subscribe("EURUSD")
	defer hub.Unsubscribe(sub)

	c := New(Config{Period: 10 * time.Millisecond, Timeout: time.Second},
		source.NewClient(srv.URL), st, nil)

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer c.Stop(ctx)

	select {
	case <-sub.Points():
	case <-time.After(2 * time.Second):
		t.Fatal("no point delivered after malformed payload")
	}
}

func TestCrawler_StopIsPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Rates":[]}`))
	}))
	defer srv.Close()

	st := store.NewMemoryStore(store.DefaultAssets(), 100, nil, nil)
	c := New(Config{Period: 10 * time.Second, Timeout: time.Second},
		source.NewClient(srv.URL), st, nil)

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitFor(t, time.Second, func() bool { return c.Running() })

	// The crawler is deep in its 10s sleep; Stop must still return fast.
	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := c.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if c.Running() {
		t.Error("crawler still running after Stop")
	}
}
