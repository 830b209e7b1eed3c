package esi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"eve-starmap/internal/graph"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestNewClient_DefaultBase(t *testing.T) {
	c := NewClient("")
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
	if got := NewClient("http://x/").url("/status/"); got != "http://x/status/?datasource=tranquility" {
		t.Errorf("url = %q", got)
	}
}

func TestFetchTelemetry_Merges(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		switch r.URL.Path {
		case "/universe/system_kills/":
			w.Write([]byte(`[{"system_id":30000142,"npc_kills":10,"pod_kills":2,"ship_kills":5},{"system_id":30002187,"npc_kills":300,"pod_kills":0,"ship_kills":0}]`))
		case "/universe/system_jumps/":
			w.Write([]byte(`[{"system_id":30000142,"ship_jumps":900},{"system_id":30000144,"ship_jumps":40}]`))
		default:
			http.NotFound(w, r)
		}
	})

	snap, err := c.FetchTelemetry(context.Background())
	if err != nil {
		t.Fatalf("FetchTelemetry: %v", err)
	}
	want := map[int32]graph.Telemetry{
		30000142: {NPCKills: 10, PodKills: 2, ShipKills: 5, ShipJumps: 900},
		30002187: {NPCKills: 300},
		30000144: {ShipJumps: 40},
	}
	if len(snap.Stats) != len(want) {
		t.Fatalf("Stats = %v, want %v", snap.Stats, want)
	}
	for id, w := range want {
		if got := snap.Stats[id]; got != w {
			t.Errorf("Stats[%d] = %+v, want %+v", id, got, w)
		}
	}
	if snap.FetchedAt.IsZero() {
		t.Error("FetchedAt is zero")
	}
}

func TestFetchTelemetry_ErrorPropagates(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/universe/system_jumps/" {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	})
	if _, err := c.FetchTelemetry(context.Background()); err == nil {
		t.Fatal("FetchTelemetry succeeded on a 502")
	}
}

func TestGetCached_FreshHitSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(time.RFC1123))
		w.Write([]byte(`[{"system_id":1,"ship_jumps":3}]`))
	})

	for i := 0; i < 3; i++ {
		jumps, err := c.FetchSystemJumps(context.Background())
		if err != nil || len(jumps) != 1 || jumps[0].ShipJumps != 3 {
			t.Fatalf("FetchSystemJumps = %+v, %v", jumps, err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}

func TestGetCached_ConditionalRequest(t *testing.T) {
	var hits, conditional atomic.Int32
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		// Already expired so every call revalidates.
		w.Header().Set("Expires", time.Now().Add(-time.Minute).UTC().Format(time.RFC1123))
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(`[{"system_id":7,"npc_kills":1,"pod_kills":0,"ship_kills":0}]`))
	})

	for i := 0; i < 2; i++ {
		kills, err := c.FetchSystemKills(context.Background())
		if err != nil || len(kills) != 1 || kills[0].SystemID != 7 {
			t.Fatalf("call %d: FetchSystemKills = %+v, %v", i, kills, err)
		}
	}
	if hits.Load() != 2 || conditional.Load() != 1 {
		t.Errorf("hits = %d, conditional = %d, want 2 and 1", hits.Load(), conditional.Load())
	}
}

func TestResponseCache(t *testing.T) {
	rc := NewResponseCache()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rc.now = func() time.Time { return now }

	rc.Put("a", []byte("1"), "e1", now.Add(time.Minute))
	rc.Put("b", []byte("2"), "e2", now.Add(-time.Minute))

	if body, etag, fresh := rc.Get("a"); !fresh || string(body) != "1" || etag != "e1" {
		t.Errorf("Get(a) = %q, %q, %v", body, etag, fresh)
	}
	if body, etag, fresh := rc.Get("b"); fresh || string(body) != "2" || etag != "e2" {
		t.Errorf("Get(b) = %q, %q, %v", body, etag, fresh)
	}
	if got := rc.NextExpiry(); !got.Equal(now.Add(-time.Minute)) {
		t.Errorf("NextExpiry = %v", got)
	}

	rc.Touch("b", now.Add(time.Hour))
	if _, _, fresh := rc.Get("b"); !fresh {
		t.Error("Touch did not refresh b")
	}
	if n := rc.Clear(); n != 2 {
		t.Errorf("Clear = %d, want 2", n)
	}
	if _, _, fresh := rc.Get("a"); fresh {
		t.Error("entry survived Clear")
	}
}

func TestHealthCheck(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"players":1}`))
	})
	if !c.HealthCheck(context.Background()) {
		t.Error("HealthCheck = false, want true")
	}
}
