package assets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ziadkadry99/naflume/internal/db"
	"github.com/ziadkadry99/naflume/internal/version"
)

var testInfo = version.New("1.0.0", "2025-04-01T00:00:00Z", "abc123")

// fakeFetcher is an in-memory network that can be switched offline.
type fakeFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	status  map[string]int
	calls   map[string]int
	offline bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: map[string]string{}, status: map[string]int{}, calls: map[string]int{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, urlPath string) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[urlPath]++
	if f.offline {
		return nil, errors.New("network unreachable")
	}
	body, ok := f.bodies[urlPath]
	status := f.status[urlPath]
	if status == 0 {
		status = http.StatusOK
		if !ok {
			status = http.StatusNotFound
		}
	}
	h := http.Header{}
	h.Set("Content-Type", "text/plain")
	return &Response{Status: status, Header: h, Body: []byte(body)}, nil
}

func (f *fakeFetcher) set(urlPath, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[urlPath] = body
}

func (f *fakeFetcher) setOffline(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = v
}

func (f *fakeFetcher) callCount(urlPath string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[urlPath]
}

func testRules(t *testing.T) *Rules {
	t.Helper()
	r, err := NewRules(
		[]string{"/", "/index.html", "/manifest.json", "/version.json"},
		[]string{"/assets/**", "/**/*.{woff2,png}"},
	)
	require.NoError(t, err)
	return r
}

func setupController(t *testing.T, f Fetcher, opts Options) (*Controller, *Storage) {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	storage := NewStorage(database)
	c := NewController(f, storage, testRules(t), testInfo, opts, nil)
	t.Cleanup(c.Close)
	return c, storage
}

func TestRulesClassify(t *testing.T) {
	r := testRules(t)
	tests := []struct {
		path string
		want Strategy
	}{
		{"/", NetworkFirst},
		{"/index.html", NetworkFirst},
		{"/manifest.json", NetworkFirst},
		{"/assets/index-3f2a.js", StaleWhileRevalidate},
		{"/assets/fonts/amiri.woff2", StaleWhileRevalidate},
		{"/icons/icon-192.png", StaleWhileRevalidate},
		{"/locales/en.json", CacheFirst},
		{"/deeds/today", CacheFirst},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.Classify(tt.path), tt.path)
	}
	assert.Equal(t, "stale-while-revalidate", StaleWhileRevalidate.String())
}

func TestRulesAlwaysFreshWins(t *testing.T) {
	r, err := NewRules([]string{"/assets/sw.js"}, []string{"/assets/**"})
	require.NoError(t, err)
	assert.Equal(t, NetworkFirst, r.Classify("/assets/sw.js"))
	assert.Equal(t, StaleWhileRevalidate, r.Classify("/assets/app.js"))
}

func TestNewRulesRejectsBadPattern(t *testing.T) {
	_, err := NewRules([]string{"/assets/["}, nil)
	assert.Error(t, err)
}

func TestDirFetcher(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html":    {Data: []byte("<html><head><title>Naflume</title></head><body></body></html>")},
		"assets/app.js": {Data: []byte("console.log('naflume')")},
	}
	f := &DirFetcher{FS: fsys, Version: testInfo}
	ctx := context.Background()

	resp, err := f.Fetch(ctx, "/assets/app.js")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")

	// Client-side routes resolve to the shell.
	resp, err = f.Fetch(ctx, "/deeds/today")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), "window.__NAFLUME_VERSION__=")
	assert.Contains(t, string(resp.Body), `"cacheBust":1743465600000`)

	for _, p := range []string{"/missing.js", "/api/guidance"} {
		resp, err = f.Fetch(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.Status, p)
	}
}

func TestDirFetcherMissingShell(t *testing.T) {
	f := &DirFetcher{FS: fstest.MapFS{}, Version: testInfo}
	for _, p := range []string{"/", "/index.html", "/deeds/today"} {
		_, err := f.Fetch(context.Background(), p)
		assert.Error(t, err, p)
	}
}

func TestDirFetcherMissingShellFallsBackToCache(t *testing.T) {
	fsys := fstest.MapFS{
		"index.html": {Data: []byte("<html><head></head><body>shell</body></html>")},
	}
	c, _ := setupController(t, &DirFetcher{FS: fsys, Version: testInfo}, Options{Precache: []string{"/"}})
	ctx := context.Background()
	require.NoError(t, c.Install(ctx))

	delete(fsys, "index.html")
	resp, source := c.Serve(ctx, "/")
	require.NotNil(t, resp)
	assert.Equal(t, "fallback", source)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, string(resp.Body), "shell")
}

func TestInjectVersion(t *testing.T) {
	out := string(InjectVersion([]byte("<html><head></head></html>"), testInfo))
	assert.True(t, strings.HasSuffix(out, "</script></head></html>"), out)

	out = string(InjectVersion([]byte("<p>bare</p>"), testInfo))
	assert.True(t, strings.HasPrefix(out, "<script>"), out)
}

func TestHTTPFetcher(t *testing.T) {
	var gotCacheControl string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCacheControl = r.Header.Get("Cache-Control")
		if r.URL.Path != "/assets/app.js" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/javascript")
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Set-Cookie", "session=1")
		w.Write([]byte("app"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/", 2*time.Second)
	resp, err := f.Fetch(context.Background(), "/assets/app.js")
	require.NoError(t, err)
	assert.Equal(t, "no-cache", gotCacheControl)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "app", string(resp.Body))
	assert.Equal(t, `"v1"`, resp.Header.Get("ETag"))
	assert.Empty(t, resp.Header.Get("Set-Cookie"))

	resp, err = f.Fetch(context.Background(), "/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestNetworkFirst(t *testing.T) {
	f := newFakeFetcher()
	f.set("/", "shell v1")
	c, _ := setupController(t, f, Options{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, source := c.Serve(ctx, "/")
		require.NotNil(t, resp)
		assert.Equal(t, "network", source)
		assert.Equal(t, "shell v1", string(resp.Body))
	}
	assert.Equal(t, 2, f.callCount("/"))

	f.setOffline(true)
	resp, source := c.Serve(ctx, "/")
	require.NotNil(t, resp)
	assert.Equal(t, "fallback", source)
	assert.Equal(t, "shell v1", string(resp.Body))

	resp, source = c.Serve(ctx, "/manifest.json")
	assert.Nil(t, resp)
	assert.Equal(t, "offline", source)
}

func TestCacheFirst(t *testing.T) {
	f := newFakeFetcher()
	f.set("/locales/en.json", `{"hello":"Peace"}`)
	c, _ := setupController(t, f, Options{})
	ctx := context.Background()

	_, source := c.Serve(ctx, "/locales/en.json")
	assert.Equal(t, "miss", source)
	resp, source := c.Serve(ctx, "/locales/en.json")
	assert.Equal(t, "hit", source)
	assert.Equal(t, `{"hello":"Peace"}`, string(resp.Body))
	assert.Equal(t, 1, f.callCount("/locales/en.json"))

	f.setOffline(true)
	_, source = c.Serve(ctx, "/locales/en.json")
	assert.Equal(t, "hit", source)
}

func TestOnlySuccessfulResponsesAreCached(t *testing.T) {
	f := newFakeFetcher()
	f.set("/flaky.json", "oops")
	f.status["/flaky.json"] = http.StatusInternalServerError
	c, storage := setupController(t, f, Options{})
	ctx := context.Background()

	for _, p := range []string{"/missing.json", "/flaky.json", "/"} {
		resp, _ := c.Serve(ctx, p)
		require.NotNil(t, resp, p)
		assert.NotEqual(t, http.StatusOK, resp.Status, p)
		cached, err := storage.Match(ctx, c.CacheName(), p)
		require.NoError(t, err)
		assert.Nil(t, cached, p)
	}

	c.Serve(ctx, "/missing.json")
	assert.Equal(t, 2, f.callCount("/missing.json"))
}

func TestStaleWhileRevalidate(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	f := newFakeFetcher()
	f.set("/assets/app.js", "v1")
	c, storage := setupController(t, f, Options{})
	ctx := context.Background()

	_, source := c.Serve(ctx, "/assets/app.js")
	assert.Equal(t, "miss", source)

	f.set("/assets/app.js", "v2")
	resp, source := c.Serve(ctx, "/assets/app.js")
	assert.Equal(t, "stale", source)
	assert.Equal(t, "v1", string(resp.Body))

	c.wg.Wait()
	cached, err := storage.Match(ctx, c.CacheName(), "/assets/app.js")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "v2", string(cached.Body))

	// Offline revalidation keeps the stale copy.
	f.setOffline(true)
	resp, _ = c.Serve(ctx, "/assets/app.js")
	assert.Equal(t, "v2", string(resp.Body))
	c.Close()
}

func TestCloseStopsRevalidation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	f := newFakeFetcher()
	f.set("/assets/app.js", "v1")
	c, _ := setupController(t, f, Options{})
	ctx := context.Background()

	c.Serve(ctx, "/assets/app.js")
	c.Close()

	c.Serve(ctx, "/assets/app.js")
	assert.Equal(t, 1, f.callCount("/assets/app.js"))
}

// hangingFetcher answers the first request, then blocks every later one
// until its context is cancelled.
type hangingFetcher struct {
	calls   atomic.Int32
	started chan struct{}
}

func (f *hangingFetcher) Fetch(ctx context.Context, _ string) (*Response, error) {
	if f.calls.Add(1) == 1 {
		return &Response{Status: http.StatusOK, Header: http.Header{}, Body: []byte("v1")}, nil
	}
	close(f.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCloseCancelsHangingRevalidation(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))

	f := &hangingFetcher{started: make(chan struct{})}
	c, _ := setupController(t, f, Options{})
	ctx := context.Background()

	c.Serve(ctx, "/assets/app.js")
	_, source := c.Serve(ctx, "/assets/app.js")
	assert.Equal(t, "stale", source)
	<-f.started

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on an in-flight revalidation")
	}
}

func TestInstallRemovesStaleBuckets(t *testing.T) {
	f := newFakeFetcher()
	f.set("/", "shell")
	f.set("/manifest.json", "{}")
	c, storage := setupController(t, f, Options{Precache: []string{"/", "/manifest.json", "/gone.png"}})
	ctx := context.Background()

	old := &Response{Status: http.StatusOK, Header: http.Header{}, Body: []byte("old")}
	require.NoError(t, storage.Put(ctx, "naflume-v1", "/", old))
	require.NoError(t, storage.Put(ctx, "naflume-v2", "/assets/app.js", old))
	assert.Equal(t, StateNew, c.State())

	require.NoError(t, c.Install(ctx))
	assert.Equal(t, StateActivated, c.State())

	buckets, err := storage.Buckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{c.CacheName()}, buckets)

	f.setOffline(true)
	resp, source := c.Serve(ctx, "/manifest.json")
	require.NotNil(t, resp)
	assert.Equal(t, "fallback", source)
}

func TestHandleMessage(t *testing.T) {
	f := newFakeFetcher()
	f.set("/locales/en.json", "{}")
	c, storage := setupController(t, f, Options{})
	ctx := context.Background()

	reply, err := c.HandleMessage(ctx, Message{Type: MsgGetVersion})
	require.NoError(t, err)
	assert.Equal(t, &Reply{Type: MsgVersionInfo, Version: "1.0.0", CacheName: "naflume-v1743465600000"}, reply)

	reply, err = c.HandleMessage(ctx, Message{Type: MsgSkipWaiting})
	require.NoError(t, err)
	assert.Nil(t, reply)
	assert.Equal(t, StateActivated, c.State())

	c.Serve(ctx, "/locales/en.json")
	reply, err = c.HandleMessage(ctx, Message{Type: MsgClearCache})
	require.NoError(t, err)
	assert.Nil(t, reply)
	buckets, err := storage.Buckets(ctx)
	require.NoError(t, err)
	assert.Empty(t, buckets)

	_, err = c.HandleMessage(ctx, Message{Type: "PING"})
	assert.Error(t, err)
}

func setupRouter(t *testing.T, f Fetcher) (*Controller, http.Handler) {
	t.Helper()
	c, _ := setupController(t, f, Options{})
	r := chi.NewRouter()
	RegisterRoutes(r, c)
	return c, r
}

func TestServeHTTP(t *testing.T) {
	f := newFakeFetcher()
	f.set("/", "shell")
	f.set("/assets/app.js", "app")
	_, router := setupRouter(t, f)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "network", w.Header().Get("X-Cache"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "shell", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/assets/app.js", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "miss", w.Header().Get("X-Cache"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "immutable")

	req = httptest.NewRequest(http.MethodHead, "/assets/app.js", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/assets/app.js", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	f.setOffline(true)
	req = httptest.NewRequest(http.MethodGet, "/manifest.json", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestVersionRoute(t *testing.T) {
	_, router := setupRouter(t, newFakeFetcher())

	req := httptest.NewRequest(http.MethodGet, "/version.json", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var got version.Info
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, testInfo, got)
}

func TestMessageRoute(t *testing.T) {
	_, router := setupRouter(t, newFakeFetcher())

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/sw/message", strings.NewReader(body))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := post(`{"type":"GET_VERSION"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var reply Reply
	require.NoError(t, json.NewDecoder(w.Body).Decode(&reply))
	assert.Equal(t, MsgVersionInfo, reply.Type)
	assert.Equal(t, "naflume-v1743465600000", reply.CacheName)

	assert.Equal(t, http.StatusNoContent, post(`{"type":"CLEAR_CACHE"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"type":"PING"}`).Code)
}

func TestEventsBroadcastUpdate(t *testing.T) {
	c, router := setupRouter(t, newFakeFetcher())
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sw/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(Message{Type: MsgGetVersion}))
	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, MsgVersionInfo, reply.Type)
	assert.Equal(t, 1, c.hub.Len())

	_, err = c.Activate(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, MsgUpdated, reply.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("garbage")))
	var errMsg map[string]string
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, "ERROR", errMsg["type"])
}
