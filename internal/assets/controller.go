package assets

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/ziadkadry99/naflume/internal/logger"
	"github.com/ziadkadry99/naflume/internal/version"
)

// Message types exchanged with application tabs.
const (
	MsgSkipWaiting = "SKIP_WAITING"
	MsgClearCache  = "CLEAR_CACHE"
	MsgGetVersion  = "GET_VERSION"
	MsgVersionInfo = "VERSION_INFO"
	MsgUpdated     = "SW_UPDATED"
)

// Message is sent by an application tab.
type Message struct {
	Type string `json:"type"`
}

// Reply answers a Message or is broadcast to every tab.
type Reply struct {
	Type      string `json:"type"`
	Version   string `json:"version,omitempty"`
	CacheName string `json:"cacheName,omitempty"`
}

// State is the lifecycle stage of the controller.
type State string

const (
	StateNew       State = "new"
	StateInstalled State = "installed"
	StateActivated State = "activated"
)

// Options configures a Controller.
type Options struct {
	// CachePrefix names buckets: <prefix>-v<cacheBust>.
	CachePrefix string
	// Precache lists paths fetched into the new bucket on install.
	Precache []string
}

// Controller is the asset cache in front of the built application. It
// serves each path with the strategy its Rules assign, keeps responses in
// a bucket named after the running build and drops older buckets on
// activation.
type Controller struct {
	fetcher   Fetcher
	storage   *Storage
	rules     *Rules
	info      version.Info
	cacheName string
	precache  []string
	log       *logger.Logger
	hub       *Hub

	mu     sync.Mutex
	state  State
	closed bool

	bg     context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController creates a Controller. Call Install before serving.
func NewController(f Fetcher, s *Storage, rules *Rules, info version.Info, opts Options, log *logger.Logger) *Controller {
	if opts.CachePrefix == "" {
		opts.CachePrefix = "naflume"
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "assets")
	bg, cancel := context.WithCancel(context.Background())
	return &Controller{
		fetcher:   f,
		storage:   s,
		rules:     rules,
		info:      info,
		cacheName: info.CacheName(opts.CachePrefix),
		precache:  opts.Precache,
		log:       log,
		hub:       newHub(log),
		state:     StateNew,
		bg:        bg,
		cancel:    cancel,
	}
}

// CacheName is the bucket of the running build.
func (c *Controller) CacheName() string { return c.cacheName }

// Info is the running build descriptor.
func (c *Controller) Info() version.Info { return c.info }

// State reports the lifecycle stage.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Install precaches the configured paths into the current bucket, then
// activates immediately instead of waiting for old tabs to close.
// Precache failures are logged and do not block activation.
func (c *Controller) Install(ctx context.Context) error {
	for _, p := range c.precache {
		resp, err := c.fetcher.Fetch(ctx, p)
		if err != nil {
			c.log.Warn("precache failed", "path", p, "error", err)
			continue
		}
		c.store(ctx, p, resp)
	}
	c.setState(StateInstalled)
	c.log.Info("installed", "cache", c.cacheName, "precached", len(c.precache))
	_, err := c.Activate(ctx)
	return err
}

// Activate deletes every bucket except the current one and notifies all
// connected tabs. It returns the deleted bucket names.
func (c *Controller) Activate(ctx context.Context) ([]string, error) {
	buckets, err := c.storage.Buckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("activating: %w", err)
	}
	var deleted []string
	for _, b := range buckets {
		if b == c.cacheName {
			continue
		}
		if _, err := c.storage.DeleteBucket(ctx, b); err != nil {
			return deleted, fmt.Errorf("activating: %w", err)
		}
		deleted = append(deleted, b)
	}
	c.setState(StateActivated)
	c.log.Info("activated", "cache", c.cacheName, "deleted", deleted)
	c.hub.Broadcast(Reply{Type: MsgUpdated})
	return deleted, nil
}

// ClearCache deletes every bucket, the current one included.
func (c *Controller) ClearCache(ctx context.Context) error {
	buckets, err := c.storage.Buckets(ctx)
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	for _, b := range buckets {
		if _, err := c.storage.DeleteBucket(ctx, b); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
	}
	c.log.Info("cache cleared", "buckets", len(buckets))
	return nil
}

// HandleMessage applies a tab's message. Only GET_VERSION has a reply.
func (c *Controller) HandleMessage(ctx context.Context, m Message) (*Reply, error) {
	switch m.Type {
	case MsgSkipWaiting:
		if c.State() == StateActivated {
			return nil, nil
		}
		_, err := c.Activate(ctx)
		return nil, err
	case MsgClearCache:
		return nil, c.ClearCache(ctx)
	case MsgGetVersion:
		return &Reply{Type: MsgVersionInfo, Version: c.info.Version, CacheName: c.cacheName}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", m.Type)
	}
}

// Serve resolves urlPath through its strategy. It returns nil when neither
// the network nor the cache can answer. The second value says where the
// response came from.
func (c *Controller) Serve(ctx context.Context, urlPath string) (*Response, string) {
	switch c.rules.Classify(urlPath) {
	case NetworkFirst:
		return c.networkFirst(ctx, urlPath)
	case StaleWhileRevalidate:
		return c.staleWhileRevalidate(ctx, urlPath)
	default:
		return c.cacheFirst(ctx, urlPath)
	}
}

func (c *Controller) networkFirst(ctx context.Context, urlPath string) (*Response, string) {
	resp, err := c.fetcher.Fetch(ctx, urlPath)
	if err == nil {
		c.store(ctx, urlPath, resp)
		return resp, "network"
	}
	c.log.Debug("network unreachable, trying cache", "path", urlPath, "error", err)
	if cached := c.match(ctx, urlPath); cached != nil {
		return cached, "fallback"
	}
	return nil, "offline"
}

func (c *Controller) staleWhileRevalidate(ctx context.Context, urlPath string) (*Response, string) {
	if cached := c.match(ctx, urlPath); cached != nil {
		c.revalidate(urlPath)
		return cached, "stale"
	}
	return c.fetchAndStore(ctx, urlPath)
}

func (c *Controller) cacheFirst(ctx context.Context, urlPath string) (*Response, string) {
	if cached := c.match(ctx, urlPath); cached != nil {
		return cached, "hit"
	}
	return c.fetchAndStore(ctx, urlPath)
}

func (c *Controller) fetchAndStore(ctx context.Context, urlPath string) (*Response, string) {
	resp, err := c.fetcher.Fetch(ctx, urlPath)
	if err != nil {
		c.log.Debug("fetch failed", "path", urlPath, "error", err)
		return nil, "offline"
	}
	c.store(ctx, urlPath, resp)
	return resp, "miss"
}

// revalidate refreshes urlPath in the background. Close waits for it.
func (c *Controller) revalidate(urlPath string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		resp, err := c.fetcher.Fetch(c.bg, urlPath)
		if err != nil {
			c.log.Debug("revalidate failed", "path", urlPath, "error", err)
			return
		}
		if c.bg.Err() != nil {
			return
		}
		c.store(c.bg, urlPath, resp)
	}()
}

// store caches successful responses only.
func (c *Controller) store(ctx context.Context, urlPath string, resp *Response) {
	if resp == nil || resp.Status != http.StatusOK {
		return
	}
	if err := c.storage.Put(ctx, c.cacheName, urlPath, resp); err != nil {
		c.log.Warn("cache put failed", "path", urlPath, "error", err)
	}
}

func (c *Controller) match(ctx context.Context, urlPath string) *Response {
	resp, err := c.storage.Match(ctx, c.cacheName, urlPath)
	if err != nil {
		c.log.Warn("cache match failed", "path", urlPath, "error", err)
		return nil
	}
	return resp
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

// ServeHTTP serves GET and HEAD requests for assets.
func (c *Controller) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	urlPath := r.URL.Path
	resp, source := c.Serve(r.Context(), urlPath)
	if resp == nil {
		http.Error(w, "offline", http.StatusServiceUnavailable)
		return
	}

	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Cache", source)
	w.Header().Set("X-Cache-Name", c.cacheName)
	switch c.rules.Classify(urlPath) {
	case NetworkFirst:
		w.Header().Set("Cache-Control", "no-store")
	case StaleWhileRevalidate:
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(resp.Status)
	if r.Method == http.MethodGet {
		w.Write(resp.Body)
	}
}

// Close stops accepting background work, cancels in-flight revalidations,
// waits for them to return and disconnects every tab.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
	c.hub.Close()
}
