package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/ziadkadry99/naflume/internal/version"
)

// maxBody caps how much of an upstream response is read into memory.
const maxBody = 32 << 20

// Response is a fetched or cached HTTP response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Fetcher is the "network": where fresh copies of assets come from. An
// error means the network is unreachable; HTTP error statuses are returned
// as responses.
type Fetcher interface {
	Fetch(ctx context.Context, urlPath string) (*Response, error)
}

const shellName = "index.html"

// DirFetcher serves a built single-page application from a file system.
// Extensionless paths that match no file fall back to index.html so that
// client-side routes resolve. HTML gets the build descriptor injected.
// A missing index.html is an error, not a 404, so callers fall back to a
// cached shell.
type DirFetcher struct {
	FS      fs.FS
	Version version.Info
}

// Fetch implements Fetcher.
func (d *DirFetcher) Fetch(_ context.Context, urlPath string) (*Response, error) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = shellName
	}

	if fi, err := fs.Stat(d.FS, name); err != nil || fi.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		if name != shellName && (path.Ext(name) != "" || strings.HasPrefix(name, "api/")) {
			return &Response{Status: http.StatusNotFound, Header: http.Header{}, Body: []byte("not found\n")}, nil
		}
		name = shellName
	}
	data, err := fs.ReadFile(d.FS, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	ctype := mime.TypeByExtension(path.Ext(name))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if strings.HasPrefix(ctype, "text/html") {
		data = InjectVersion(data, d.Version)
	}
	h := http.Header{}
	h.Set("Content-Type", ctype)
	return &Response{Status: http.StatusOK, Header: h, Body: data}, nil
}

// InjectVersion adds the build descriptor to an HTML shell as
// window.__NAFLUME_VERSION__, just before </head>.
func InjectVersion(html []byte, info version.Info) []byte {
	js, _ := json.Marshal(info)
	tag := []byte(`<script>window.__NAFLUME_VERSION__=` + string(js) + `;</script>`)
	i := bytes.Index(html, []byte("</head>"))
	if i < 0 {
		return append(tag, html...)
	}
	out := make([]byte, 0, len(html)+len(tag))
	out = append(out, html[:i]...)
	out = append(out, tag...)
	return append(out, html[i:]...)
}

// HTTPFetcher proxies assets from an upstream origin such as a dev server
// or CDN.
type HTTPFetcher struct {
	Origin string
	Client *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher for origin.
func NewHTTPFetcher(origin string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Origin: strings.TrimRight(origin, "/"),
		Client: &http.Client{Timeout: timeout},
	}
}

// Fetch implements Fetcher.
func (h *HTTPFetcher) Fetch(ctx context.Context, urlPath string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Origin+urlPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// The origin is always asked for a fresh copy.
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", urlPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", urlPath, err)
	}
	hdr := http.Header{}
	for _, k := range []string{"Content-Type", "ETag", "Last-Modified"} {
		if v := resp.Header.Get(k); v != "" {
			hdr.Set(k, v)
		}
	}
	return &Response{Status: resp.StatusCode, Header: hdr, Body: body}, nil
}
