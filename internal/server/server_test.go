package server

// Notes:
// - Handlers are tested through Handler() with httptest so routing, CORS and
//   the access log wrapper are exercised together.
// - fakeConverter records calls; the end-to-end test wires the real Service
//   with the SQLite store and an httptest source server.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	md2codelab "github.com/alnah/go-md2codelab"
	"github.com/alnah/go-md2codelab/internal/assets"
	"github.com/alnah/go-md2codelab/internal/dateutil"
	"github.com/alnah/go-md2codelab/internal/fetch"
	"github.com/alnah/go-md2codelab/internal/identity"
	"github.com/alnah/go-md2codelab/internal/store"
)

type fakeConverter struct {
	mu         sync.Mutex
	convertURL []string
	rec        *md2codelab.Record
	convertErr error
	viewErr    error
	list       []*md2codelab.Record
	listErr    error
	listLimit  int
	ctxErr     error
}

func (f *fakeConverter) Convert(ctx context.Context, u string) (*md2codelab.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.convertURL = append(f.convertURL, u)
	f.ctxErr = ctx.Err()
	if f.convertErr != nil {
		return nil, f.convertErr
	}
	return f.rec, nil
}

func (f *fakeConverter) View(ctx context.Context, id string) (*md2codelab.Record, error) {
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	if f.rec == nil || f.rec.ConvertedID != id {
		return nil, md2codelab.ErrNotFound
	}
	return f.rec, nil
}

func (f *fakeConverter) List(ctx context.Context, limit int) ([]*md2codelab.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listLimit = limit
	return f.list, f.listErr
}

var testRecord = &md2codelab.Record{
	OriginalURL: "https://raw.githubusercontent.com/panhyuan/blog/main/post.md",
	ConvertedID: "abc123def456",
	Title:       "Demo",
	HTML:        "<html><body>codelab</body></html>",
	CreatedAt:   time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
	AccessedAt:  time.Date(2025, 7, 2, 8, 30, 0, 0, time.UTC),
}

func newTestServer(t *testing.T, conv Converter, opts ...Option) http.Handler {
	t.Helper()
	opts = append([]Option{WithAllowedPrefix("https://raw.githubusercontent.com/panhyuan")}, opts...)
	s, err := New(conv, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s.Handler()
}

func do(h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// TestIndex
// ---------------------------------------------------------------------------

func TestIndex(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &fakeConverter{})

	t.Run("renders form", func(t *testing.T) {
		t.Parallel()

		rec := do(h, http.MethodGet, "/", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := rec.Body.String()
		for _, want := range []string{`action="/convert"`, `method="POST"`, "https://raw.githubusercontent.com/panhyuan", `href="/views"`} {
			if !strings.Contains(body, want) {
				t.Errorf("body missing %q", want)
			}
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("url query redirects to convert", func(t *testing.T) {
		t.Parallel()

		src := "https://raw.githubusercontent.com/panhyuan/a b.md"
		rec := do(h, http.MethodGet, "/?url="+url.QueryEscape(src), "")
		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", rec.Code)
		}
		if got, want := rec.Header().Get("Location"), "/convert?url="+url.QueryEscape(src); got != want {
			t.Errorf("Location = %q, want %q", got, want)
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		t.Parallel()

		if rec := do(h, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

// ---------------------------------------------------------------------------
// TestConvert - Redirects and error mapping
// ---------------------------------------------------------------------------

func TestConvert(t *testing.T) {
	t.Parallel()

	t.Run("post form redirects to view", func(t *testing.T) {
		t.Parallel()

		conv := &fakeConverter{rec: testRecord}
		h := newTestServer(t, conv)

		rec := do(h, http.MethodPost, "/convert", "url="+url.QueryEscape(testRecord.OriginalURL))
		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302 (body %q)", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("Location"); got != "/view/abc123def456" {
			t.Errorf("Location = %q", got)
		}
		if len(conv.convertURL) != 1 || conv.convertURL[0] != testRecord.OriginalURL {
			t.Errorf("Convert called with %v", conv.convertURL)
		}
	})

	t.Run("get query redirects to view", func(t *testing.T) {
		t.Parallel()

		conv := &fakeConverter{rec: testRecord}
		h := newTestServer(t, conv)

		rec := do(h, http.MethodGet, "/convert?url="+url.QueryEscape(testRecord.OriginalURL), "")
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/view/abc123def456" {
			t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("conversion survives client cancel", func(t *testing.T) {
		t.Parallel()

		conv := &fakeConverter{rec: testRecord}
		h := newTestServer(t, conv)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req := httptest.NewRequest(http.MethodGet, "/convert?url=x", nil).WithContext(ctx)
		h.ServeHTTP(httptest.NewRecorder(), req)

		if conv.ctxErr != nil {
			t.Errorf("Convert ctx.Err() = %v, want nil", conv.ctxErr)
		}
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"empty url", md2codelab.ErrEmptyURL, http.StatusBadRequest, "provide a Markdown file URL"},
		{"bad prefix", fmt.Errorf("%w: x", md2codelab.ErrInvalidURLPrefix), http.StatusBadRequest, "must start with https://raw.githubusercontent.com/panhyuan"},
		{"not found", fmt.Errorf("%w: x", md2codelab.ErrFetchNotFound), http.StatusNotFound, "not found"},
		{"no steps", md2codelab.ErrEmptyDocument, http.StatusBadRequest, "## heading"},
		{"unreachable", fmt.Errorf("%w: dial tcp", md2codelab.ErrFetchFailed), http.StatusBadRequest, "Cannot reach"},
		{"persistence", fmt.Errorf("%w: disk full", md2codelab.ErrPersistence), http.StatusInternalServerError, "Conversion failed"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "Conversion failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newTestServer(t, &fakeConverter{convertErr: tt.err})
			rec := do(h, http.MethodGet, "/convert?url=x", "")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want to contain %q", rec.Body.String(), tt.wantBody)
			}
			if strings.Contains(rec.Body.String(), "disk full") {
				t.Error("internal error details should not leak")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestView
// ---------------------------------------------------------------------------

func TestView(t *testing.T) {
	t.Parallel()

	t.Run("serves stored html", func(t *testing.T) {
		t.Parallel()

		h := newTestServer(t, &fakeConverter{rec: testRecord})
		rec := do(h, http.MethodGet, "/view/abc123def456", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if rec.Body.String() != testRecord.HTML {
			t.Errorf("body = %q, want stored HTML", rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("Content-Type = %q", ct)
		}
	})

	t.Run("unknown id renders not found page", func(t *testing.T) {
		t.Parallel()

		h := newTestServer(t, &fakeConverter{rec: testRecord})
		rec := do(h, http.MethodGet, "/view/%3Cscript%3E", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "&lt;script&gt;") {
			t.Errorf("not found page should show the escaped id, got %q", body)
		}
		if strings.Contains(body, "<script>") {
			t.Error("id must be escaped")
		}
	})

	t.Run("store failure", func(t *testing.T) {
		t.Parallel()

		h := newTestServer(t, &fakeConverter{viewErr: md2codelab.ErrPersistence})
		if rec := do(h, http.MethodGet, "/view/x", ""); rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

// ---------------------------------------------------------------------------
// TestViews - Admin listing
// ---------------------------------------------------------------------------

func TestViews(t *testing.T) {
	t.Parallel()

	long := "https://raw.githubusercontent.com/panhyuan/blog/main/posts/2025/a-very-long-name.md"
	conv := &fakeConverter{list: []*md2codelab.Record{
		testRecord,
		{OriginalURL: long, ConvertedID: "fff000fff000", CreatedAt: testRecord.CreatedAt, AccessedAt: testRecord.AccessedAt},
	}}
	dates, err := dateutil.NewFormatter("iso", time.UTC)
	if err != nil {
		t.Fatalf("NewFormatter() error = %v", err)
	}
	h := newTestServer(t, conv, WithViewsLimit(7), WithDateFormatter(dates))

	rec := do(h, http.MethodGet, "/views", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()

	for _, want := range []string{
		`<strong>2</strong>`,
		`href="/view/abc123def456"`,
		`>Demo</a>`,
		`<code>fff000fff000</code>`,
		`>Untitled</a>`,
		long[:50] + "...",
		"2025-07-01",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if conv.listLimit != 7 {
		t.Errorf("List limit = %d, want 7", conv.listLimit)
	}
}

func TestViews_Error(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &fakeConverter{listErr: md2codelab.ErrPersistence})
	if rec := do(h, http.MethodGet, "/views", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestShortenURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 50, "short"},
		{strings.Repeat("a", 50), 50, strings.Repeat("a", 50)},
		{strings.Repeat("a", 51), 50, strings.Repeat("a", 50) + "..."},
		{"héllo wörld", 5, "héllo..."},
	}
	for _, tt := range tests {
		if got := shortenURL(tt.in, tt.n); got != tt.want {
			t.Errorf("shortenURL(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestHealth / TestCORS
// ---------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	t.Parallel()

	at := time.Date(2025, 7, 1, 12, 0, 0, 123e6, time.UTC)
	h := newTestServer(t, &fakeConverter{}, WithClock(func() time.Time { return at }))

	rec := do(h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("status = %q, want ok", got["status"])
	}
	if got["timestamp"] != "2025-07-01T12:00:00.123Z" {
		t.Errorf("timestamp = %q", got["timestamp"])
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	h := newTestServer(t, &fakeConverter{})

	t.Run("every response", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"/", "/health", "/view/missing", "/nope"} {
			rec := do(h, http.MethodGet, path, "")
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("%s: Allow-Origin = %q, want *", path, got)
			}
		}
	})

	t.Run("preflight", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodOptions, "/convert", nil)
		req.Header.Set("Origin", "https://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "content-type")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", rec.Code)
		}
		if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
			t.Errorf("Allow-Methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
		}
		if rec.Header().Get("Access-Control-Allow-Headers") != "content-type" {
			t.Errorf("Allow-Headers = %q", rec.Header().Get("Access-Control-Allow-Headers"))
		}
	})
}

// ---------------------------------------------------------------------------
// TestNew - Templates and options
// ---------------------------------------------------------------------------

type brokenLoader struct{ assets.AssetLoader }

func (brokenLoader) LoadTemplate(name string) (string, error) {
	if name == assets.ViewsTemplate {
		return "{{.Rows", nil
	}
	return assets.LoadTemplate(name)
}

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := New(&fakeConverter{}, WithAssets(brokenLoader{})); !errors.Is(err, ErrTemplateParse) {
		t.Errorf("New() error = %v, want ErrTemplateParse", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("New(nil) should panic")
		}
	}()
	_, _ = New(nil)
}

func TestRecoverPanics(t *testing.T) {
	t.Parallel()

	s, err := New(&fakeConverter{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h := s.recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// TestServe - Listener lifecycle
// ---------------------------------------------------------------------------

func TestServe_ShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	s, err := New(&fakeConverter{}, WithTimeouts(0, 0, time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestListenAndServe_AddressInUse(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	s, _ := New(&fakeConverter{})
	err = s.ListenAndServe(context.Background(), ln.Addr().String())
	if !errors.Is(err, ErrListen) {
		t.Errorf("ListenAndServe() error = %v, want ErrListen", err)
	}
}

// ---------------------------------------------------------------------------
// TestEndToEnd - Real service, store and fetcher
// ---------------------------------------------------------------------------

func TestEndToEnd(t *testing.T) {
	t.Parallel()

	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/post.md" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("---\ntitle: Live\n---\n## One\n![x](../img/a.png)\n## Two\nend\n"))
	}))
	defer source.Close()

	ctx := context.Background()
	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "c.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer st.Close()

	svc := md2codelab.NewService(fetch.New(source.URL), st, identity.NewGenerator(nil))
	s, err := New(svc, WithAllowedPrefix(source.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h := s.Handler()

	rec := do(h, http.MethodPost, "/convert", "url="+url.QueryEscape(source.URL+"/post.md"))
	if rec.Code != http.StatusFound {
		t.Fatalf("convert status = %d, body %q", rec.Code, rec.Body.String())
	}
	loc := rec.Header().Get("Location")

	again := do(h, http.MethodGet, "/convert?url="+url.QueryEscape(source.URL+"/post.md"), "")
	if again.Header().Get("Location") != loc {
		t.Errorf("cached redirect = %q, want %q", again.Header().Get("Location"), loc)
	}

	page := do(h, http.MethodGet, loc, "")
	if page.Code != http.StatusOK {
		t.Fatalf("view status = %d", page.Code)
	}
	for _, want := range []string{"<title>Live", `data-step="2"`, "https://aoco.tech/img/a.png"} {
		if !strings.Contains(page.Body.String(), want) {
			t.Errorf("page missing %q", want)
		}
	}

	missing := do(h, http.MethodGet, "/convert?url="+url.QueryEscape(source.URL+"/gone.md"), "")
	if missing.Code != http.StatusNotFound {
		t.Errorf("missing source status = %d, want 404", missing.Code)
	}

	list := do(h, http.MethodGet, "/views", "")
	if !strings.Contains(list.Body.String(), "Live") {
		t.Error("listing should include the conversion")
	}
}
