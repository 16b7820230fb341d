package fetch

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/parlance/core"
)

func testFetcher(opts ...Option) *Fetcher {
	base := []Option{
		WithRetries(3, time.Millisecond),
	}
	return NewFetcher(append(base, opts...)...)
}

func page(title, body string) string {
	return fmt.Sprintf("<html><head><title>%s</title></head><body>%s</body></html>", title, body)
}

func TestFetch_EmptyReference(t *testing.T) {
	f := testFetcher()
	_, err := f.Fetch(context.Background(), core.SourceKindURL, "")
	assert.ErrorIs(t, err, ErrEmptyReference)
}

func TestFetch_UnsupportedKind(t *testing.T) {
	f := testFetcher()
	_, err := f.Fetch(context.Background(), core.SourceKind("carrier-pigeon"), "http://example.com")
	assert.ErrorIs(t, err, ErrUnsupportedReference)
}

func TestCrawl_SingleSite(t *testing.T) {
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("Home", `intro text <a href="/about">about</a> <a href="/contact">contact</a>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("About", `about text <a href="/team">team</a>`))
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("Contact", "contact text"))
	})
	mux.HandleFunc("/team", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("Team", "team text"))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	f := testFetcher()
	f.minDocumentBytes = 0

	result, err := f.Fetch(context.Background(), core.SourceKindURL, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, core.SourceKindURL, result.Kind)
	require.Len(t, result.Pages, 4)
	assert.Equal(t, "Home", result.Pages[0].Title)
	assert.True(t, result.Pages[0].HTML)
}

func TestCrawl_DepthLimit(t *testing.T) {
	mux := http.NewServeMux()
	// chain /0 -> /1 -> /2 -> ...
	for i := 0; i < 6; i++ {
		i := i
		mux.HandleFunc(fmt.Sprintf("/%d", i), func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, page(fmt.Sprintf("Page %d", i),
				fmt.Sprintf(`text <a href="/%d">next</a>`, i+1)))
		})
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := testFetcher(WithMaxDepth(2))
	f.minDocumentBytes = 0

	result, err := f.Fetch(context.Background(), core.SourceKindURL, srv.URL+"/0")
	require.NoError(t, err)
	// depth 0, 1, 2 only
	assert.Len(t, result.Pages, 3)
}

func TestCrawl_SameHostOnly(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("Home", `text <a href="https://elsewhere.example.com/x">external</a>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := testFetcher()
	f.minDocumentBytes = 0

	result, err := f.Fetch(context.Background(), core.SourceKindURL, srv.URL)
	require.NoError(t, err)
	assert.Len(t, result.Pages, 1)
}

func TestCrawl_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, page("Home", "finally up"))
	}))
	defer srv.Close()

	f := testFetcher()
	f.minDocumentBytes = 0

	result, err := f.Fetch(context.Background(), core.SourceKindURL, srv.URL)
	require.NoError(t, err)
	assert.Len(t, result.Pages, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCrawl_PermanentFailureNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := testFetcher()

	_, err := f.Fetch(context.Background(), core.SourceKindURL, srv.URL)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCrawl_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := testFetcher()

	_, err := f.Fetch(context.Background(), core.SourceKindURL, srv.URL)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(3), calls.Load())
}

type stubRenderer struct {
	html  string
	err   error
	calls int
}

func (s *stubRenderer) Render(ctx context.Context, url string) (string, error) {
	s.calls++
	return s.html, s.err
}

func TestCrawl_RendererFallbackOnThinPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html></html>") // JS shell
	}))
	defer srv.Close()

	renderer := &stubRenderer{html: page("Rendered", "full client-side content")}
	f := testFetcher(WithRenderer(renderer))

	result, err := f.Fetch(context.Background(), core.SourceKindURL, srv.URL)
	require.NoError(t, err)
	require.Len(t, result.Pages, 1)
	assert.Equal(t, "Rendered", result.Pages[0].Title)
	assert.Equal(t, 1, renderer.calls)
}

func TestCrawl_ThinPageWithoutRendererStillUsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("Tiny", "x"))
	}))
	defer srv.Close()

	f := testFetcher()

	result, err := f.Fetch(context.Background(), core.SourceKindURL, srv.URL)
	require.NoError(t, err)
	require.Len(t, result.Pages, 1)
	assert.Equal(t, "Tiny", result.Pages[0].Title)
}

func TestCrawl_RendererFailureFallsBackToHTTPBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page("Plain", "thin"))
	}))
	defer srv.Close()

	renderer := &stubRenderer{err: errors.New("chrome crashed")}
	f := testFetcher(WithRenderer(renderer))

	result, err := f.Fetch(context.Background(), core.SourceKindURL, srv.URL)
	require.NoError(t, err)
	require.Len(t, result.Pages, 1)
	assert.Equal(t, "Plain", result.Pages[0].Title)
}

func TestVideoID(t *testing.T) {
	tests := []struct {
		name      string
		reference string
		want      string
		wantErr   bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"shorts", "https://youtube.com/shorts/abc123", "abc123", false},
		{"embed", "https://www.youtube.com/embed/abc123", "abc123", false},
		{"not youtube", "https://vimeo.com/12345", "", true},
		{"no id", "https://www.youtube.com/watch", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := youtubeVideoID(tt.reference)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedReference)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchTranscript_ParsesTimedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<transcript><text start="0" dur="2">hello there</text><text start="2" dur="2">general kenobi</text></transcript>`)
	}))
	defer srv.Close()

	f := testFetcher(WithHTTPClient(srv.Client()))
	body, err := f.get(context.Background(), srv.URL)
	require.NoError(t, err)

	var tt timedText
	require.NoError(t, xml.Unmarshal([]byte(body), &tt))
	assert.Len(t, tt.Texts, 2)
}

func TestFetchTranscript_EmptyIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "")
	}))
	defer srv.Close()

	f := testFetcher()
	// point the transcript fetch at the stub by calling it directly with
	// a rewritten client transport
	f.client = &http.Client{Transport: rewriteTransport{target: srv.URL}}

	_, err := f.fetchTranscript(context.Background(), "abc123")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTranscript)
	assert.False(t, IsTransient(err))
}

// rewriteTransport sends every request to the test server regardless of host.
type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	redirected, err := http.NewRequestWithContext(req.Context(), req.Method, rt.target+"?"+req.URL.RawQuery, nil)
	if err != nil {
		return nil, err
	}
	return http.DefaultTransport.RoundTrip(redirected)
}
