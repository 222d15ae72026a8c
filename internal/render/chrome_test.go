package render

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireChrome(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}
	for _, name := range []string{"headless-shell", "chromium", "chromium-browser", "google-chrome", "google-chrome-stable"} {
		if _, err := exec.LookPath(name); err == nil {
			return
		}
	}
	t.Skip("no Chrome binary on PATH")
}

func fixtureServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/style.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		fmt.Fprint(w, "p { color: red; }")
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html><html><head><link rel="stylesheet" href="/style.css"></head>
<body><p id="static">hello</p>
<script>const p = document.createElement('p'); p.id = 'dynamic'; p.textContent = 'rendered'; document.body.appendChild(p);</script>
</body></html>`)
	})
	mux.HandleFunc("/frame", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html><html><body><p>embedded</p></body></html>`)
	})
	mux.HandleFunc("/framed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html><html><head></head>
<body><p id="outer">outer</p>
<iframe src="/frame"></iframe>
<iframe src="/frame?second=1"></iframe>
</body></html>`)
	})
	return httptest.NewServer(mux)
}

func TestChromeLoadAndCapture(t *testing.T) {
	requireChrome(t)

	srv := fixtureServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := NewChrome(ctx, Options{Headless: true, Width: 1280, Height: 900, UserAgent: "sitemirror-test"})
	require.NoError(t, err)
	defer c.Close()

	p, err := c.Load(srv.URL+"/page", 20*time.Second)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Wait(10*time.Millisecond))

	markup, styles, err := p.Capture()
	require.NoError(t, err)

	assert.Contains(t, markup, "<!DOCTYPE html>")
	assert.Contains(t, markup, `id="dynamic"`)
	assert.Contains(t, styles, "color: red")
}

func TestChromeLoadPageWithIframes(t *testing.T) {
	requireChrome(t)

	srv := fixtureServer()
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := NewChrome(ctx, Options{Headless: true})
	require.NoError(t, err)
	defer c.Close()

	const timeout = 20 * time.Second
	start := time.Now()
	p, err := c.Load(srv.URL+"/framed", timeout)
	elapsed := time.Since(start)
	require.NoError(t, err, "frame lifecycle events must not hide the page's networkIdle")
	defer p.Close()

	assert.Less(t, elapsed, timeout/2)

	markup, _, err := p.Capture()
	require.NoError(t, err)
	assert.Contains(t, markup, `id="outer"`)
}

func TestChromeLoadFailureStillCapturable(t *testing.T) {
	requireChrome(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	c, err := NewChrome(ctx, Options{Headless: true, CaptureTimeout: 10 * time.Second})
	require.NoError(t, err)
	defer c.Close()

	// Nothing listens on port 1.
	p, err := c.Load("http://127.0.0.1:1/", 5*time.Second)
	assert.Error(t, err)
	require.NotNil(t, p)
	defer p.Close()

	_, _, err = p.Capture()
	assert.NoError(t, err)
}
