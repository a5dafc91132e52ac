package render

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/image/font/gofont/goregular"
)

func TestFetchFamilyDownloadsAllWeights(t *testing.T) {
	var requests int64
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		switch {
		case strings.HasPrefix(r.URL.Path, "/css2"):
			if got := r.URL.Query().Get("family"); got != "Test Sans:wght@300;400;700" {
				t.Errorf("family query = %q", got)
			}
			var css strings.Builder
			for _, weight := range []string{"300", "400", "700"} {
				fmt.Fprintf(&css, "@font-face {\n  font-family: 'Test Sans';\n  font-style: normal;\n  font-weight: %s;\n  src: url(%s/font/%s.ttf) format('truetype');\n}\n", weight, srv.URL, weight)
			}
			w.Header().Set("Content-Type", "text/css")
			w.Write([]byte(css.String()))
		case strings.HasPrefix(r.URL.Path, "/font/"):
			w.Write(goregular.TTF)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := NewFontDownloader(srv.URL+"/css2", 5*time.Second)

	familyDir, err := d.FetchFamily(context.Background(), "Test Sans", dir)
	if err != nil {
		t.Fatalf("FetchFamily: %v", err)
	}
	if familyDir != filepath.Join(dir, "test-sans") {
		t.Errorf("family dir = %q", familyDir)
	}
	for _, name := range []string{"light.ttf", "regular.ttf", "bold.ttf"} {
		if _, err := os.Stat(filepath.Join(familyDir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	if _, err := LoadFonts(familyDir); err != nil {
		t.Errorf("downloaded family does not load: %v", err)
	}

	// Everything on disk now, so a second fetch must not hit the network.
	before := atomic.LoadInt64(&requests)
	if _, err := d.FetchFamily(context.Background(), "Test Sans", dir); err != nil {
		t.Fatalf("cached FetchFamily: %v", err)
	}
	if after := atomic.LoadInt64(&requests); after != before {
		t.Errorf("cached fetch made %d extra requests", after-before)
	}
}

func TestFetchFamilyPartialWeights(t *testing.T) {
	// Families without a light cut only list 400 and 700; the missing file
	// stays absent and LoadFonts falls back to an embedded weight.
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/css2") {
			fmt.Fprintf(w, "@font-face { font-weight: 400; src: url(%s/f.ttf) format('truetype'); }\n", srv.URL)
			fmt.Fprintf(w, "@font-face { font-weight: 700; src: url(%s/f.ttf) format('truetype'); }\n", srv.URL)
			return
		}
		w.Write(goregular.TTF)
	}))
	defer srv.Close()

	d := NewFontDownloader(srv.URL+"/css2", 5*time.Second)
	familyDir, err := d.FetchFamily(context.Background(), "No Light", t.TempDir())
	if err != nil {
		t.Fatalf("FetchFamily: %v", err)
	}
	if _, err := os.Stat(filepath.Join(familyDir, "light.ttf")); !os.IsNotExist(err) {
		t.Error("light.ttf should be absent for a family without a 300 weight")
	}
	if _, err := LoadFonts(familyDir); err != nil {
		t.Errorf("partial family does not load: %v", err)
	}
}

func TestFetchFamilyUnknownFamily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("/* no matching fonts */"))
	}))
	defer srv.Close()

	d := NewFontDownloader(srv.URL+"/css2", 5*time.Second)
	_, err := d.FetchFamily(context.Background(), "Nope Sans", t.TempDir())
	if err == nil {
		t.Fatal("expected error for unknown family")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("unexpected error: %v", err)
	}
}
