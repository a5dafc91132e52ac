package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// GoogleFontsEndpoint is the CSS API that lists download URLs per weight.
const GoogleFontsEndpoint = "https://fonts.googleapis.com/css2"

// weightFiles maps CSS font-weight values to the face file names LoadFonts
// probes for.
var weightFiles = map[string]string{
	"300": "light",
	"400": "regular",
	"700": "bold",
}

// faceBlock matches one @font-face block of the CSS response. The API
// serves TTF source URLs to clients without browser user agents, which is
// exactly what the default Go client sends.
var faceBlock = regexp.MustCompile(`font-weight:\s*(\d+);[^}]*src:\s*url\(([^)]+)\)`)

// FontDownloader fetches a Google Fonts family and caches its TTF files
// under a local fonts directory.
type FontDownloader struct {
	endpoint string
	session  *http.Client
}

// NewFontDownloader builds a downloader against endpoint, normally
// GoogleFontsEndpoint.
func NewFontDownloader(endpoint string, timeout time.Duration) *FontDownloader {
	return &FontDownloader{
		endpoint: strings.TrimRight(endpoint, "/"),
		session:  &http.Client{Timeout: timeout},
	}
}

// FetchFamily downloads the light, regular, and bold cuts of family into a
// per-family subdirectory of dir and returns that subdirectory, ready to be
// passed to LoadFonts. Files already on disk are not fetched again, so a
// family costs one CSS request plus one download per missing weight.
// Families that lack a weight simply leave that file absent and LoadFonts
// falls back to an embedded cut.
func (d *FontDownloader) FetchFamily(ctx context.Context, family, dir string) (string, error) {
	familyDir := filepath.Join(dir, familySlug(family))
	if hasAllFaces(familyDir) {
		return familyDir, nil
	}
	if err := os.MkdirAll(familyDir, 0o755); err != nil {
		return "", fmt.Errorf("creating fonts directory: %w", err)
	}

	css, err := d.fetchCSS(ctx, family)
	if err != nil {
		return "", err
	}

	matches := faceBlock.FindAllStringSubmatch(css, -1)
	if len(matches) == 0 {
		return "", fmt.Errorf("font family %q not found on google fonts", family)
	}

	for _, m := range matches {
		name, ok := weightFiles[m[1]]
		if !ok {
			continue
		}
		path := filepath.Join(familyDir, name+".ttf")
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := d.download(ctx, m[2], path); err != nil {
			return "", fmt.Errorf("downloading %s weight of %q: %w", name, family, err)
		}
		slog.Info("downloaded font", "family", family, "weight", name)
	}
	return familyDir, nil
}

func (d *FontDownloader) fetchCSS(ctx context.Context, family string) (string, error) {
	query := url.Values{}
	query.Set("family", family+":wght@300;400;700")
	// css2 expects '+' for spaces inside the family name, not '%20'
	rawQuery := strings.ReplaceAll(query.Encode(), "%20", "+")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint+"?"+rawQuery, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.session.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching font css: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("font css request returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading font css: %w", err)
	}
	return string(body), nil
}

func (d *FontDownloader) download(ctx context.Context, fontURL, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fontURL, nil)
	if err != nil {
		return err
	}
	resp, err := d.session.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("font download returned status %d", resp.StatusCode)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func hasAllFaces(dir string) bool {
	for _, name := range weightFiles {
		if _, err := os.Stat(filepath.Join(dir, name+".ttf")); err != nil {
			return false
		}
	}
	return true
}

func familySlug(family string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(family)), " ", "-")
}
