// Package render draws composed poster scenes with the canvas vector
// library and writes them out as PNG, SVG, or PDF.
package render

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

// faceFiles maps poster face roles to the file names probed inside a fonts
// directory. The Google Fonts downloader writes files under these names so
// a downloaded family is picked up without extra configuration.
var faceFiles = map[domain.FontFace]string{
	domain.FaceBold:    "bold",
	domain.FaceRegular: "regular",
	domain.FaceLight:   "light",
}

// FontSet resolves the poster faces (bold title, regular coordinates, light
// subtitle) against a single loaded font family.
type FontSet struct {
	family *canvas.FontFamily
	styles map[domain.FontFace]canvas.FontStyle
}

// LoadFonts builds a font set from dir, falling back to the embedded Go
// fonts for any face the directory does not provide. An empty dir yields
// the embedded set. The Go collection has no light cut, so a missing
// light.ttf falls back to the regular weight.
func LoadFonts(dir string) (*FontSet, error) {
	family := canvas.NewFontFamily("poster")
	if err := family.LoadFont(goregular.TTF, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("loading embedded regular font: %w", err)
	}
	if err := family.LoadFont(gobold.TTF, 0, canvas.FontBold); err != nil {
		return nil, fmt.Errorf("loading embedded bold font: %w", err)
	}

	set := &FontSet{
		family: family,
		styles: map[domain.FontFace]canvas.FontStyle{
			domain.FaceBold:    canvas.FontBold,
			domain.FaceRegular: canvas.FontRegular,
			domain.FaceLight:   canvas.FontRegular,
		},
	}
	if dir == "" {
		return set, nil
	}

	for face, name := range faceFiles {
		b, ok, err := readFaceFile(dir, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		style := faceStyle(face)
		if err := family.LoadFont(b, 0, style); err != nil {
			return nil, fmt.Errorf("loading %s font from %s: %w", name, dir, err)
		}
		set.styles[face] = style
	}
	return set, nil
}

// Face returns a sized, colored face for a poster role. Unknown roles draw
// with the regular face rather than failing mid-render.
func (s *FontSet) Face(face domain.FontFace, sizePt float64, col color.Color) *canvas.FontFace {
	style, ok := s.styles[face]
	if !ok {
		style = canvas.FontRegular
	}
	return s.family.Face(sizePt, col, style, canvas.FontNormal)
}

func faceStyle(face domain.FontFace) canvas.FontStyle {
	switch face {
	case domain.FaceBold:
		return canvas.FontBold
	case domain.FaceLight:
		return canvas.FontLight
	default:
		return canvas.FontRegular
	}
}

func readFaceFile(dir, name string) ([]byte, bool, error) {
	for _, ext := range []string{".ttf", ".otf"} {
		path := filepath.Join(dir, name+ext)
		b, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("reading font %s: %w", path, err)
		}
		return b, true, nil
	}
	return nil, false, nil
}
