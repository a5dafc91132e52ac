package domain

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TextMode selects which typography elements a poster carries.
type TextMode string

const (
	TextKeepAll       TextMode = "keep_all"
	TextClearAll      TextMode = "clear_all"
	TextNoCoords      TextMode = "no_coords"
	TextNoCountry     TextMode = "no_country"
	TextNoCityCountry TextMode = "no_city_country"
)

// TextModes lists every valid mode, in the order shown to users.
func TextModes() []TextMode {
	return []TextMode{TextKeepAll, TextClearAll, TextNoCoords, TextNoCountry, TextNoCityCountry}
}

// Valid reports whether m is a known text mode.
func (m TextMode) Valid() bool {
	switch m {
	case TextKeepAll, TextClearAll, TextNoCoords, TextNoCountry, TextNoCityCountry:
		return true
	}
	return false
}

// IsLatinScript reports whether text is primarily Latin script, which decides
// whether the city title gets uppercased letter-spacing. A string counts as
// Latin when more than 80% of its alphabetic runes fall below U+0250 (Basic
// Latin through Latin Extended-B). Strings without alphabetic runes default
// to Latin so numbers and symbols keep the spaced treatment.
func IsLatinScript(text string) bool {
	var latin, alpha int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		alpha++
		if r < 0x250 {
			latin++
		}
	}
	if alpha == 0 {
		return true
	}
	return float64(latin)/float64(alpha) > 0.8
}

// FormatTitle renders a city name for the poster title. Latin-script names
// become uppercase with two spaces between runes ("P  A  R  I  S");
// non-Latin names are returned verbatim since spacing breaks connected
// scripts and CJK already reads well unspaced.
func FormatTitle(city string) string {
	if !IsLatinScript(city) {
		return city
	}
	upper := strings.ToUpper(city)
	runes := make([]string, 0, utf8.RuneCountInString(upper))
	for _, r := range upper {
		runes = append(runes, string(r))
	}
	return strings.Join(runes, "  ")
}

// TitleSizePt returns the main title size in points for a given city name
// and scale factor. Names longer than 10 runes shrink by 10/length so long
// names stay inside the poster, floored at a minimum readable size.
func TitleSizePt(city string, scale float64) float64 {
	const base = 60.0
	size := base * scale
	if n := utf8.RuneCountInString(city); n > 10 {
		size = math.Max(size*10/float64(n), 10*scale)
	}
	return size
}

// FormatCoordinates renders the center point as a poster caption, for
// example "48.8566° N / 2.3522° E".
func FormatCoordinates(p GeoPoint) string {
	latHemi := "N"
	if p.Lat < 0 {
		latHemi = "S"
	}
	lonHemi := "E"
	if p.Lon < 0 {
		lonHemi = "W"
	}
	return fmt.Sprintf("%.4f° %s / %.4f° %s", math.Abs(p.Lat), latHemi, math.Abs(p.Lon), lonHemi)
}
