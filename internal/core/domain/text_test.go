package domain_test

import (
	"testing"

	"github.com/samirrijal/mapframe/internal/core/domain"
)

func TestIsLatinScript(t *testing.T) {
	cases := []struct {
		text  string
		latin bool
	}{
		{"Paris", true},
		{"São Paulo", true},
		{"Wrocław", true},
		{"東京", false},
		{"القاهرة", false},
		{"กรุงเทพมหานคร", false},
		{"", true},
		{"42 - 7!", true},
		// 5 of 6 letters Latin, just over the 80% threshold.
		{"Tokyo東", true},
		// 2 of 3 letters Latin, under it.
		{"ab東", false},
	}
	for _, tc := range cases {
		if got := domain.IsLatinScript(tc.text); got != tc.latin {
			t.Errorf("IsLatinScript(%q) = %v, expected %v", tc.text, got, tc.latin)
		}
	}
}

func TestFormatTitle(t *testing.T) {
	cases := []struct {
		city string
		want string
	}{
		{"Paris", "P  A  R  I  S"},
		{"bilbao", "B  I  L  B  A  O"},
		{"東京", "東京"},
		{"القاهرة", "القاهرة"},
	}
	for _, tc := range cases {
		if got := domain.FormatTitle(tc.city); got != tc.want {
			t.Errorf("FormatTitle(%q) = %q, expected %q", tc.city, got, tc.want)
		}
	}
}

func TestTitleSizePt(t *testing.T) {
	cases := []struct {
		city  string
		scale float64
		want  float64
	}{
		{"Paris", 1, 60},
		{"Paris", 0.5, 30},
		// Exactly ten runes keeps the base size.
		{"Strasbourg", 1, 60},
		// Twenty runes halve it.
		{"San Pedro de la Roca", 1, 30},
		{"San Pedro de la Roca", 0.5, 15},
	}
	for _, tc := range cases {
		if got := domain.TitleSizePt(tc.city, tc.scale); got != tc.want {
			t.Errorf("TitleSizePt(%q, %v) = %v, expected %v", tc.city, tc.scale, got, tc.want)
		}
	}
}

func TestTitleSizePtFloor(t *testing.T) {
	long := make([]byte, 100)
	for i := range long {
		long[i] = 'a'
	}
	// 60*10/100 would be 6pt; the floor keeps it readable.
	if got := domain.TitleSizePt(string(long), 1); got != 10 {
		t.Errorf("100-rune title at scale 1 = %vpt, expected the 10pt floor", got)
	}
	if got := domain.TitleSizePt(string(long), 2); got != 20 {
		t.Errorf("100-rune title at scale 2 = %vpt, expected the floor to scale too", got)
	}
}

func TestFormatCoordinates(t *testing.T) {
	cases := []struct {
		point domain.GeoPoint
		want  string
	}{
		{domain.GeoPoint{Lat: 48.8566, Lon: 2.3522}, "48.8566° N / 2.3522° E"},
		{domain.GeoPoint{Lat: -33.8688, Lon: 151.2093}, "33.8688° S / 151.2093° E"},
		{domain.GeoPoint{Lat: 40.7128, Lon: -74.006}, "40.7128° N / 74.0060° W"},
		{domain.GeoPoint{Lat: -34.6037, Lon: -58.3816}, "34.6037° S / 58.3816° W"},
	}
	for _, tc := range cases {
		if got := domain.FormatCoordinates(tc.point); got != tc.want {
			t.Errorf("FormatCoordinates(%v) = %q, expected %q", tc.point, got, tc.want)
		}
	}
}

func TestTextModeValid(t *testing.T) {
	for _, m := range domain.TextModes() {
		if !m.Valid() {
			t.Errorf("mode %q should be valid", m)
		}
	}
	for _, m := range []domain.TextMode{"", "everything", "no_title"} {
		if m.Valid() {
			t.Errorf("mode %q should be invalid", m)
		}
	}
}
