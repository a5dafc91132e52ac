package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapframe/internal/core/ports"
	"github.com/samirrijal/mapframe/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Posters  *usecases.PosterService
	Jobs     *usecases.JobService
	Themes   ports.ThemeSource
	Geocoder ports.Geocoder
	Cache    ports.CacheStore
	NATS     *nats.Conn

	// OutputDir is where rendered posters land; served under /files.
	OutputDir string
}
