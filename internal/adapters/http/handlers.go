package http

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapframe/internal/core/domain"
	"github.com/samirrijal/mapframe/internal/core/usecases"
)

// posterPayload is the POST /v1/posters request body. Lat and Lon are
// accepted flat and folded into the domain request's center point; Async
// switches from synchronous rendering to a queued job.
type posterPayload struct {
	domain.PosterRequest
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
	Async bool     `json:"async,omitempty"`
}

// posterResponse is a render result plus the public URL of the file.
type posterResponse struct {
	domain.RenderResult
	URL string `json:"url"`
}

// fileURL maps an on-disk poster path to its /files URL.
func fileURL(path string) string {
	if path == "" {
		return ""
	}
	return "/files/" + filepath.Base(path)
}

// CreatePosterHandler renders a poster synchronously, or enqueues a render
// job when the payload asks for async.
func CreatePosterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payload posterPayload
		if err := c.BodyParser(&payload); err != nil {
			return errBadRequest(c, "invalid request body: "+err.Error())
		}

		req := payload.PosterRequest
		if payload.Lat != nil && payload.Lon != nil {
			req.Point = &domain.GeoPoint{Lat: *payload.Lat, Lon: *payload.Lon}
		}

		// Reject impossible requests before spending anything on them.
		req.ApplyDefaults()
		if err := req.Validate(); err != nil {
			return errUnprocessable(c, err.Error())
		}
		if _, err := deps.Themes.Load(req.Theme); err != nil {
			return errUnprocessable(c, err.Error())
		}

		if payload.Async {
			job, err := deps.Jobs.Enqueue(c.UserContext(), &req)
			if err != nil {
				if errors.Is(err, usecases.ErrQueueDisabled) {
					return errUpstream(c, "async rendering is not available: no job queue configured")
				}
				return errInternal(c, err.Error())
			}
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"job_id":     job.ID,
				"status_url": "/v1/jobs/" + job.ID,
			})
		}

		log := LoggerFromCtx(c.UserContext())
		log.Info("synchronous render", "city", req.City, "country", req.Country, "theme", req.Theme)

		result, err := deps.Posters.Render(c.UserContext(), &req, nil)
		if err != nil {
			return renderError(c, err)
		}
		return c.JSON(posterResponse{RenderResult: *result, URL: fileURL(result.File)})
	}
}

// ListThemesHandler returns every available theme with its full palette.
func ListThemesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		themes, err := loadAllThemes(deps)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{
			"themes": themes,
			"count":  len(themes),
		})
	}
}

// GetThemeHandler returns a single theme by name.
func GetThemeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("name")
		if name == "" {
			return errBadRequest(c, "theme name is required")
		}
		theme, err := deps.Themes.Load(name)
		if err != nil {
			return errNotFound(c, err.Error())
		}
		return c.JSON(theme)
	}
}

// GeocodeHandler resolves a place name to coordinates.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city := c.Query("city")
		country := c.Query("country")
		if city == "" || country == "" {
			return errBadRequest(c, "city and country query parameters are required")
		}

		point, err := deps.Geocoder.Resolve(c.UserContext(), city, country)
		if err != nil {
			var notFound *domain.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, notFound.Error())
			}
			return errUpstream(c, err.Error())
		}

		return c.JSON(fiber.Map{
			"city":    city,
			"country": country,
			"lat":     point.Lat,
			"lon":     point.Lon,
		})
	}
}

// ListJobsHandler returns recent render jobs, newest first.
func ListJobsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		jobs, total, err := deps.Jobs.Recent(c.UserContext(), offset, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: jobs, Pagination: pg})
	}
}

// GetJobHandler returns the status of a render job.
func GetJobHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "job id is required")
		}

		status, err := deps.Jobs.Status(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, domain.ErrJobNotFound) {
				return errNotFound(c, err.Error())
			}
			return errInternal(c, err.Error())
		}

		resp := fiber.Map{
			"id":         status.ID,
			"state":      status.State,
			"updated_at": status.UpdatedAt,
		}
		if status.Stage != "" {
			resp["stage"] = status.Stage
		}
		if status.Error != "" {
			resp["error"] = status.Error
		}
		if status.File != "" {
			resp["file"] = status.File
			resp["url"] = fileURL(status.File)
		}
		return c.JSON(resp)
	}
}

// JobFileHandler streams the rendered poster of a finished job.
func JobFileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "job id is required")
		}

		status, err := deps.Jobs.Status(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, domain.ErrJobNotFound) {
				return errNotFound(c, err.Error())
			}
			return errInternal(c, err.Error())
		}
		if status.State != domain.JobDone || status.File == "" {
			return errNotFound(c, fmt.Sprintf("job %s has no rendered file yet (state %s)", id, status.State))
		}

		if err := c.SendFile(status.File); err != nil {
			return errNotFound(c, "rendered file is no longer on disk")
		}
		return nil
	}
}
