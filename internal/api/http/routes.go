package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/race-weather/internal/racecontrol"
	"github.com/i474232898/race-weather/internal/route"
	"github.com/i474232898/race-weather/internal/weather"
)

var validate = validator.New()

// Dashboard is the controller surface the handlers call.
type Dashboard interface {
	Point(ctx context.Context, loc weather.Location) racecontrol.PointReport
	Rally(ctx context.Context, points []route.RoutePoint, stepKm float64) (racecontrol.RallyReport, error)
	StageScan(ctx context.Context, points []route.RoutePoint, stepKm float64) (racecontrol.ScanReport, error)
}

// CachePurger drops cached forecasts.
type CachePurger interface {
	Purge(ctx context.Context) error
}

// Deps bundles what the routes need. Geocoder may be nil.
type Deps struct {
	Dashboard     Dashboard
	Cache         CachePurger
	Geocoder      weather.Geocoder
	Home          weather.Location
	DefaultStepKm float64
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/point", func(c *fiber.Ctx) error {
		loc, err := resolveLocation(c, deps)
		if err != nil {
			return err
		}
		return c.JSON(deps.Dashboard.Point(c.UserContext(), loc))
	})

	v1.Post("/rally", func(c *fiber.Ctx) error {
		points, stepKm, err := parseRouteUpload(c, deps.DefaultStepKm)
		if err != nil {
			return err
		}

		report, err := deps.Dashboard.Rally(c.UserContext(), points, stepKm)
		if err != nil {
			return mapRouteError(err)
		}
		return c.JSON(report)
	})

	v1.Post("/stage-scan", func(c *fiber.Ctx) error {
		points, stepKm, err := parseRouteUpload(c, deps.DefaultStepKm)
		if err != nil {
			return err
		}

		report, err := deps.Dashboard.StageScan(c.UserContext(), points, stepKm)
		if err != nil {
			return mapRouteError(err)
		}
		return c.JSON(report)
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		if deps.Cache == nil {
			return c.JSON(fiber.Map{"status": "no cache configured"})
		}
		if err := deps.Cache.Purge(c.UserContext()); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to purge forecast cache")
		}
		return c.JSON(fiber.Map{"status": "purged"})
	})
}

// pointQuery holds coordinate query parameters.
type pointQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

// resolveLocation picks coordinates, then city/country, then the home point.
func resolveLocation(c *fiber.Ctx, deps Deps) (weather.Location, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	city, country := c.Query("city"), c.Query("country")

	switch {
	case latStr != "" || lonStr != "":
		if latStr == "" || lonStr == "" {
			return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "lat and lon must be given together")
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "invalid lat")
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "invalid lon")
		}
		q := pointQuery{Lat: lat, Lon: lon}
		if err := validate.Struct(q); err != nil {
			return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return weather.Location{Lat: q.Lat, Lon: q.Lon}, nil

	case city != "":
		if deps.Geocoder == nil {
			return weather.Location{}, fiber.NewError(fiber.StatusBadRequest, "city lookup is not configured; use lat and lon")
		}
		loc, err := deps.Geocoder.Geocode(c.UserContext(), city, country)
		if err != nil {
			return weather.Location{}, fiber.NewError(fiber.StatusBadGateway, "failed to resolve city")
		}
		return loc, nil

	default:
		return deps.Home, nil
	}
}

// routeForm holds the non-file fields of a route upload.
type routeForm struct {
	StepKm float64 `validate:"gt=0"`
}

// parseRouteUpload reads the multipart "file" (GPX) and "step_km" fields.
func parseRouteUpload(c *fiber.Ctx, defaultStep float64) ([]route.RoutePoint, float64, error) {
	form := routeForm{StepKm: defaultStep}
	if s := strings.TrimSpace(c.FormValue("step_km")); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, 0, fiber.NewError(fiber.StatusBadRequest, "invalid step_km")
		}
		form.StepKm = v
	}
	if err := validate.Struct(form); err != nil {
		return nil, 0, fiber.NewError(fiber.StatusBadRequest, route.ErrInvalidStep.Error())
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return nil, 0, fiber.NewError(fiber.StatusBadRequest, "a GPX file upload named \"file\" is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, 0, fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}
	defer f.Close()

	points, err := route.ParseGPX(f)
	if err != nil {
		return nil, 0, mapRouteError(err)
	}
	return points, form.StepKm, nil
}

func mapRouteError(err error) error {
	switch {
	case errors.Is(err, route.ErrParse), errors.Is(err, route.ErrInvalidStep):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to build route report")
	}
}
