package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rafael/cbenef/internal/extract"
	"github.com/rafael/cbenef/internal/service"
)

// Server exposes the benefit library over HTTP.
type Server struct {
	Library *service.Library
	Factory *extract.Factory
	Echo    *echo.Echo
}

func NewServer(library *service.Library, factory *extract.Factory) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s := &Server{Library: library, Factory: factory, Echo: e}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/benefits", s.handleSearchBenefits)
	api.GET("/benefits/:fullCode", s.handleGetBenefit)
	api.GET("/states", s.handleGetStates)
	api.GET("/states/:state", s.handleGetStateInfo)
	api.POST("/extract", s.handleExtractAll)
	api.POST("/extract/:state", s.handleExtractState)
	api.GET("/cache/stats", s.handleCacheStats)
	api.DELETE("/cache", s.handleClearCache)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// handleSearchBenefits filters the combined record set. Query parameters:
// state, code, description (substring), activeOnly (default true).
func (s *Server) handleSearchBenefits(c echo.Context) error {
	criteria := service.SearchCriteria{
		StateCode:   strings.TrimSpace(c.QueryParam("state")),
		Code:        strings.TrimSpace(c.QueryParam("code")),
		Description: strings.TrimSpace(c.QueryParam("description")),
		ActiveOnly:  !strings.EqualFold(c.QueryParam("activeOnly"), "false"),
	}

	records := s.Library.SearchBenefits(c.Request().Context(), criteria)
	return c.JSON(http.StatusOK, map[string]any{
		"count":    len(records),
		"benefits": records,
	})
}

func (s *Server) handleGetBenefit(c echo.Context) error {
	fullCode := strings.TrimSpace(c.Param("fullCode"))

	record := s.Library.FindBenefitByCode(c.Request().Context(), fullCode)
	if record == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "benefit not found"})
	}
	return c.JSON(http.StatusOK, record)
}

func (s *Server) handleGetStates(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"states": s.Library.GetAvailableStates(),
	})
}

func (s *Server) handleGetStateInfo(c echo.Context) error {
	state := c.Param("state")
	info := s.Factory.ExtractorInfo(state)
	if info == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown state"})
	}
	return c.JSON(http.StatusOK, info)
}

func (s *Server) handleExtractAll(c echo.Context) error {
	useCache := !strings.EqualFold(c.QueryParam("useCache"), "false")
	results := s.Library.ExtractAllResults(c.Request().Context(), useCache)
	return c.JSON(http.StatusOK, map[string]any{
		"count":   len(results),
		"results": results,
	})
}

func (s *Server) handleExtractState(c echo.Context) error {
	state := c.Param("state")
	useCache := !strings.EqualFold(c.QueryParam("useCache"), "false")

	result := s.Library.ExtractResultByState(c.Request().Context(), state, useCache)
	if result == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown or disabled state"})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleCacheStats(c echo.Context) error {
	stats, err := s.Library.GetCacheStats()
	if err != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleClearCache(c echo.Context) error {
	if err := s.Library.ClearCache(); err != nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "cache cleared"})
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
