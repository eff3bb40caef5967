// Package httpapi serves the read-only JSON API over the story database.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/gaffer/internal/db"
	"horse.fit/gaffer/internal/globaltime"
	"horse.fit/gaffer/internal/identity"
	"horse.fit/gaffer/internal/reader"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200

	defaultBriefingHours  = 24
	defaultMinImportance  = 1
	previewMaxChars       = 2000
	defaultStoryListDays  = 30
	maxStoryListYears     = 5
	briefingMaxWindowDays = 14
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	pool   *db.Pool
	logger zerolog.Logger
	opts   Options
}

func NewServer(pool *db.Pool, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pool:   pool,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/stats", s.handleStats)
	api.GET("/stories", s.handleStories)
	api.GET("/stories/:story_uuid", s.handleStoryDetail)
	api.GET("/briefing", s.handleBriefing)
	api.GET("/source-preview", s.handleSourcePreview)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("gaffer api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("gaffer api server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "gaffer",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	now := globaltime.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats, err := s.pool.QueryPipelineStats(c.Request().Context(), dayStart, dayStart.Add(24*time.Hour))
	if err != nil {
		s.logger.Error().Err(err).Msg("query stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handleStories(c echo.Context) error {
	pageSize, err := parsePositiveInt(c.QueryParam("page_size"), defaultPageSize, 1, maxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"page_size": err.Error()})
	}
	minImportance, err := parsePositiveInt(c.QueryParam("min_importance"), defaultMinImportance, 1, 10)
	if err != nil {
		return failValidation(c, map[string]string{"min_importance": err.Error()})
	}

	from, err := parseTimeFilter(c.QueryParam("from"), false)
	if err != nil {
		return failValidation(c, map[string]string{"from": "must be RFC3339 or YYYY-MM-DD"})
	}
	to, err := parseTimeFilter(c.QueryParam("to"), true)
	if err != nil {
		return failValidation(c, map[string]string{"to": "must be RFC3339 or YYYY-MM-DD"})
	}

	now := globaltime.UTC()
	if to == nil {
		to = &now
	}
	if from == nil {
		start := to.AddDate(0, 0, -defaultStoryListDays)
		from = &start
	}
	if from.After(*to) {
		return failValidation(c, map[string]string{"time_range": "from must be <= to"})
	}
	if to.Sub(*from) > time.Duration(maxStoryListYears)*365*24*time.Hour {
		return failValidation(c, map[string]string{"time_range": "window is too large"})
	}

	opts := db.StoryListOptions{
		Status:        strings.TrimSpace(strings.ToLower(c.QueryParam("status"))),
		Player:        identity.NormalizeName(c.QueryParam("player")),
		MinImportance: minImportance,
		From:          *from,
		To:            *to,
		Limit:         pageSize,
	}

	rows, err := s.pool.ListStories(c.Request().Context(), opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("query stories failed")
		return internalError(c, "Failed to load stories")
	}

	return success(c, map[string]any{
		"items": rows,
		"filters": map[string]any{
			"status":         opts.Status,
			"player":         opts.Player,
			"min_importance": opts.MinImportance,
			"from":           opts.From,
			"to":             opts.To,
		},
	})
}

func (s *Server) handleStoryDetail(c echo.Context) error {
	storyUUID := strings.TrimSpace(c.Param("story_uuid"))
	if storyUUID == "" {
		return failValidation(c, map[string]string{"story_uuid": "is required"})
	}

	detail, err := s.pool.GetStoryDetail(c.Request().Context(), storyUUID)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "Story not found")
		}
		s.logger.Error().Err(err).Str("story_uuid", storyUUID).Msg("query story detail failed")
		return internalError(c, "Failed to load story detail")
	}

	return success(c, detail)
}

func (s *Server) handleBriefing(c echo.Context) error {
	hours, err := parsePositiveInt(c.QueryParam("hours"), defaultBriefingHours, 1, briefingMaxWindowDays*24)
	if err != nil {
		return failValidation(c, map[string]string{"hours": err.Error()})
	}
	minImportance, err := parsePositiveInt(c.QueryParam("min_importance"), defaultMinImportance, 1, 10)
	if err != nil {
		return failValidation(c, map[string]string{"min_importance": err.Error()})
	}

	to := globaltime.UTC()
	from := to.Add(-time.Duration(hours) * time.Hour)

	rows, err := s.pool.ListBriefingStories(c.Request().Context(), from, to, minImportance)
	if err != nil {
		s.logger.Error().Err(err).Msg("query briefing failed")
		return internalError(c, "Failed to load briefing")
	}

	return success(c, map[string]any{
		"items":          rows,
		"window_hours":   hours,
		"min_importance": minImportance,
		"from":           from,
		"to":             to,
	})
}

func (s *Server) handleSourcePreview(c echo.Context) error {
	pageURL := strings.TrimSpace(c.QueryParam("url"))
	if pageURL == "" {
		return failValidation(c, map[string]string{"url": "is required"})
	}

	text, err := reader.FetchText(c.Request().Context(), pageURL, "")
	if err != nil {
		s.logger.Warn().Err(err).Str("url", pageURL).Msg("source preview fetch failed")
		return fail(c, http.StatusBadGateway, "Failed to fetch source", nil)
	}

	preview, truncated := reader.TruncateText(text, previewMaxChars)
	return success(c, map[string]any{
		"url":       pageURL,
		"text":      preview,
		"truncated": truncated,
	})
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

func parseTimeFilter(raw string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	if ts, err := time.Parse(time.RFC3339, trimmed); err == nil {
		utc := ts.UTC()
		return &utc, nil
	}

	if day, err := time.Parse("2006-01-02", trimmed); err == nil {
		utc := day.UTC()
		if endOfDay {
			utc = utc.Add((24 * time.Hour) - time.Nanosecond)
		}
		return &utc, nil
	}

	return nil, fmt.Errorf("invalid time format")
}
