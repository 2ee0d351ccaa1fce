package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ariavoice/aria/internal/apikeys"
	"github.com/ariavoice/aria/internal/productivity"
	"github.com/ariavoice/aria/internal/weather"
)

func (s *Server) weatherKey(r *http.Request) string {
	return s.keys.Key(apikeys.ServiceOpenWeather, querySession(r))
}

func (s *Server) handleWeatherStatus(w http.ResponseWriter, r *http.Request) {
	status := s.keys.Status(apikeys.ServiceOpenWeather, querySession(r))
	respondJSON(w, http.StatusOK, map[string]any{
		"available": status.Available,
		"source":    status.Source,
	})
}

func weatherUnit(r *http.Request) string {
	unit := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("units")))
	if unit != "fahrenheit" {
		unit = "celsius"
	}
	return unit
}

func respondWeatherError(w http.ResponseWriter, err error, location string) {
	if errors.Is(err, weather.ErrLocationNotFound) {
		respondJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "Location '" + location + "' not found",
		})
		return
	}
	respondJSON(w, http.StatusBadGateway, map[string]any{
		"success": false,
		"error":   "Weather service temporarily unavailable",
	})
}

func (s *Server) handleWeatherCurrent(w http.ResponseWriter, r *http.Request) {
	key := s.weatherKey(r)
	if key == "" {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "Weather service unavailable - check your OPENWEATHER_API_KEY",
		})
		return
	}
	location := chi.URLParam(r, "location")

	report, err := s.weather.Current(r.Context(), key, location, weatherUnit(r))
	if err != nil {
		log.Printf("weather current %q failed: %v", location, err)
		respondWeatherError(w, err, location)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"data":      report,
		"formatted": weather.FormatReport(report),
	})
}

func (s *Server) handleWeatherForecast(w http.ResponseWriter, r *http.Request) {
	key := s.weatherKey(r)
	if key == "" {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "Weather service unavailable - check your OPENWEATHER_API_KEY",
		})
		return
	}
	location := chi.URLParam(r, "location")

	days := 3
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 5 {
			respondError(w, http.StatusBadRequest, "invalid_days", "days must be between 1 and 5")
			return
		}
		days = parsed
	}

	forecast, err := s.weather.ForecastDays(r.Context(), key, location, days, weatherUnit(r))
	if err != nil {
		log.Printf("weather forecast %q failed: %v", location, err)
		respondWeatherError(w, err, location)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"data":      forecast,
		"formatted": weather.FormatForecast(forecast),
	})
}

func (s *Server) handleWeatherSearch(w http.ResponseWriter, r *http.Request) {
	key := s.weatherKey(r)
	if key == "" {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{
			"success": false,
			"error":   "Weather service unavailable - check your OPENWEATHER_API_KEY",
		})
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if len(query) < 2 {
		respondError(w, http.StatusBadRequest, "invalid_query", "query must be at least 2 characters")
		return
	}

	locations, err := s.weather.Search(r.Context(), key, query)
	if err != nil {
		log.Printf("weather search %q failed: %v", query, err)
		respondJSON(w, http.StatusBadGateway, map[string]any{
			"success": false,
			"error":   "Weather service temporarily unavailable",
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"locations": locations,
	})
}

func (s *Server) handleCurrentTime(w http.ResponseWriter, r *http.Request) {
	timezone := strings.TrimSpace(r.URL.Query().Get("timezone"))
	format := strings.TrimSpace(r.URL.Query().Get("format"))

	info := productivity.CurrentTime(timezone, format)
	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"data":      info,
		"formatted": productivity.FormatTimeResponse(info),
	})
}
