// Package weather wraps the OpenWeatherMap geocoding, current conditions,
// and forecast APIs.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"
	defaultGeoURL  = "https://api.openweathermap.org/geo/1.0"

	maxResponseBytes = 1 << 20
)

var (
	ErrNoAPIKey         = errors.New("weather: no API key configured")
	ErrLocationNotFound = errors.New("weather: location not found")
	ErrUnavailable      = errors.New("weather: service temporarily unavailable")
)

type Location struct {
	Name        string  `json:"name"`
	Country     string  `json:"country"`
	State       string  `json:"state,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name,omitempty"`
}

type Temperature struct {
	Current   string `json:"current"`
	FeelsLike string `json:"feels_like"`
	Min       string `json:"min"`
	Max       string `json:"max"`
}

type Condition struct {
	Main           string `json:"main"`
	Description    string `json:"description"`
	RawDescription string `json:"raw_description"`
}

type Details struct {
	Humidity      string `json:"humidity"`
	Pressure      string `json:"pressure,omitempty"`
	WindSpeed     string `json:"wind_speed"`
	WindDirection int    `json:"wind_direction,omitempty"`
	Visibility    string `json:"visibility,omitempty"`
	Precipitation string `json:"precipitation,omitempty"`
}

type Report struct {
	Location    Location    `json:"location"`
	Temperature Temperature `json:"temperature"`
	Condition   Condition   `json:"condition"`
	Details     Details     `json:"details"`
	Timestamp   time.Time   `json:"timestamp"`
	Unit        string      `json:"unit"`
}

type ForecastItem struct {
	At          time.Time   `json:"datetime"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	Temperature Temperature `json:"temperature"`
	Condition   Condition   `json:"condition"`
	Details     Details     `json:"details"`
}

type DaySummary struct {
	Date  string         `json:"date"`
	Items []ForecastItem `json:"forecasts"`
}

type Forecast struct {
	Location  Location       `json:"location"`
	Items     []ForecastItem `json:"forecasts"`
	Daily     []DaySummary   `json:"daily_summary"`
	Timestamp time.Time      `json:"timestamp"`
	Unit      string         `json:"unit"`
}

// Client calls OpenWeatherMap. The API key is passed per call so user key
// overrides resolve at request time.
type Client struct {
	httpClient *http.Client
	baseURL    string
	geoURL     string
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{httpClient: httpClient, baseURL: defaultBaseURL, geoURL: defaultGeoURL}
}

// SetBaseURLs overrides the API endpoints. Test hook.
func (c *Client) SetBaseURLs(base, geo string) {
	c.baseURL = base
	c.geoURL = geo
}

func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("weather: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}

type geoEntry struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Geocode resolves a free-form location to coordinates.
func (c *Client) Geocode(ctx context.Context, key, location string) (Location, error) {
	if key == "" {
		return Location{}, ErrNoAPIKey
	}
	params := url.Values{}
	params.Set("q", location)
	params.Set("limit", "1")
	params.Set("appid", key)

	var entries []geoEntry
	if err := c.getJSON(ctx, c.geoURL+"/direct", params, &entries); err != nil {
		return Location{}, err
	}
	if len(entries) == 0 {
		return Location{}, fmt.Errorf("%w: %q", ErrLocationNotFound, location)
	}
	e := entries[0]
	return Location{Name: e.Name, Country: e.Country, State: e.State, Lat: e.Lat, Lon: e.Lon}, nil
}

// Search returns up to five locations matching a query.
func (c *Client) Search(ctx context.Context, key, query string) ([]Location, error) {
	if key == "" {
		return nil, ErrNoAPIKey
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "5")
	params.Set("appid", key)

	var entries []geoEntry
	if err := c.getJSON(ctx, c.geoURL+"/direct", params, &entries); err != nil {
		return nil, err
	}
	out := make([]Location, 0, len(entries))
	for _, e := range entries {
		loc := Location{Name: e.Name, Country: e.Country, State: e.State, Lat: e.Lat, Lon: e.Lon}
		loc.DisplayName = e.Name
		if e.State != "" {
			loc.DisplayName += ", " + e.State
		}
		if e.Country != "" {
			loc.DisplayName += ", " + e.Country
		}
		out = append(out, loc)
	}
	return out, nil
}

type currentPayload struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Visibility int `json:"visibility"`
}

// Current fetches present conditions for a location. The API is always
// queried in metric; unit conversion happens at formatting time.
func (c *Client) Current(ctx context.Context, key, location, unit string) (Report, error) {
	geo, err := c.Geocode(ctx, key, location)
	if err != nil {
		return Report{}, err
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(geo.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(geo.Lon, 'f', -1, 64))
	params.Set("appid", key)
	params.Set("units", "metric")

	var payload currentPayload
	if err := c.getJSON(ctx, c.baseURL+"/weather", params, &payload); err != nil {
		return Report{}, err
	}

	condMain, condDesc := "Unknown", "Unknown"
	if len(payload.Weather) > 0 {
		condMain = payload.Weather[0].Main
		condDesc = payload.Weather[0].Description
	}
	return Report{
		Location: geo,
		Temperature: Temperature{
			Current:   FormatTemperature(payload.Main.Temp, unit),
			FeelsLike: FormatTemperature(payload.Main.FeelsLike, unit),
			Min:       FormatTemperature(payload.Main.TempMin, unit),
			Max:       FormatTemperature(payload.Main.TempMax, unit),
		},
		Condition: Condition{
			Main:           condMain,
			Description:    FormatCondition(condDesc),
			RawDescription: condDesc,
		},
		Details: Details{
			Humidity:      fmt.Sprintf("%d%%", payload.Main.Humidity),
			Pressure:      fmt.Sprintf("%d hPa", payload.Main.Pressure),
			WindSpeed:     fmt.Sprintf("%g m/s", payload.Wind.Speed),
			WindDirection: payload.Wind.Deg,
			Visibility:    fmt.Sprintf("%.1f km", float64(payload.Visibility)/1000),
		},
		Timestamp: time.Now().UTC(),
		Unit:      unit,
	}, nil
}

type forecastPayload struct {
	List []struct {
		DT   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			TempMin   float64 `json:"temp_min"`
			TempMax   float64 `json:"temp_max"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Rain struct {
			ThreeHours float64 `json:"3h"`
		} `json:"rain"`
	} `json:"list"`
}

// ForecastDays fetches a forecast in 3-hour steps grouped by day. days is
// clamped so at most 40 steps (5 days) are requested.
func (c *Client) ForecastDays(ctx context.Context, key, location string, days int, unit string) (Forecast, error) {
	geo, err := c.Geocode(ctx, key, location)
	if err != nil {
		return Forecast{}, err
	}

	cnt := days * 8
	if cnt > 40 {
		cnt = 40
	}
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(geo.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(geo.Lon, 'f', -1, 64))
	params.Set("appid", key)
	params.Set("units", "metric")
	params.Set("cnt", strconv.Itoa(cnt))

	var payload forecastPayload
	if err := c.getJSON(ctx, c.baseURL+"/forecast", params, &payload); err != nil {
		return Forecast{}, err
	}

	forecast := Forecast{
		Location:  geo,
		Timestamp: time.Now().UTC(),
		Unit:      unit,
	}
	dayIndex := map[string]int{}
	for _, item := range payload.List {
		at := time.Unix(item.DT, 0).UTC()
		condMain, condDesc := "Unknown", "Unknown"
		if len(item.Weather) > 0 {
			condMain = item.Weather[0].Main
			condDesc = item.Weather[0].Description
		}
		fi := ForecastItem{
			At:   at,
			Date: at.Format("Monday, January 02"),
			Time: at.Format("15:04"),
			Temperature: Temperature{
				Current:   FormatTemperature(item.Main.Temp, unit),
				FeelsLike: FormatTemperature(item.Main.FeelsLike, unit),
				Min:       FormatTemperature(item.Main.TempMin, unit),
				Max:       FormatTemperature(item.Main.TempMax, unit),
			},
			Condition: Condition{
				Main:           condMain,
				Description:    FormatCondition(condDesc),
				RawDescription: condDesc,
			},
			Details: Details{
				Humidity:      fmt.Sprintf("%d%%", item.Main.Humidity),
				WindSpeed:     fmt.Sprintf("%g m/s", item.Wind.Speed),
				Precipitation: fmt.Sprintf("%.1f mm", item.Rain.ThreeHours),
			},
		}
		forecast.Items = append(forecast.Items, fi)

		dateKey := at.Format("2006-01-02")
		idx, ok := dayIndex[dateKey]
		if !ok {
			if len(forecast.Daily) >= days {
				continue
			}
			idx = len(forecast.Daily)
			dayIndex[dateKey] = idx
			forecast.Daily = append(forecast.Daily, DaySummary{Date: fi.Date})
		}
		forecast.Daily[idx].Items = append(forecast.Daily[idx].Items, fi)
	}
	return forecast, nil
}
