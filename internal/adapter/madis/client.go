// Package madis queries the MADIS public XML service for surface station
// virtual-temperature observations.
package madis

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/rasstastic/rasstastic/internal/domain"
)

// ErrDecode marks responses that arrived but could not be parsed as XML.
var ErrDecode = errors.New("madis: decode response")

// varVirtualTemp is the MADIS variable code selected by varsel=2.
const varVirtualTemp = "V-T"

// Client issues snapshot queries against the madisXmlPublicDir endpoint.
// A circuit breaker fronts the HTTP calls so a dead service fails the
// remaining lag checkpoints fast instead of consuming the whole run budget.
type Client struct {
	baseURL         string
	state           string
	httpClient      *http.Client
	snapshotTimeout time.Duration
	stationTimeout  time.Duration
	breaker         *gobreaker.CircuitBreaker
	logger          *slog.Logger
}

// NewClient creates a MADIS query client. state filters region snapshots
// (e.g. "CA"); snapshot/station timeouts bound the two query shapes.
func NewClient(baseURL, state string, snapshotTimeout, stationTimeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:         baseURL,
		state:           state,
		httpClient:      &http.Client{},
		snapshotTimeout: snapshotTimeout,
		stationTimeout:  stationTimeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "madis",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		logger: logger,
	}
}

// RegionSnapshot queries all stations in the configured state around the
// given nominal time ("0" for now, else YYYYMMDD_HHMM). The result maps
// station id to its newest usable observation in the response.
func (c *Client) RegionSnapshot(ctx context.Context, timeValue string) (map[string]domain.StationObservation, error) {
	params := c.commonParams(timeValue)
	params.Set("dfltrsel", "2")
	params.Set("state", c.state)
	params.Set("stasel", "0")

	return c.query(ctx, params, c.snapshotTimeout)
}

// StationSnapshot queries a single station around the given nominal time.
func (c *Client) StationSnapshot(ctx context.Context, stationID, timeValue string) (map[string]domain.StationObservation, error) {
	params := c.commonParams(timeValue)
	params.Set("dfltrsel", "3")
	params.Set("stasel", "1")
	params.Set("stanam", stationID)

	return c.query(ctx, params, c.stationTimeout)
}

// commonParams builds the query parameters shared by both query shapes:
// a 59-minute backward window, virtual temperature only, QC level 1, XML out.
func (c *Client) commonParams(timeValue string) url.Values {
	return url.Values{
		"time":       {timeValue},
		"minbck":     {"-59"},
		"minfwd":     {"0"},
		"recwin":     {"3"},
		"timefilter": {"0"},
		"pvdrsel":    {"0"},
		"varsel":     {"2"},
		"qctype":     {"0"},
		"qcsel":      {"1"},
		"xml":        {"1"},
		"csvmiss":    {"0"},
	}
}

func (c *Client) query(ctx context.Context, params url.Values, timeout time.Duration) (map[string]domain.StationObservation, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := c.fetch(ctx, c.baseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return collectRecords(resp.Records), nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("madis returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// collectRecords filters usable V-T records and deduplicates per station,
// keeping the newest observation time. ObTime strings are fixed-width and
// zero-padded, so string comparison matches temporal order.
func collectRecords(records []xmlRecord) map[string]domain.StationObservation {
	out := make(map[string]domain.StationObservation)
	for _, rec := range records {
		obs, ok := rec.toObservation()
		if !ok {
			continue
		}
		if prev, exists := out[obs.ID]; exists && obs.ObTime <= prev.ObTime {
			continue
		}
		out[obs.ID] = obs
	}
	return out
}

type queryResponse struct {
	Records []xmlRecord `xml:"record"`
}

type xmlRecord struct {
	Var       string  `xml:"var,attr"`
	ShefID    string  `xml:"shef_id,attr"`
	ObTime    string  `xml:"ObTime,attr"`
	Elev      *string `xml:"elev,attr"`
	DataValue *string `xml:"data_value,attr"`
	Provider  string  `xml:"provider,attr"`
}

// toObservation converts one record, reporting false when any required
// field is absent or malformed.
func (r xmlRecord) toObservation() (domain.StationObservation, bool) {
	if r.Var != varVirtualTemp || r.ShefID == "" || r.ObTime == "" || r.Elev == nil || r.DataValue == nil {
		return domain.StationObservation{}, false
	}
	elev, err0 := parseFloat(*r.Elev)
	kelvin, err1 := parseFloat(*r.DataValue)
	if err0 != nil || err1 != nil {
		return domain.StationObservation{}, false
	}

	temp := domain.KelvinToCelsius(kelvin)
	return domain.StationObservation{
		ID:       r.ShefID,
		ElevM:    &elev,
		TempC:    &temp,
		ObTime:   r.ObTime,
		Provider: r.Provider,
	}, true
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
