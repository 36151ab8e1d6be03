// Package rass locates and downloads RASS profile files from a NOAA PSL
// realtime archive organized as {base}/{year}/{day-of-year}/{file}.
package rass

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound indicates a directory level yielded zero candidates. It is
// distinct from transport errors, which propagate unchanged.
var ErrNotFound = errors.New("rass: not found")

var (
	yearRe = regexp.MustCompile(`href="(20\d{2})/"`)
	doyRe  = regexp.MustCompile(`href="(\d{3})/"`)
)

// Ref identifies one profile file within the archive.
type Ref struct {
	Year string
	Doy  string
	Name string
}

// Path returns the archive path of the file relative to the base URL.
func (r Ref) Path() string {
	return r.Year + "/" + r.Doy + "/" + r.Name
}

// Client walks the archive's directory listings and fetches profile text.
type Client struct {
	baseURL    string
	fileRe     *regexp.Regexp
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an archive client for one profiler site. The site
// prefix selects files named like sba25106.01t in the day listings.
func NewClient(baseURL, site string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		fileRe:  regexp.MustCompile(`href="(` + regexp.QuoteMeta(site) + `\d{5}\.\d{2}t)"`),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Locate walks the year, day-of-year, and file listings and returns the
// most recent profile file. Fails with ErrNotFound when any level is empty.
func (c *Client) Locate(ctx context.Context) (Ref, error) {
	rootHTML, err := c.fetchText(ctx, c.baseURL+"/")
	if err != nil {
		return Ref{}, fmt.Errorf("list archive root: %w", err)
	}
	year, err := maxNumericDir(yearRe, rootHTML, 4)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: no year directories", ErrNotFound)
	}

	yearHTML, err := c.fetchText(ctx, c.baseURL+"/"+year+"/")
	if err != nil {
		return Ref{}, fmt.Errorf("list year %s: %w", year, err)
	}
	doy, err := maxNumericDir(doyRe, yearHTML, 3)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: no day directories in %s", ErrNotFound, year)
	}

	dayHTML, err := c.fetchText(ctx, c.baseURL+"/"+year+"/"+doy+"/")
	if err != nil {
		return Ref{}, fmt.Errorf("list day %s/%s: %w", year, doy, err)
	}
	matches := c.fileRe.FindAllStringSubmatch(dayHTML, -1)
	if len(matches) == 0 {
		return Ref{}, fmt.Errorf("%w: no profile files in %s/%s", ErrNotFound, year, doy)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	// Sequence numbers are zero-padded, so lexicographic max is newest.
	sort.Strings(names)

	ref := Ref{Year: year, Doy: doy, Name: names[len(names)-1]}
	c.logger.Debug("located latest profile", "year", ref.Year, "doy", ref.Doy, "file", ref.Name)
	return ref, nil
}

// FetchProfile downloads the raw profile text for a located file.
func (c *Client) FetchProfile(ctx context.Context, ref Ref) (string, error) {
	text, err := c.fetchText(ctx, c.baseURL+"/"+ref.Path())
	if err != nil {
		return "", fmt.Errorf("fetch profile %s: %w", ref.Path(), err)
	}
	return text, nil
}

func (c *Client) fetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("archive returned status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(body), nil
}

// maxNumericDir extracts fixed-width numeric directory names from a listing
// page and returns the greatest one, zero-padded back to width digits.
func maxNumericDir(re *regexp.Regexp, html string, width int) (string, error) {
	matches := re.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		return "", errors.New("no matches")
	}
	best := -1
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > best {
			best = n
		}
	}
	if best < 0 {
		return "", errors.New("no numeric matches")
	}
	return fmt.Sprintf("%0*d", width, best), nil
}
