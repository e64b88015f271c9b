package matrix

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ridepool/internal/domain"
)

// OSRMClient queries the table service of an OSRM HTTP server.
type OSRMClient struct {
	baseURL string
	profile string
	client  *http.Client
}

// NewOSRMClient creates an OSRM client. The timeout bounds every request.
func NewOSRMClient(baseURL, profile string, timeout time.Duration) *OSRMClient {
	if profile == "" {
		profile = "driving"
	}
	return &OSRMClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		client:  &http.Client{Timeout: timeout},
	}
}

type osrmTableResponse struct {
	Code      string       `json:"code"`
	Message   string       `json:"message"`
	Durations [][]*float64 `json:"durations"`
}

// Matrix calls /table/v1/{profile}/{lng,lat;...}?annotations=duration.
func (c *OSRMClient) Matrix(ctx context.Context, points []domain.Point) (m [][]float64, err error) {
	if len(points) < 2 {
		return Degenerate(len(points)), nil
	}

	start := time.Now()
	defer func() { observe("osrm", start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(points), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamRejected, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: osrm status %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var out osrmTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("%w: osrm status %d", ErrUpstreamRejected, resp.StatusCode)
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) || ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		return nil, fmt.Errorf("%w: decode table: %v", ErrUpstreamRejected, err)
	}

	if resp.StatusCode >= http.StatusBadRequest || out.Code != "Ok" {
		return nil, fmt.Errorf("%w: osrm code %q: %s", ErrUpstreamRejected, out.Code, out.Message)
	}

	m = make([][]float64, len(out.Durations))
	for i, row := range out.Durations {
		m[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				return nil, fmt.Errorf("%w: no route between points %d and %d", ErrUpstreamRejected, i, j)
			}
			m[i][j] = *v
		}
	}

	if err := validateSquare(m, len(points)); err != nil {
		return nil, fmt.Errorf("%w: expected %dx%d durations", err, len(points), len(points))
	}

	return m, nil
}

// tableURL formats coordinates the way OSRM expects them: lng,lat pairs joined by ';'.
func (c *OSRMClient) tableURL(points []domain.Point) string {
	coords := make([]string, len(points))
	for i, p := range points {
		coords[i] = strconv.FormatFloat(p.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
	}
	return fmt.Sprintf("%s/table/v1/%s/%s?annotations=duration", c.baseURL, c.profile, strings.Join(coords, ";"))
}

// Ensure OSRMClient implements Oracle.
var _ Oracle = (*OSRMClient)(nil)
