package matrix

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"googlemaps.github.io/maps"

	"ridepool/internal/domain"
)

// distanceMatrixAPI is the subset of *maps.Client used here.
type distanceMatrixAPI interface {
	DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error)
}

// googleTileSize keeps each sub-request within the Distance Matrix limits of
// 25 origins, 25 destinations and 100 elements.
const googleTileSize = 10

// GoogleClient answers duration matrices with the Google Distance Matrix API.
// Matrices larger than one tile are assembled from several requests.
type GoogleClient struct {
	api     distanceMatrixAPI
	timeout time.Duration
}

// NewGoogleClient creates a GoogleClient with the given API key.
func NewGoogleClient(apiKey string, timeout time.Duration) (*GoogleClient, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleClient{api: client, timeout: timeout}, nil
}

// Matrix requests driving durations with origins and destinations both set to points.
func (c *GoogleClient) Matrix(ctx context.Context, points []domain.Point) (m [][]float64, err error) {
	if len(points) < 2 {
		return Degenerate(len(points)), nil
	}

	start := time.Now()
	defer func() { observe("google", start, err) }()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	locations := make([]string, len(points))
	for i, p := range points {
		locations[i] = strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
	}

	m = make([][]float64, len(points))
	for i := range m {
		m[i] = make([]float64, len(points))
	}
	for oi := 0; oi < len(points); oi += googleTileSize {
		oj := min(oi+googleTileSize, len(points))
		for di := 0; di < len(points); di += googleTileSize {
			dj := min(di+googleTileSize, len(points))
			if err := c.fillTile(ctx, m, locations, oi, oj, di, dj); err != nil {
				return nil, err
			}
		}
	}

	if err := validateSquare(m, len(points)); err != nil {
		return nil, fmt.Errorf("%w: expected %dx%d elements", err, len(points), len(points))
	}

	return m, nil
}

// fillTile requests origins [oi,oj) against destinations [di,dj) and copies
// the durations into m.
func (c *GoogleClient) fillTile(ctx context.Context, m [][]float64, locations []string, oi, oj, di, dj int) error {
	resp, err := c.api.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      locations[oi:oj],
		Destinations: locations[di:dj],
		Mode:         maps.TravelModeDriving,
	})
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		return fmt.Errorf("%w: %v", ErrUpstreamRejected, err)
	}

	if len(resp.Rows) != oj-oi {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrUpstreamRejected, oj-oi, len(resp.Rows))
	}
	for r, row := range resp.Rows {
		if len(row.Elements) != dj-di {
			return fmt.Errorf("%w: expected %d elements in row %d, got %d", ErrUpstreamRejected, dj-di, oi+r, len(row.Elements))
		}
		for e, el := range row.Elements {
			i, j := oi+r, di+e
			if i == j {
				continue
			}
			if el == nil || el.Status != "OK" {
				return fmt.Errorf("%w: element %d,%d not routable", ErrUpstreamRejected, i, j)
			}
			m[i][j] = el.Duration.Seconds()
		}
	}
	return nil
}

// Ensure GoogleClient implements Oracle.
var _ Oracle = (*GoogleClient)(nil)
