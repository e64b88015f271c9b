package matrix

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"googlemaps.github.io/maps"

	"ridepool/internal/domain"
)

type fakeDistanceMatrix struct {
	resp *maps.DistanceMatrixResponse
	err  error
	req  *maps.DistanceMatrixRequest
}

func (f *fakeDistanceMatrix) DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error) {
	f.req = r
	return f.resp, f.err
}

func element(status string, d time.Duration) *maps.DistanceMatrixElement {
	return &maps.DistanceMatrixElement{Status: status, Duration: d}
}

func TestGoogleClient_BuildsMatrix(t *testing.T) {
	t.Parallel()

	api := &fakeDistanceMatrix{resp: &maps.DistanceMatrixResponse{Rows: []maps.DistanceMatrixElementsRow{
		{Elements: []*maps.DistanceMatrixElement{element("OK", 0), element("OK", 90*time.Second)}},
		{Elements: []*maps.DistanceMatrixElement{element("OK", 120*time.Second), element("OK", 0)}},
	}}}
	client := &GoogleClient{api: api, timeout: time.Second}

	m, err := client.Matrix(context.Background(), testPoints[:2])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m[0][1] != 90 || m[1][0] != 120 {
		t.Errorf("unexpected matrix %v", m)
	}
	if api.req.Origins[0] != "10.100000,106.100000" || api.req.Mode != maps.TravelModeDriving {
		t.Errorf("unexpected request %+v", api.req)
	}
}

func TestGoogleClient_ErrorClassification(t *testing.T) {
	t.Parallel()

	client := &GoogleClient{api: &fakeDistanceMatrix{err: context.DeadlineExceeded}}
	if _, err := client.Matrix(context.Background(), testPoints[:2]); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected unavailable, got %v", err)
	}

	client = &GoogleClient{api: &fakeDistanceMatrix{err: errors.New("maps: INVALID_REQUEST - ")}}
	if _, err := client.Matrix(context.Background(), testPoints[:2]); !errors.Is(err, ErrUpstreamRejected) {
		t.Errorf("expected rejected, got %v", err)
	}

	client = &GoogleClient{api: &fakeDistanceMatrix{resp: &maps.DistanceMatrixResponse{Rows: []maps.DistanceMatrixElementsRow{
		{Elements: []*maps.DistanceMatrixElement{element("OK", 0), element("ZERO_RESULTS", 0)}},
		{Elements: []*maps.DistanceMatrixElement{element("OK", time.Second), element("OK", 0)}},
	}}}}
	if _, err := client.Matrix(context.Background(), testPoints[:2]); !errors.Is(err, ErrUpstreamRejected) {
		t.Errorf("expected rejected for unroutable element, got %v", err)
	}
}

// gridDistanceMatrix answers any tile with durations derived from the
// position of each location in all, and records every request it sees.
type gridDistanceMatrix struct {
	all  []string
	reqs []*maps.DistanceMatrixRequest
}

func (g *gridDistanceMatrix) DistanceMatrix(ctx context.Context, r *maps.DistanceMatrixRequest) (*maps.DistanceMatrixResponse, error) {
	g.reqs = append(g.reqs, r)
	if len(r.Origins) > 25 || len(r.Destinations) > 25 || len(r.Origins)*len(r.Destinations) > 100 {
		return nil, errors.New("maps: MAX_DIMENSIONS_EXCEEDED - ")
	}

	index := func(loc string) int {
		for i, l := range g.all {
			if l == loc {
				return i
			}
		}
		return -1
	}
	resp := &maps.DistanceMatrixResponse{}
	for _, o := range r.Origins {
		row := maps.DistanceMatrixElementsRow{}
		for _, d := range r.Destinations {
			secs := index(o)*1000 + index(d)
			row.Elements = append(row.Elements, element("OK", time.Duration(secs)*time.Second))
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp, nil
}

func TestGoogleClient_TilesLargeMatrices(t *testing.T) {
	t.Parallel()

	points := make([]domain.Point, 23)
	all := make([]string, len(points))
	for i := range points {
		points[i] = domain.Point{Lat: 10 + float64(i)*0.01, Lng: 106}
		all[i] = fmt.Sprintf("%.6f,%.6f", points[i].Lat, points[i].Lng)
	}
	api := &gridDistanceMatrix{all: all}
	client := &GoogleClient{api: api, timeout: time.Second}

	m, err := client.Matrix(context.Background(), points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(api.reqs) != 9 {
		t.Errorf("expected 3x3 tiles, got %d requests", len(api.reqs))
	}
	for i := range points {
		for j := range points {
			want := float64(i*1000 + j)
			if i == j {
				want = 0
			}
			if m[i][j] != want {
				t.Fatalf("m[%d][%d] = %v, want %v", i, j, m[i][j], want)
			}
		}
	}
}

func TestGoogleClient_RejectsShortTile(t *testing.T) {
	t.Parallel()

	api := &fakeDistanceMatrix{resp: &maps.DistanceMatrixResponse{Rows: []maps.DistanceMatrixElementsRow{
		{Elements: []*maps.DistanceMatrixElement{element("OK", 0), element("OK", time.Second)}},
	}}}
	client := &GoogleClient{api: api}
	if _, err := client.Matrix(context.Background(), testPoints[:2]); !errors.Is(err, ErrUpstreamRejected) {
		t.Errorf("expected rejected for missing row, got %v", err)
	}
}
