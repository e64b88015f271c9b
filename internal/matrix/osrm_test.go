package matrix

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ridepool/internal/domain"
)

var testPoints = []domain.Point{
	{Lat: 10.1, Lng: 106.1},
	{Lat: 10.2, Lng: 106.2},
	{Lat: 10.3, Lng: 106.3},
}

func TestOSRMClient_ReturnsDurations(t *testing.T) {
	t.Parallel()

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Write([]byte(`{"code":"Ok","durations":[[0,10,20],[11,0,30],[21,31,0]]}`))
	}))
	defer srv.Close()

	m, err := NewOSRMClient(srv.URL+"/", "driving", time.Second).Matrix(context.Background(), testPoints)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "/table/v1/driving/106.100000,10.100000;106.200000,10.200000;106.300000,10.300000?annotations=duration"
	if gotPath != want {
		t.Errorf("expected request %s, got %s", want, gotPath)
	}
	if m[1][0] != 11 || m[0][1] != 10 || m[2][1] != 31 {
		t.Errorf("unexpected matrix %v", m)
	}
}

func TestOSRMClient_DegenerateSkipsUpstream(t *testing.T) {
	t.Parallel()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	client := NewOSRMClient(srv.URL, "driving", time.Second)
	for n := 0; n < 2; n++ {
		m, err := client.Matrix(context.Background(), testPoints[:n])
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(m) != n {
			t.Errorf("expected %d rows, got %d", n, len(m))
		}
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("expected no upstream calls, got %d", calls)
	}
}

func TestOSRMClient_ErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusBadGateway, `oops`, ErrUpstreamUnavailable},
		{"invalid query", http.StatusBadRequest, `{"code":"InvalidQuery","message":"bad coords"}`, ErrUpstreamRejected},
		{"not ok code", http.StatusOK, `{"code":"NoTable"}`, ErrUpstreamRejected},
		{"null duration", http.StatusOK, `{"code":"Ok","durations":[[0,null,1],[1,0,1],[1,1,0]]}`, ErrUpstreamRejected},
		{"short matrix", http.StatusOK, `{"code":"Ok","durations":[[0,1],[1,0]]}`, ErrUpstreamRejected},
		{"garbage body", http.StatusOK, `<html>`, ErrUpstreamRejected},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOSRMClient(srv.URL, "driving", time.Second).Matrix(context.Background(), testPoints)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestOSRMClient_TimeoutIsUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewOSRMClient(srv.URL, "driving", 20*time.Millisecond).Matrix(context.Background(), testPoints)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected unavailable, got %v", err)
	}
}

func TestOSRMClient_ConnectionRefusedIsUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewOSRMClient(url, "driving", time.Second).Matrix(context.Background(), testPoints)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected unavailable, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "unavailable") {
		t.Errorf("expected wrapped message, got %v", err)
	}
}
