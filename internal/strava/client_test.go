package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	return NewClient(ts, WithBaseURL(srv.URL), WithRateLimiter(newRateLimiter(0, time.Now)))
}

func TestGetAllActivitiesPaginates(t *testing.T) {
	var pages []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/athlete/activities", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "1700000000", r.URL.Query().Get("after"))

		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		n := MaxPerPage
		if page == "2" {
			n = 3
		}
		activities := make([]Activity, n)
		for i := range activities {
			activities[i] = Activity{ID: int64(i + 1), Type: "Run"}
		}
		w.Header().Set("X-RateLimit-Limit", "100,1000")
		w.Header().Set("X-RateLimit-Usage", "10,"+strconv.Itoa(len(pages)*10))
		json.NewEncoder(w).Encode(activities)
	}))

	var progress []int
	activities, err := client.GetAllActivities(context.Background(), time.Unix(1700000000, 0),
		func(fetched int) { progress = append(progress, fetched) })
	require.NoError(t, err)

	assert.Len(t, activities, MaxPerPage+3)
	assert.Equal(t, []string{"1", "2"}, pages)
	assert.Equal(t, []int{MaxPerPage, MaxPerPage + 3}, progress)

	short, daily := client.RateLimitStatus()
	assert.Equal(t, 90, short)
	assert.Equal(t, 980, daily)
}

func TestGetActivitiesDecodesFields(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 42, "athlete": {"id": 7}, "name": "Evening Ride", "type": "Ride",
			"sport_type": "VirtualRide", "start_date": "2024-03-01T18:00:00Z",
			"start_date_local": "2024-03-02T05:00:00Z", "distance": 30500.5,
			"moving_time": 3600, "total_elevation_gain": 210, "average_heartrate": 142.5,
			"max_heartrate": 171, "has_heartrate": true, "average_watts": 205, "device_watts": true,
			"calories": 740}]`)
	}))

	activities, err := client.GetActivities(context.Background(), time.Time{}, 1, 10)
	require.NoError(t, err)
	require.Len(t, activities, 1)

	a := activities[0]
	assert.Equal(t, int64(42), a.ID)
	assert.Equal(t, int64(7), a.Athlete.ID)
	assert.Equal(t, "VirtualRide", a.Sport())
	assert.Equal(t, time.Date(2024, 3, 1, 18, 0, 0, 0, time.UTC), a.StartDate)
	assert.Equal(t, time.Date(2024, 3, 2, 5, 0, 0, 0, time.UTC), a.StartDateLocal)
	assert.InDelta(t, 30500.5, a.Distance, 1e-9)
	assert.Equal(t, 3600, a.MovingTime)
	assert.InDelta(t, 205, a.AverageWatts, 1e-9)
	assert.True(t, a.DeviceWatts)
	assert.InDelta(t, 740, a.Calories, 1e-9)
}

func TestGetActivitiesAPIError(t *testing.T) {
	tests := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"nope"}`, tt.status)
			}))

			_, err := client.GetAllActivities(context.Background(), time.Time{}, nil)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "error %v should wrap *APIError", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.retryable, apiErr.Retryable())
			assert.Contains(t, err.Error(), "fetching page 1")
		})
	}
}

func TestTokenSourceRefreshesAndPersists(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh","refresh_token":"new-refresh","token_type":"Bearer","expires_in":21600}`)
	}))
	defer srv.Close()

	var persisted []string
	ts := NewTokenSource(Credentials{
		ClientID:     "client-id",
		ClientSecret: "secret",
		RefreshToken: "old-refresh",
		TokenURL:     srv.URL,
	}, func(tok *oauth2.Token) error {
		persisted = append(persisted, tok.RefreshToken)
		return nil
	})

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.Equal(t, []string{"new-refresh"}, persisted)

	// A valid token is reused without another round trip
	_, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestTokenSourcePersistError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"fresh","refresh_token":"rotated","token_type":"Bearer","expires_in":21600}`)
	}))
	defer srv.Close()

	ts := NewTokenSource(Credentials{RefreshToken: "old", TokenURL: srv.URL},
		func(*oauth2.Token) error { return errors.New("disk full") })

	_, err := ts.Token()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persisting strava token")
}
