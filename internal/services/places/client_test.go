package places

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"marquee/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New("test-key", server.URL, 20, 5)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSearchRestaurantsBuildsQueryAndDecodes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/textsearch/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "restaurants in Sibiu" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("unexpected key %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"place_id": "p1", "name": "Hermann", "rating": 4.5, "user_ratings_total": 320, "price_level": 2, "types": ["restaurant"]},
				{"place_id": "p2", "name": "Butoiul", "rating": 4.2, "user_ratings_total": 80, "types": ["restaurant", "meal_delivery"]}
			]
		}`))
	})

	results, err := client.SearchRestaurants(context.Background(), "Sibiu")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].PlaceID != "p1" || results[0].Rating != 4.5 || results[0].UserRatingsTotal != 320 {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[1].PriceLevel != nil {
		t.Fatal("absent price_level must decode as nil")
	}
	if PriceLevelOrDefault(results[1].PriceLevel) != 2 {
		t.Fatal("nil price level should default to 2")
	}
}

func TestSearchRestaurantsCapsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "OK", "results": [
			{"place_id": "a"}, {"place_id": "b"}, {"place_id": "c"}
		]}`))
	}))
	t.Cleanup(server.Close)
	client, err := New("test-key", server.URL, 2, 5)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	results, err := client.SearchRestaurants(context.Background(), "Sibiu")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected capped results, got %d", len(results))
	}
}

func TestSearchRestaurantsZeroResultsIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	results, err := client.SearchRestaurants(context.Background(), "Nowhere")
	if err != nil {
		t.Fatalf("zero results must not error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty results, got %v", results)
	}
}

func TestSearchRestaurantsDeniedStatusIsExternalAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "REQUEST_DENIED", "error_message": "The provided API key is invalid."}`))
	})

	_, err := client.SearchRestaurants(context.Background(), "Sibiu")
	if !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("expected external api marker, got %v", err)
	}
}

func TestSearchRestaurantsHTTPErrorIsExternalAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SearchRestaurants(context.Background(), "Sibiu")
	if !errors.Is(err, services.ErrExternalAPI) {
		t.Fatalf("expected external api marker, got %v", err)
	}
}

func TestGetDetailsDecodesResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/details/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("place_id"); got != "p1" {
			t.Errorf("unexpected place_id %q", got)
		}
		if got := r.URL.Query().Get("fields"); got != "name,rating,price_level,types" {
			t.Errorf("unexpected fields %q", got)
		}
		w.Write([]byte(`{"status": "OK", "result": {"name": "Hermann", "rating": 4.5, "price_level": 3, "types": ["restaurant", "bar"]}}`))
	})

	details, err := client.GetDetails(context.Background(), "p1")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details == nil || details.Name != "Hermann" || PriceLevelOrDefault(details.PriceLevel) != 3 {
		t.Fatalf("unexpected details: %+v", details)
	}
}

func TestGetDetailsNonOKStatusYieldsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "NOT_FOUND"}`))
	})

	details, err := client.GetDetails(context.Background(), "gone")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details != nil {
		t.Fatalf("expected nil details, got %+v", details)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New("  ", "https://example.com", 20, 5); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
