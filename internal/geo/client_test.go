package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace_backend/platform/apperr"
	"marketplace_backend/platform/config"
	"marketplace_backend/platform/logger"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := &config.Config{
		GeocoderBaseURL:   baseURL,
		GeocoderUserAgent: "marketplace-backend-test/1.0",
		GeocoderCountry:   "br",
		GeocoderTimeout:   2 * time.Second,
	}
	return NewClient(cfg, logger.New("development"))
}

func TestClientLookupParsesResponse(t *testing.T) {
	var gotQuery, gotCountry, gotFormat, gotDetails, gotLimit, gotUA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = q.Get("q")
		gotCountry = q.Get("countrycodes")
		gotFormat = q.Get("format")
		gotDetails = q.Get("addressdetails")
		gotLimit = q.Get("limit")
		gotUA = r.Header.Get("User-Agent")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"name": "Natal",
				"display_name": "Natal, Rio Grande do Norte, Brasil",
				"type": "city",
				"addresstype": "city",
				"lat": "-5.7945",
				"lon": "-35.211",
				"address": {
					"state": "Rio Grande do Norte",
					"country": "Brasil",
					"country_code": "br"
				}
			}
		]`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	places, err := client.Lookup(context.Background(), "natal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery != "natal" || gotCountry != "br" || gotFormat != "json" || gotDetails != "1" || gotLimit != "10" {
		t.Errorf("unexpected query parameters: q=%q countrycodes=%q format=%q addressdetails=%q limit=%q",
			gotQuery, gotCountry, gotFormat, gotDetails, gotLimit)
	}
	if gotUA != "marketplace-backend-test/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}

	if len(places) != 1 {
		t.Fatalf("got %d places, want 1", len(places))
	}
	p := places[0]
	if p.Name != "Natal" || p.Type != "city" || p.Lat != "-5.7945" {
		t.Errorf("unexpected place: %+v", p)
	}
	if p.Address.State != "Rio Grande do Norte" || p.Address.CountryCode != "br" {
		t.Errorf("unexpected address: %+v", p.Address)
	}
}

func TestClientLookupEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	places, err := client.Lookup(context.Background(), "xyzzy")
	if err != nil {
		t.Fatalf("empty result should not be an error: %v", err)
	}
	if len(places) != 0 {
		t.Fatalf("got %+v, want empty", places)
	}
}

func TestClientLookupUpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	_, err := client.Lookup(context.Background(), "natal")
	if err == nil {
		t.Fatal("expected error on 503 response")
	}
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable kind, got %v", err)
	}
}

func TestClientLookupMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "not a list"`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	_, err := client.Lookup(context.Background(), "natal")
	if err == nil {
		t.Fatal("expected error on malformed payload")
	}
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable kind, got %v", err)
	}
}

func TestClientLookupTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := testClient(t, srv.URL)
	_, err := client.Lookup(context.Background(), "natal")
	if err == nil {
		t.Fatal("expected error when the provider is unreachable")
	}
	if apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable kind, got %v", err)
	}
}
