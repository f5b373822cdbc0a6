package geo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

type fakeDirectory struct {
	ids map[string]uuid.UUID
	err error
}

func (f fakeDirectory) DistrictIDByCode(ctx context.Context, code string) (uuid.UUID, bool, error) {
	if f.err != nil {
		return uuid.Nil, false, f.err
	}
	id, ok := f.ids[code]
	return id, ok, nil
}

func testHandler(locator IPLocator, dir DistrictDirectory) *Handler {
	return &Handler{
		Resolver:  NewResolver(testRegions),
		Locator:   locator,
		Directory: dir,
	}
}

func TestResolveCoordinatesHandler(t *testing.T) {
	puneID := uuid.New()
	h := testHandler(nil, fakeDirectory{ids: map[string]uuid.UUID{"2726": puneID}})

	req := httptest.NewRequest(http.MethodGet, "/resolve?lat=18.52&lon=73.86", nil)
	rec := httptest.NewRecorder()
	h.ResolveCoordinates(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var out struct {
		DistrictCode string     `json:"district_code"`
		Method       string     `json:"method"`
		DistrictID   *uuid.UUID `json:"district_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.DistrictCode != "2726" || out.Method != "gps" {
		t.Fatalf("unexpected resolution: %+v", out)
	}
	if out.DistrictID == nil || *out.DistrictID != puneID {
		t.Fatalf("registry ID not attached: %v", out.DistrictID)
	}
}

func TestResolveCoordinatesHandlerValidation(t *testing.T) {
	h := testHandler(nil, fakeDirectory{})

	for _, query := range []string{"", "lat=18.52", "lat=abc&lon=73.86", "lat=95&lon=73.86", "lat=18.52&lon=200"} {
		req := httptest.NewRequest(http.MethodGet, "/resolve?"+query, nil)
		rec := httptest.NewRecorder()
		h.ResolveCoordinates(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %q: status = %d, want 400", query, rec.Code)
		}
	}
}

func TestResolveCoordinatesHandlerUnregisteredCode(t *testing.T) {
	// The resolver knows the region but the registry has no row for it;
	// the response simply omits district_id.
	h := testHandler(nil, fakeDirectory{})

	req := httptest.NewRequest(http.MethodGet, "/resolve?lat=18.52&lon=73.86", nil)
	rec := httptest.NewRecorder()
	h.ResolveCoordinates(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, present := out["district_id"]; present {
		t.Fatal("district_id attached for an unregistered code")
	}
}

func TestResolveIPHandler(t *testing.T) {
	thaneID := uuid.New()
	h := testHandler(
		fakeLocator{lat: 19.22, lon: 72.98},
		fakeDirectory{ids: map[string]uuid.UUID{"2733": thaneID}},
	)

	req := httptest.NewRequest(http.MethodGet, "/resolve-ip?ip=203.0.113.9", nil)
	rec := httptest.NewRecorder()
	h.ResolveIP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		DistrictCode string     `json:"district_code"`
		DistrictID   *uuid.UUID `json:"district_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.DistrictCode != "2733" {
		t.Fatalf("district = %q, want 2733", out.DistrictCode)
	}
	if out.DistrictID == nil || *out.DistrictID != thaneID {
		t.Fatalf("registry ID not attached: %v", out.DistrictID)
	}
}

func TestResolveIPHandlerLookupFailure(t *testing.T) {
	h := testHandler(fakeLocator{err: errors.New("timeout")}, fakeDirectory{})

	req := httptest.NewRequest(http.MethodGet, "/resolve-ip?ip=203.0.113.9", nil)
	rec := httptest.NewRecorder()
	h.ResolveIP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("lookup failure must answer 200, got %d", rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resolved, ok := out["resolved"].(bool); !ok || resolved {
		t.Fatalf("expected resolved=false payload, got %v", out)
	}
}
