package geo

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// DistrictDirectory resolves a district code to its registry row ID.
// The mgnrega store provides the gorm-backed implementation; tests use
// fakes.
type DistrictDirectory interface {
	DistrictIDByCode(ctx context.Context, code string) (uuid.UUID, bool, error)
}

// Handler serves the geolocation endpoints. District IDs come from the
// injected directory so callers can feed the resolved code straight into
// the metrics endpoints.
type Handler struct {
	Resolver  *Resolver
	Locator   IPLocator
	Directory DistrictDirectory
}

// resolutionOut is a Resolution enriched with the registry row's ID when
// the resolved code is registered.
type resolutionOut struct {
	Resolution
	DistrictID *uuid.UUID `json:"district_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// ResolveCoordinates handles GET /geo/resolve?lat=..&lon=..
func (h *Handler) ResolveCoordinates(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		http.Error(w, "lat and lon query parameters are required", http.StatusBadRequest)
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		http.Error(w, "lat/lon out of range", http.StatusBadRequest)
		return
	}

	res, err := h.Resolver.ResolveByCoordinates(lat, lon)
	if err != nil {
		log.Printf("[geo] resolve lat=%f lon=%f err=%v", lat, lon, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.withDistrictID(r, res))
}

// ResolveIP handles GET /geo/resolve-ip?ip=.. — the ip parameter
// defaults to the request's remote address. An unresolvable IP yields
// 200 with resolved=false rather than an error.
func (h *Handler) ResolveIP(w http.ResponseWriter, r *http.Request) {
	ip := r.URL.Query().Get("ip")
	if ip == "" {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}

	res, err := h.Resolver.ResolveByIP(r.Context(), h.Locator, ip)
	if err != nil {
		log.Printf("[geo] resolve-ip ip=%s err=%v", ip, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if res == nil {
		writeJSON(w, map[string]any{"resolved": false})
		return
	}

	writeJSON(w, h.withDistrictID(r, res))
}

func (h *Handler) withDistrictID(r *http.Request, res *Resolution) resolutionOut {
	out := resolutionOut{Resolution: *res}
	if h.Directory == nil {
		return out
	}

	id, found, err := h.Directory.DistrictIDByCode(r.Context(), res.DistrictCode)
	if err != nil {
		log.Printf("[geo] district lookup code=%s err=%v", res.DistrictCode, err)
		return out
	}
	if found {
		out.DistrictID = &id
	}
	return out
}
