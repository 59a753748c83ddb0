package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"storefront-banners/internal/analytics"
	"storefront-banners/internal/banner"
	"storefront-banners/internal/engine"
)

// PageViewTracker records page views for reporting.
type PageViewTracker interface {
	TrackPageView(ctx context.Context, page string, at time.Time) error
	PageViews(ctx context.Context, day time.Time) (map[string]int64, error)
}

type BannerHandler struct {
	Eng     *engine.Engine
	Admin   *engine.AdminService
	Tracker PageViewTracker
	Now     func() time.Time
}

func NewBannerHandler(eng *engine.Engine, admin *engine.AdminService, tracker PageViewTracker) *BannerHandler {
	return &BannerHandler{Eng: eng, Admin: admin, Tracker: tracker, Now: time.Now}
}

// BannersForPage serves GET /v1/banners?page=.
func (h *BannerHandler) BannersForPage(w http.ResponseWriter, r *http.Request) {
	page := r.URL.Query().Get("page")
	if page == "" {
		badRequest(w, r, "page", "is required")
		return
	}
	out, err := h.Eng.BannersForPage(r.Context(), page, ViewerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BannerHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	if err := h.Eng.RecordView(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BannerHandler) RecordClick(w http.ResponseWriter, r *http.Request) {
	if err := h.Eng.RecordClick(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pageViewRequest struct {
	Page string `json:"page"`
}

// TrackPageView is best effort: a tracking failure is logged, never
// returned to the storefront.
func (h *BannerHandler) TrackPageView(w http.ResponseWriter, r *http.Request) {
	var req pageViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, r, "body", "must be a JSON object")
		return
	}
	if req.Page == "" {
		badRequest(w, r, "page", "is required")
		return
	}
	if err := h.Tracker.TrackPageView(r.Context(), req.Page, h.Now()); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("page", req.Page).Msg("page view not tracked")
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BannerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in banner.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, r, "body", "must be a JSON object: "+err.Error())
		return
	}
	b, err := h.Admin.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BannerHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if raw := r.URL.Query().Get("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, r, "active", "must be true or false")
			return
		}
		activeOnly = v
	}
	out, err := h.Admin.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *BannerHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.Admin.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BannerHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p banner.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		badRequest(w, r, "body", "must be a JSON object: "+err.Error())
		return
	}
	b, err := h.Admin.Update(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BannerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Admin.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PageViews serves GET /v1/admin/analytics/pageviews?date=YYYY-MM-DD.
func (h *BannerHandler) PageViews(w http.ResponseWriter, r *http.Request) {
	day, err := analytics.ParseDay(r.URL.Query().Get("date"), h.Now())
	if err != nil {
		badRequest(w, r, "date", "must be YYYY-MM-DD")
		return
	}
	counts, err := h.Tracker.PageViews(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
