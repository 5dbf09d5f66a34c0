package v1

import (
	"errors"
	"net/http"

	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/usecase"
	"storefront-catalog/pkg/logger"
	"storefront-catalog/pkg/utils"
)

const maxBrowseBody = 16 << 10

type BrowseHandler struct {
	sessions *usecase.SessionRegistry
}

func NewBrowseHandler(sessions *usecase.SessionRegistry) *BrowseHandler {
	return &BrowseHandler{sessions: sessions}
}

type openSessionRequest struct {
	Address  string `json:"address"`
	ClientID string `json:"clientId"`
}

type searchRequest struct {
	Text string `json:"text"`
}

type sortRequest struct {
	Sort string `json:"sort"`
}

type advancedRequest struct {
	PriceMin    float64  `json:"priceMin"`
	PriceMax    float64  `json:"priceMax"`
	RatingFloor *int     `json:"ratingFloor"`
	Brands      []string `json:"brands"`
	Tags        []string `json:"tags"`
}

type pageRequest struct {
	Page int `json:"page"`
}

type densityRequest struct {
	Density string `json:"density"`
}

// Open mounts a new session from an address.
func (h *BrowseHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := utils.DecodeJSON(r, maxBrowseBody, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	_, snap, err := h.sessions.Open(r.Context(), req.Address, req.ClientID)
	if err != nil {
		writeSessionResult(w, r, snap, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, domain.Response{Success: true, Data: snap})
}

func (h *BrowseHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.Snapshot(), nil
	})
}

func (h *BrowseHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.PathValue("id")); err != nil {
		writeSessionResult(w, r, usecase.SessionSnapshot{}, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BrowseHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.TypeSearch(req.Text), nil
	})
}

func (h *BrowseHandler) ToggleCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryId")
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.ToggleCategory(r.Context(), categoryID)
	})
}

func (h *BrowseHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if !decode(w, r, &req) {
		return
	}
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.SetSort(r.Context(), req.Sort)
	})
}

func (h *BrowseHandler) ToggleInStock(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.ToggleStockOnly(r.Context())
	})
}

func (h *BrowseHandler) ToggleOnSale(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.ToggleSaleOnly(r.Context())
	})
}

func (h *BrowseHandler) SetAdvanced(w http.ResponseWriter, r *http.Request) {
	var req advancedRequest
	if !decode(w, r, &req) {
		return
	}
	block := domain.AdvancedFilters{
		PriceRange:  domain.PriceRange{Min: req.PriceMin, Max: req.PriceMax},
		RatingFloor: req.RatingFloor,
		Brands:      req.Brands,
		Tags:        req.Tags,
	}
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.SetAdvanced(r.Context(), block)
	})
}

func (h *BrowseHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.ClearAll(r.Context())
	})
}

func (h *BrowseHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.LoadMore(r.Context())
	})
}

// GoToPage clamps pages below 1 to the first page.
func (h *BrowseHandler) GoToPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if !decode(w, r, &req) {
		return
	}
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.GoToPage(r.Context(), req.Page)
	})
}

func (h *BrowseHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.Retry(r.Context())
	})
}

func (h *BrowseHandler) SetViewDensity(w http.ResponseWriter, r *http.Request) {
	var req densityRequest
	if !decode(w, r, &req) {
		return
	}
	h.withSession(w, r, func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error) {
		return s.SetViewDensity(r.Context(), req.Density)
	})
}

func (h *BrowseHandler) withSession(w http.ResponseWriter, r *http.Request, fn func(s *usecase.BrowseSession) (usecase.SessionSnapshot, error)) {
	s, err := h.sessions.Get(r.PathValue("id"))
	if err != nil {
		writeSessionResult(w, r, usecase.SessionSnapshot{}, err)
		return
	}
	snap, err := fn(s)
	if err != nil {
		writeSessionResult(w, r, snap, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: snap})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := utils.DecodeJSON(r, maxBrowseBody, v); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeSessionResult maps session errors to statuses. Fetch failures still
// carry the snapshot: its error state is what the client renders.
func writeSessionResult(w http.ResponseWriter, r *http.Request, snap usecase.SessionSnapshot, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		utils.WriteError(w, http.StatusNotFound, "Browse session not found")
	case errors.Is(err, domain.ErrControllerClosed):
		utils.WriteError(w, http.StatusGone, "Browse session closed")
	case errors.Is(err, domain.ErrInvalidSort),
		errors.Is(err, domain.ErrInvalidViewDensity),
		errors.Is(err, domain.ErrInvalidPriceRange):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrQueryFailed), errors.Is(err, domain.ErrIncrementalFetchFailed):
		logger.WithContext(r.Context()).Warn().Err(err).Str("session_id", snap.ID).Msg("catalog fetch failed")
		message := "We couldn't load products."
		if snap.State.Error != nil {
			message = snap.State.Error.Message
		}
		utils.WriteJSON(w, http.StatusBadGateway, domain.Response{Success: false, Message: message, Data: snap})
	default:
		logger.WithContext(r.Context()).Error().Err(err).Msg("browse request failed")
		utils.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}
