package v1

import (
	"errors"
	"net/http"

	"storefront-catalog/internal/domain"
	"storefront-catalog/internal/usecase"
	"storefront-catalog/pkg/logger"
	"storefront-catalog/pkg/utils"
)

type CatalogHandler struct {
	catalogUC *usecase.CatalogUsecase
}

func NewCatalogHandler(uc *usecase.CatalogUsecase) *CatalogHandler {
	return &CatalogHandler{catalogUC: uc}
}

func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalogUC.GetCategories(r.Context())
	if err != nil {
		logger.WithContext(r.Context()).Error().Err(err).Msg("failed to load categories")
		utils.WriteError(w, http.StatusBadGateway, "Failed to load categories")
		return
	}
	utils.WriteJSON(w, http.StatusOK, domain.Response{Success: true, Data: cats})
}

// ListProducts serves one page for the address carried in the query string,
// using the same keys as browse-session addresses.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalogUC.ListProducts(r.Context(), r.URL.RawQuery)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrQueryFailed) {
			status = http.StatusBadGateway
		}
		logger.WithContext(r.Context()).Error().Err(err).Msg("failed to list products")
		utils.WriteError(w, status, "We couldn't load products.")
		return
	}

	utils.WriteJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Data:    listing.Items,
		Meta: map[string]interface{}{
			"pagination": listing.Pagination,
			"criteria":   listing.Criteria,
			"address":    listing.Address,
		},
	})
}
