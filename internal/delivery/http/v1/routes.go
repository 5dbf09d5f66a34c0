package v1

import "net/http"

// RegisterRoutes mounts the catalog and browse-session API on mux.
func RegisterRoutes(mux *http.ServeMux, catalog *CatalogHandler, browse *BrowseHandler) {
	// Catalog (stateless)
	mux.HandleFunc("GET /api/v1/categories", catalog.GetCategories)
	mux.HandleFunc("GET /api/v1/products", catalog.ListProducts)

	// Browse sessions
	mux.HandleFunc("POST /api/v1/browse/sessions", browse.Open)
	mux.HandleFunc("GET /api/v1/browse/sessions/{id}", browse.Get)
	mux.HandleFunc("DELETE /api/v1/browse/sessions/{id}", browse.Close)
	mux.HandleFunc("PUT /api/v1/browse/sessions/{id}/search", browse.Search)
	mux.HandleFunc("POST /api/v1/browse/sessions/{id}/categories/{categoryId}/toggle", browse.ToggleCategory)
	mux.HandleFunc("PUT /api/v1/browse/sessions/{id}/sort", browse.SetSort)
	mux.HandleFunc("POST /api/v1/browse/sessions/{id}/filters/in-stock/toggle", browse.ToggleInStock)
	mux.HandleFunc("POST /api/v1/browse/sessions/{id}/filters/on-sale/toggle", browse.ToggleOnSale)
	mux.HandleFunc("PUT /api/v1/browse/sessions/{id}/filters/advanced", browse.SetAdvanced)
	mux.HandleFunc("DELETE /api/v1/browse/sessions/{id}/filters", browse.ClearFilters)
	mux.HandleFunc("POST /api/v1/browse/sessions/{id}/more", browse.LoadMore)
	mux.HandleFunc("PUT /api/v1/browse/sessions/{id}/page", browse.GoToPage)
	mux.HandleFunc("POST /api/v1/browse/sessions/{id}/retry", browse.Retry)
	mux.HandleFunc("PUT /api/v1/browse/sessions/{id}/view-density", browse.SetViewDensity)

	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler)
}
