package controllers

import (
	"net/http"
	"strings"

	"github.com/athengaudio/storefront/api/responses"
	"github.com/athengaudio/storefront/api/validators"
	"github.com/athengaudio/storefront/internal/catalog"
	"github.com/athengaudio/storefront/pkg/logger"
)

// productView adds the derived discount to a product.
type productView struct {
	catalog.Product
	DiscountPercent int `json:"discountPercent"`
}

func viewProduct(p catalog.Product) productView {
	return productView{Product: p, DiscountPercent: p.DiscountPercent()}
}

func viewProducts(items []catalog.Product) []productView {
	out := make([]productView, 0, len(items))
	for _, p := range items {
		out = append(out, viewProduct(p))
	}
	return out
}

// ProductList serves the catalog narrowed by q, category, brand, type and a
// comma separated connectivity list.
func ProductList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := catalog.Filter{
			Query:        validators.SanitizeString(q.Get("q"), 100),
			Category:     validators.SanitizeString(q.Get("category"), 32),
			Brand:        validators.SanitizeString(q.Get("brand"), 64),
			Type:         validators.SanitizeString(q.Get("type"), 32),
			Connectivity: splitList(q.Get("connectivity")),
		}
		items, err := svc.Search(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, viewProducts(items), len(items))
	}
}

func ProductBrands(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brands, err := svc.Brands(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, brands)
	}
}

func ProductHeadphoneTypes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := svc.HeadphoneTypes(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types)
	}
}

func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, viewProduct(*product))
	}
}

func ProductRelated(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", catalog.DefaultRelatedLimit, 1, 20)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := svc.Related(r.Context(), id, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, viewProducts(items), len(items))
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
