package controllers

import (
	"net/http"

	"github.com/athengaudio/storefront/api/responses"
	"github.com/athengaudio/storefront/api/validators"
	"github.com/athengaudio/storefront/internal/catalog"
	"github.com/athengaudio/storefront/internal/orders"
	"github.com/athengaudio/storefront/pkg/enums"
	"github.com/athengaudio/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

type productRequest struct {
	Name          string                `json:"name" validate:"required"`
	Price         decimal.Decimal       `json:"price"`
	OriginalPrice *decimal.Decimal      `json:"originalPrice"`
	Image         string                `json:"image"`
	Category      enums.ProductCategory `json:"category" validate:"required"`
	SubCategory   string                `json:"subCategory"`
	Type          string                `json:"type"`
	Brand         string                `json:"brand"`
	Description   string                `json:"description"`
	Features      []string              `json:"features"`
	InStock       bool                  `json:"inStock"`
	Rating        float64               `json:"rating"`
	Reviews       int                   `json:"reviews"`
	Specs         catalog.Specs         `json:"specs"`
}

func (p productRequest) input() catalog.ProductInput {
	return catalog.ProductInput{
		Name:          p.Name,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Image:         p.Image,
		Category:      p.Category,
		SubCategory:   p.SubCategory,
		Type:          p.Type,
		Brand:         p.Brand,
		Description:   p.Description,
		Features:      p.Features,
		InStock:       p.InStock,
		Rating:        p.Rating,
		Reviews:       p.Reviews,
		Specs:         p.Specs,
	}
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func AdminProductCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body productRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Create(r.Context(), body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminProductUpdate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body productRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), id, body.input())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminProductDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathInt64(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AdminOrderList lists every order, optionally narrowed by ?status= and paged
// like OrderList.
func AdminOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.PageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var items []orders.Order
		if status := r.URL.Query().Get("status"); status != "" {
			items, err = svc.ListByStatus(r.Context(), status)
		} else {
			items, err = svc.List(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeOrderPage(w, r, logg, items, params)
	}
}

func AdminOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func AdminOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.UpdateStatus(r.Context(), id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func AdminOrderDelete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// AdminStats combines catalog counts with order totals.
func AdminStats(products catalog.Service, svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := products.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outOfStock := 0
		for _, p := range all {
			if !p.InStock {
				outOfStock++
			}
		}
		stats, err := svc.Stats(r.Context(), len(all), outOfStock)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
