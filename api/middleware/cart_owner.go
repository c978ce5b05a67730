package middleware

import (
	"net/http"
	"strings"

	"github.com/athengaudio/storefront/api/responses"
	"github.com/athengaudio/storefront/internal/cart"
	pkgerrors "github.com/athengaudio/storefront/pkg/errors"
	"github.com/athengaudio/storefront/pkg/logger"
	"github.com/google/uuid"
)

// CartIDHeader carries the guest cart id between client and server.
const CartIDHeader = "X-Cart-Id"

const maxCartIDLength = 64

// CartOwner resolves whose cart a request addresses. Signed-in users own
// "user:<id>". Guests own "guest:<X-Cart-Id>"; a guest without the header is
// issued a fresh id in the response header.
func CartOwner(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var owner string
			if uid := UserIDFromContext(r.Context()); uid != 0 {
				owner = cart.OwnerForUser(uid)
			} else {
				guestID := strings.TrimSpace(r.Header.Get(CartIDHeader))
				if guestID == "" {
					guestID = uuid.NewString()
				}
				if len(guestID) > maxCartIDLength || strings.ContainsAny(guestID, ": ") {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Field(CartIDHeader, "cart id is not valid"))
					return
				}
				w.Header().Set(CartIDHeader, guestID)
				owner = cart.OwnerForGuest(guestID)
			}

			ctx := WithCartOwner(r.Context(), owner)
			if logg != nil {
				ctx = logg.WithCartOwner(ctx, owner)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
