package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/caspian-bazaar/api/internal/domain"
	"github.com/caspian-bazaar/api/internal/locale"
	"github.com/caspian-bazaar/api/internal/platform/auth"
	"github.com/caspian-bazaar/api/internal/platform/httpx"
	"github.com/caspian-bazaar/api/internal/services"
)

const maxWishlistBodySize = 4 * 1024

// WishlistHandlers exposes the authenticated wishlist endpoints.
type WishlistHandlers struct {
	authn     *auth.Authenticator
	wishlists services.WishlistService
	locales   *locale.Resolver
}

// NewWishlistHandlers constructs handlers enforcing Firebase authentication
// before invoking the wishlist service.
func NewWishlistHandlers(authn *auth.Authenticator, wishlists services.WishlistService, locales *locale.Resolver) *WishlistHandlers {
	return &WishlistHandlers{authn: authn, wishlists: wishlists, locales: locales}
}

// Routes wires the /wishlist endpoints onto the provided router.
func (h *WishlistHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleUser, auth.RoleAdmin))
	}
	r.Get("/", h.list)
	r.Post("/", h.add)
	r.Delete("/{productID}", h.remove)
	r.Post("/{productID}/toggle", h.toggle)
	r.Post("/{productID}/move-to-cart", h.moveToCart)
}

type wishlistResponse struct {
	Entries []wishlistEntryPayload `json:"entries"`
}

type wishlistEntryPayload struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	AddedAt   string  `json:"addedAt,omitempty"`
}

type addWishlistRequest struct {
	ProductID string `json:"productId"`
}

type togglePayload struct {
	ProductID string `json:"productId"`
	Present   bool   `json:"present"`
}

func (h *WishlistHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	entries, err := h.wishlists.List(ctx, uid)
	if err != nil {
		writeWishlistError(ctx, w, err)
		return
	}

	payload := wishlistResponse{Entries: make([]wishlistEntryPayload, 0, len(entries))}
	for _, entry := range entries {
		payload.Entries = append(payload.Entries, buildWishlistEntryPayload(entry))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *WishlistHandlers) add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxWishlistBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req addWishlistRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "productId is required", http.StatusBadRequest))
		return
	}

	entry, created, err := h.wishlists.Add(ctx, uid, req.ProductID, requestLocale(r, h.locales))
	if err != nil {
		writeWishlistError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, buildWishlistEntryPayload(entry))
}

func (h *WishlistHandlers) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	if err := h.wishlists.Remove(ctx, uid, chi.URLParam(r, "productID")); err != nil {
		writeWishlistError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WishlistHandlers) toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	productID := chi.URLParam(r, "productID")
	present, err := h.wishlists.Toggle(ctx, uid, productID, requestLocale(r, h.locales))
	if err != nil {
		writeWishlistError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, togglePayload{ProductID: productID, Present: present})
}

func (h *WishlistHandlers) moveToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	cart, err := h.wishlists.MoveToCart(ctx, uid, chi.URLParam(r, "productID"), requestLocale(r, h.locales))
	if err != nil {
		writeWishlistError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: buildCartPayload(cart)})
}

func (h *WishlistHandlers) requireIdentity(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.wishlists == nil {
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_service_unavailable", "wishlist service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return "", false
	}
	return identity.UID, true
}

func buildWishlistEntryPayload(entry domain.WishlistEntry) wishlistEntryPayload {
	return wishlistEntryPayload{
		ProductID: entry.ProductID,
		Name:      entry.Name,
		Price:     entry.Price,
		AddedAt:   formatTime(entry.AddedAt),
	}
}

func writeWishlistError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrWishlistInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrWishlistNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_not_found", "product or wishlist entry not found", http.StatusNotFound))
	case errors.Is(err, services.ErrWishlistConflict):
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_conflict", "wishlist has been modified; refresh and retry", http.StatusConflict))
	case errors.Is(err, services.ErrWishlistUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_service_unavailable", "wishlist service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_error", "failed to serve wishlist request", http.StatusInternalServerError))
	}
}
