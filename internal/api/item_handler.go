package api

import (
	"net/http"

	"github.com/phrazzld/keystone-api/internal/api/shared"
	"github.com/phrazzld/keystone-api/internal/domain"
	"github.com/phrazzld/keystone-api/internal/platform/logger"
	"github.com/phrazzld/keystone-api/internal/store"
)

// ItemHandler serves application data from the server context.
type ItemHandler struct {
	items store.ItemStore
}

// NewItemHandler creates an ItemHandler.
func NewItemHandler(items store.ItemStore) *ItemHandler {
	return &ItemHandler{items: items}
}

// List returns every item ordered by name.
//
// @Summary   List items
// @Tags      items
// @Produce   json
// @Security  BearerAuth
// @Success   200  {array}   ItemResponse
// @Failure   401  {object}  shared.ErrorResponse
// @Router    /api/items [get]
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.List(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list items")
		return
	}

	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, itemToResponse(&items[i]))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// Get returns one item.
//
// @Summary   Get an item
// @Tags      items
// @Produce   json
// @Security  BearerAuth
// @Param     id   path      string  true  "Item ID"
// @Success   200  {object}  ItemResponse
// @Failure   404  {object}  shared.ErrorResponse
// @Router    /api/items/{id} [get]
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	item, err := h.items.GetByID(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, itemToResponse(item))
}

// Create adds an item. Restricted to administrators by the router.
//
// @Summary   Create an item
// @Tags      items
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body      CreateItemRequest  true  "Item"
// @Success   201   {object}  ItemResponse
// @Failure   403   {object}  shared.ErrorResponse
// @Failure   409   {object}  shared.ErrorResponse
// @Router    /api/items [post]
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	item, err := domain.NewItem(req.Name, req.Description)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.items.Create(r.Context(), item); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	logger.FromContext(r.Context()).Info("item created", "item_id", item.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, itemToResponse(item))
}
