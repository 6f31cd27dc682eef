package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nyumbaconnect/rental-api/internal/api/metrics"
	"github.com/nyumbaconnect/rental-api/internal/core/domain"
	"github.com/nyumbaconnect/rental-api/internal/core/ports"
)

// PropertyHandler handles HTTP requests for listings, images, favorites and
// the contact-unlock workflow.
type PropertyHandler struct {
	properties ports.PropertyService
	unlocks    ports.UnlockService
}

func NewPropertyHandler(properties ports.PropertyService, unlocks ports.UnlockService) *PropertyHandler {
	return &PropertyHandler{properties: properties, unlocks: unlocks}
}

// List handles GET /properties — the public filtered search.
//
// @Summary      Search active listings
// @Tags         properties
// @Produce      json
// @Param        location      query  string  false  "Location substring (case-insensitive)"
// @Param        area          query  string  false  "Area substring (case-insensitive)"
// @Param        propertyType  query  string  false  "Exact property type"
// @Param        amenities     query  string  false  "Comma-separated amenities (all must match)"
// @Param        minPrice      query  number  false  "Minimum price"
// @Param        maxPrice      query  number  false  "Maximum price"
// @Param        q             query  string  false  "Free-text search over title and description"
// @Param        page          query  int     false  "Page (1-based)"
// @Param        limit         query  int     false  "Page size (max 50)"
// @Param        sort          query  string  false  "Sort fields, e.g. -createdAt,price"
// @Success      200  {object}  apiResponse
// @Router       /properties [get]
func (h *PropertyHandler) List(c echo.Context) error {
	metrics.PropertySearchesTotal.Inc()

	result, err := h.properties.Search(c.Request().Context(), ports.SearchInput{
		Location:         c.QueryParam("location"),
		Area:             c.QueryParam("area"),
		PropertyType:     c.QueryParam("propertyType"),
		Amenities:        c.QueryParam("amenities"),
		Pets:             c.QueryParam("pets"),
		Children:         c.QueryParam("children"),
		Visitors:         c.QueryParam("visitors"),
		MinDepositMonths: c.QueryParam("minDepositMonths"),
		MaxDepositMonths: c.QueryParam("maxDepositMonths"),
		MinPrice:         c.QueryParam("minPrice"),
		MaxPrice:         c.QueryParam("maxPrice"),
		Query:            c.QueryParam("q"),
		Page:             c.QueryParam("page"),
		Limit:            c.QueryParam("limit"),
		Sort:             c.QueryParam("sort"),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: searchPropertiesResponse{
		Properties: toSummaryResponses(result.Items),
		Pagination: toPaginationResponse(result.Pagination),
		Filters:    toAppliedFiltersResponse(result.Applied),
	}})
}

// Get handles GET /properties/:id. Runs behind OptionalAuth: the response is
// projected for whoever is asking.
//
// @Summary      Get a listing
// @Tags         properties
// @Produce      json
// @Param        id   path      string  true  "Property ID"
// @Success      200  {object}  apiResponse
// @Failure      404  {object}  map[string]any
// @Router       /properties/{id} [get]
func (h *PropertyHandler) Get(c echo.Context) error {
	detail, err := h.properties.Get(c.Request().Context(), viewerFrom(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Data:    toPropertyResponse(detail.Property, detail.Visibility),
	})
}

// ListMine handles GET /properties/my-properties — the owner's own listings.
//
// @Summary      List own listings
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiResponse
// @Failure      401  {object}  map[string]any
// @Router       /properties/my-properties [get]
func (h *PropertyHandler) ListMine(c echo.Context) error {
	owner, err := requireUser(c)
	if err != nil {
		return err
	}

	result, err := h.properties.ListMine(c.Request().Context(), owner, listInput(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: listPropertiesResponse{
		Properties: toSummaryResponses(result.Items),
		Pagination: toPaginationResponse(result.Pagination),
	}})
}

// Create handles POST /properties.
//
// @Summary      Create a listing
// @Tags         properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createPropertyRequest  true  "Listing details"
// @Success      201   {object}  apiResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /properties [post]
func (h *PropertyHandler) Create(c echo.Context) error {
	owner, err := requireUser(c)
	if err != nil {
		return err
	}

	var req createPropertyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	property, err := h.properties.Create(c.Request().Context(), owner, ports.CreatePropertyInput{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		Area:          req.Area,
		Nearby:        req.Nearby,
		PropertyType:  req.PropertyType,
		Price:         req.Price,
		Amenities:     req.Amenities,
		Rules:         toRulesInput(req.Rules),
		ContactPerson: req.ContactPerson,
		ContactPhone:  req.ContactPhone,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateListing) {
			metrics.DuplicateListingsTotal.Inc()
		}
		return err
	}

	metrics.PropertiesCreatedTotal.WithLabelValues(string(property.Type)).Inc()

	return c.JSON(http.StatusCreated, apiResponse{
		Success: true,
		Message: "property created",
		Data:    toPropertyResponse(property, ports.VisibilityOwner),
	})
}

// Update handles PUT /properties/:id — owner-only partial update.
//
// @Summary      Update a listing
// @Tags         properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Property ID"
// @Param        body  body      updatePropertyRequest  true  "Fields to change"
// @Success      200   {object}  apiResponse
// @Failure      403   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /properties/{id} [put]
func (h *PropertyHandler) Update(c echo.Context) error {
	owner, err := requireUser(c)
	if err != nil {
		return err
	}

	var req updatePropertyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	property, err := h.properties.Update(c.Request().Context(), owner, c.Param("id"), ports.UpdatePropertyInput{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		Area:          req.Area,
		Nearby:        req.Nearby,
		PropertyType:  req.PropertyType,
		Price:         req.Price,
		Amenities:     req.Amenities,
		Rules:         toRulesInput(req.Rules),
		ContactPerson: req.ContactPerson,
		ContactPhone:  req.ContactPhone,
		IsActive:      req.IsActive,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateListing) {
			metrics.DuplicateListingsTotal.Inc()
		}
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: "property updated",
		Data:    toPropertyResponse(property, ports.VisibilityOwner),
	})
}

// Delete handles DELETE /properties/:id — owner-only soft delete.
//
// @Summary      Remove a listing
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Property ID"
// @Success      200  {object}  apiResponse
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /properties/{id} [delete]
func (h *PropertyHandler) Delete(c echo.Context) error {
	owner, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.properties.Delete(c.Request().Context(), owner, c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Message: "property removed"})
}

// AddImage handles POST /properties/:id/images.
//
// @Summary      Add an image to a listing
// @Tags         properties
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Property ID"
// @Param        body  body      addImageRequest  true  "Image URL and primary flag"
// @Success      201   {object}  apiResponse
// @Failure      400   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Router       /properties/{id}/images [post]
func (h *PropertyHandler) AddImage(c echo.Context) error {
	owner, err := requireUser(c)
	if err != nil {
		return err
	}

	var req addImageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	images, err := h.properties.AddImage(c.Request().Context(), owner, c.Param("id"), req.URL, req.IsPrimary)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, apiResponse{
		Success: true,
		Message: "image added",
		Data:    imagesResponse{Images: toImageResponses(images)},
	})
}

// SetPrimaryImage handles PATCH /properties/:id/images/:imageId/primary.
//
// @Summary      Make an image the listing thumbnail
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Property ID"
// @Param        imageId  path      string  true  "Image ID"
// @Success      200      {object}  apiResponse
// @Failure      404      {object}  map[string]any
// @Router       /properties/{id}/images/{imageId}/primary [patch]
func (h *PropertyHandler) SetPrimaryImage(c echo.Context) error {
	owner, err := requireUser(c)
	if err != nil {
		return err
	}

	images, err := h.properties.SetPrimaryImage(c.Request().Context(), owner, c.Param("id"), c.Param("imageId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: "primary image updated",
		Data:    imagesResponse{Images: toImageResponses(images)},
	})
}

// RemoveImage handles DELETE /properties/:id/images/:imageId.
//
// @Summary      Remove an image from a listing
// @Tags         properties
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Property ID"
// @Param        imageId  path      string  true  "Image ID"
// @Success      200      {object}  apiResponse
// @Failure      404      {object}  map[string]any
// @Router       /properties/{id}/images/{imageId} [delete]
func (h *PropertyHandler) RemoveImage(c echo.Context) error {
	owner, err := requireUser(c)
	if err != nil {
		return err
	}

	images, err := h.properties.RemoveImage(c.Request().Context(), owner, c.Param("id"), c.Param("imageId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{
		Success: true,
		Message: "image removed",
		Data:    imagesResponse{Images: toImageResponses(images)},
	})
}

// AddFavorite handles POST /properties/:id/favorite.
//
// @Summary      Bookmark a listing
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Property ID"
// @Success      200  {object}  apiResponse
// @Failure      404  {object}  map[string]any
// @Router       /properties/{id}/favorite [post]
func (h *PropertyHandler) AddFavorite(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.properties.AddFavorite(c.Request().Context(), user, c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Message: "added to favorites"})
}

// RemoveFavorite handles DELETE /properties/:id/favorite.
//
// @Summary      Remove a bookmark
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Property ID"
// @Success      200  {object}  apiResponse
// @Router       /properties/{id}/favorite [delete]
func (h *PropertyHandler) RemoveFavorite(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.properties.RemoveFavorite(c.Request().Context(), user, c.Param("id")); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Message: "removed from favorites"})
}

// ListFavorites handles GET /properties/favorites.
//
// @Summary      List bookmarked listings
// @Tags         favorites
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiResponse
// @Router       /properties/favorites [get]
func (h *PropertyHandler) ListFavorites(c echo.Context) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}

	result, err := h.properties.ListFavorites(c.Request().Context(), user, listInput(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, apiResponse{Success: true, Data: listPropertiesResponse{
		Properties: toSummaryResponses(result.Items),
		Pagination: toPaginationResponse(result.Pagination),
	}})
}

// Unlock handles POST /properties/:id/unlock — the tenant-only paid reveal of
// a listing's contact details. Replays return the original transaction.
//
// @Summary      Unlock a listing's contact details
// @Tags         unlock
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Property ID"
// @Success      200  {object}  apiResponse
// @Failure      403  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /properties/{id}/unlock [post]
func (h *PropertyHandler) Unlock(c echo.Context) error {
	tenant, err := requireUser(c)
	if err != nil {
		return err
	}

	result, err := h.unlocks.Unlock(c.Request().Context(), tenant, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnlockInProgress), errors.Is(err, domain.ErrAlreadyUnlocked):
			metrics.UnlocksTotal.WithLabelValues("conflict").Inc()
		default:
			metrics.UnlocksTotal.WithLabelValues("failed").Inc()
		}
		return err
	}

	outcome := "completed"
	message := "contact details unlocked"
	if result.AlreadyUnlocked {
		outcome = "replay"
		message = "property already unlocked"
	}
	metrics.UnlocksTotal.WithLabelValues(outcome).Inc()

	return c.JSON(http.StatusOK, apiResponse{Success: true, Message: message, Data: unlockResponse{
		TransactionID:   result.TransactionID,
		Amount:          result.Amount,
		Status:          string(result.Status),
		UnlockedAt:      result.UnlockedAt,
		AlreadyUnlocked: result.AlreadyUnlocked,
		ContactPerson:   result.ContactPerson,
		ContactPhone:    result.ContactPhone,
	}})
}

func listInput(c echo.Context) ports.ListInput {
	return ports.ListInput{
		Page:  c.QueryParam("page"),
		Limit: c.QueryParam("limit"),
		Sort:  c.QueryParam("sort"),
	}
}
