package catalog

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/test/all", h.List)
	api.GET("/test/categories", h.ListCategories)
	api.GET("/test/catalog", h.ListCatalog)
	api.GET("/test/schema/:testId", h.ListActiveSchemas)
	api.GET("/test/:testId", h.Get)
	api.POST("/test", h.Create)
	api.PATCH("/test/:testId", h.Patch)
	api.DELETE("/test/:testId", h.Delete)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNameTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "Test name already exists")
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Test not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process test").SetInternal(err)
	}
}

func parseTestID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("testId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid test ID format")
	}
	return id, nil
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*LabTest{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	testID, err := parseTestID(c)
	if err != nil {
		return err
	}
	t, err := h.svc.GetByTestID(c.Request().Context(), testID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) Patch(c echo.Context) error {
	testID, err := parseTestID(c)
	if err != nil {
		return err
	}
	var in PatchInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Patch(c.Request().Context(), testID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) Delete(c echo.Context) error {
	testID, err := parseTestID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteByTestID(c.Request().Context(), testID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Test deleted successfully"})
}

func (h *Handler) ListCategories(c echo.Context) error {
	items, err := h.svc.ListCategories(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*TestCategory{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListCatalog(c echo.Context) error {
	items, err := h.svc.ListCatalog(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*CatalogEntry{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListActiveSchemas(c echo.Context) error {
	testID, err := parseTestID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListActiveSchemas(c.Request().Context(), testID)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*TestSchema{}
	}
	return c.JSON(http.StatusOK, items)
}
