package staff

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
	api.GET("/staffs", h.List)
	api.GET("/staff/:id", h.Get)
	api.GET("/staff/username/:username", h.GetByUsername)
	api.GET("/staff/active/list", h.ListActive)
	api.GET("/staff/permission/:permission", h.ListWithPermission)
	api.POST("/staff/add", h.Create)
	api.PUT("/staff/edit/:id", h.Update)
	api.PATCH("/staff/:id/activate", h.Activate)
	api.PATCH("/staff/:id/deactivate", h.Deactivate)
	api.PATCH("/staff/:id/permissions", h.PatchPermission)
	api.DELETE("/staff/:id", h.Delete)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrUsernameTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "Username already exists")
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Staff not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process staff").SetInternal(err)
	}
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid staff ID format")
	}
	return id, nil
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Staff{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	member, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, member)
}

func (h *Handler) GetByUsername(c echo.Context) error {
	member, err := h.svc.GetByUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, member)
}

func (h *Handler) ListActive(c echo.Context) error {
	items, err := h.svc.ListActive(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Staff{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListWithPermission(c echo.Context) error {
	items, err := h.svc.ListWithPermission(c.Request().Context(), c.Param("permission"))
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Staff{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	member, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"_id": member.ID})
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	member, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, member)
}

func (h *Handler) Activate(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Activate(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Staff activated successfully",
		"_id":     id,
	})
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Deactivate(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Staff deactivated successfully",
		"_id":     id,
	})
}

type patchPermissionRequest struct {
	Permission string `json:"permission"`
	Value      *bool  `json:"value"`
}

func (h *Handler) PatchPermission(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req patchPermissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	member, err := h.svc.PatchPermission(c.Request().Context(), id, req.Permission, req.Value)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, member)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Staff deleted successfully"})
}
