package invoice

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/invoice/required-data", h.RequiredData)
	api.GET("/invoice/all", h.List)
	api.GET("/invoice/:invoiceId", h.Get)
	api.POST("/invoice/add", h.Create)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Invoice not found")
	case errors.Is(err, ErrIDExhausted):
		return echo.NewHTTPError(http.StatusInternalServerError,
			"Failed to generate a unique invoice ID, please try again").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process invoice").SetInternal(err)
	}
}

func (h *Handler) RequiredData(c echo.Context) error {
	data, err := h.svc.RequiredData(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, data)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inv, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"invoiceId": inv.InvoiceID,
		"link":      h.svc.Link(inv.InvoiceID),
	})
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Invoice{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	inv, err := h.svc.GetByInvoiceID(c.Request().Context(), c.Param("invoiceId"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, inv)
}
