package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/service"
)

// ProductHandler serves the public catalog and the admin product editor.
type ProductHandler struct {
	Catalog *service.CatalogService
}

func NewProductHandler(catalog *service.CatalogService) *ProductHandler {
	if catalog == nil {
		panic("nil catalog service passed to NewProductHandler")
	}
	return &ProductHandler{Catalog: catalog}
}

type productReq struct {
	Name        string        `json:"name"`
	Price       int64         `json:"price"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Stock       int           `json:"stock"`
	Images      []model.Image `json:"images"`
}

func (r productReq) product() model.Product {
	return model.Product{
		Name:        r.Name,
		Price:       r.Price,
		Description: r.Description,
		Category:    r.Category,
		Stock:       r.Stock,
		Images:      r.Images,
	}
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	products, err := h.Catalog.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "products": products, "productsCount": len(products)})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid product id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Catalog.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "product": p})
}

// Create initializes the master product.
func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Catalog.Initialize(ctx, actor(c), req.product())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "product": p})
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	p, err := h.Catalog.Update(ctx, actor(c), id, req.product())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "product": p})
}
