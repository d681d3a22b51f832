package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/service"
)

// OrderHandler exposes the order lifecycle to customers and admins.
type OrderHandler struct {
	Orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	if orders == nil {
		panic("nil order service passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: orders}
}

type newOrderReq struct {
	OrderItems    []model.OrderItem  `json:"orderItems"`
	ShippingInfo  model.ShippingInfo `json:"shippingInfo"`
	PaymentInfo   model.PaymentInfo  `json:"paymentInfo"`
	ItemsPrice    int64              `json:"itemsPrice"`
	TaxPrice      int64              `json:"taxPrice"`
	ShippingPrice int64              `json:"shippingPrice"`
	TotalPrice    int64              `json:"totalPrice"`
}

type statusReq struct {
	Status string `json:"status"`
}

// Create places an order for the session user.
func (h *OrderHandler) Create(c echo.Context) error {
	var req newOrderReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.Orders.Create(ctx, actor(c), service.CreateOrderInput{
		Items:         req.OrderItems,
		ShippingInfo:  req.ShippingInfo,
		PaymentInfo:   req.PaymentInfo,
		ItemsPrice:    req.ItemsPrice,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "order": o})
}

// Get returns one order to its owner or an admin.
func (h *OrderHandler) Get(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid order id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.Orders.GetByID(ctx, actor(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": o})
}

// Mine lists the session user's orders.
func (h *OrderHandler) Mine(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	orders, err := h.Orders.ListMine(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "orders": orders})
}

// List is the admin view: every order plus revenue over non-cancelled ones.
func (h *OrderHandler) List(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	orders, total, err := h.Orders.ListAll(ctx, actor(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "orders": orders, "totalAmount": total})
}

// UpdateStatus moves an order along its lifecycle.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid order id")
	}
	var req statusReq
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return badRequest(c, "status required")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	o, err := h.Orders.UpdateStatus(ctx, actor(c), id, model.OrderStatus(req.Status))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "order": o})
}

// Delete removes an order.
func (h *OrderHandler) Delete(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "invalid order id")
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if err := h.Orders.Delete(ctx, actor(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
