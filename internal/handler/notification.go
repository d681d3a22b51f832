package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/websocket"

	"github.com/iliyamo/orvella-storefront/internal/model"
	"github.com/iliyamo/orvella-storefront/internal/notify"
)

// NotificationStore lists persisted notifications.
type NotificationStore interface {
	Recent(ctx context.Context, limit int) ([]model.Notification, error)
}

// NotificationHandler pushes bus events to admin dashboards over a
// WebSocket and lists the persisted history.
type NotificationHandler struct {
	Bus   *notify.Bus
	Store NotificationStore
	// AllowedOrigin is the dashboard origin; empty or "*" accepts any.
	AllowedOrigin string
}

func NewNotificationHandler(bus *notify.Bus, store NotificationStore, allowedOrigin string) *NotificationHandler {
	if bus == nil || store == nil {
		panic("nil dependency passed to NewNotificationHandler")
	}
	return &NotificationHandler{Bus: bus, Store: store, AllowedOrigin: allowedOrigin}
}

// Recent returns the latest notifications, newest first.
func (h *NotificationHandler) Recent(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	ctx, cancel := dbCtx(c)
	defer cancel()

	items, err := h.Store.Recent(ctx, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "notifications": items})
}

// Stream upgrades to a WebSocket and writes every bus event published from
// now on as one JSON text frame {"id","type","category","payload","at"}.
// Nothing published earlier is replayed; a client that reconnects should
// re-pull the order list.
func (h *NotificationHandler) Stream(c echo.Context) error {
	srv := websocket.Server{
		Handshake: h.checkOrigin,
		Handler:   h.pump,
	}
	srv.ServeHTTP(c.Response(), c.Request())
	return nil
}

func (h *NotificationHandler) checkOrigin(_ *websocket.Config, r *http.Request) error {
	if h.AllowedOrigin == "" || h.AllowedOrigin == "*" {
		return nil
	}
	if origin := r.Header.Get("Origin"); origin != h.AllowedOrigin {
		return fmt.Errorf("origin %q not allowed", origin)
	}
	return nil
}

func (h *NotificationHandler) pump(ws *websocket.Conn) {
	defer ws.Close()
	sub := h.Bus.Subscribe()
	defer h.Bus.Unsubscribe(sub)

	// The dashboard never sends anything meaningful; reading only detects
	// a closed connection.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		var discard string
		for {
			if err := websocket.Message.Receive(ws, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			if err := websocket.JSON.Send(ws, ev); err != nil {
				return
			}
		}
	}
}
