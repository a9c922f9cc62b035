// Package live streams session state changes to open pages over a
// websocket, so chrome and access re-evaluate without a reload.
package live

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/louisbranch/spabooking/internal/platform/logging"
	"github.com/louisbranch/spabooking/internal/platform/timeouts"
	"github.com/louisbranch/spabooking/internal/services/web/guard"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/platform/metrics"
	"github.com/louisbranch/spabooking/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
	"github.com/louisbranch/spabooking/internal/services/web/session"
)

const pingInterval = 30 * time.Second

// Message is one session update as the browser sees it. Redirect is set
// when the watched page is no longer allowed.
type Message struct {
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
	Name          string `json:"name,omitempty"`
	Membership    string `json:"membership,omitempty"`
	Redirect      string `json:"redirect,omitempty"`
}

// Build turns state into the message for a browser showing route. A nil
// route means the page is outside the route table and never redirects.
func Build(state session.State, route *guard.Route, loc webi18n.Localizer) Message {
	msg := Message{Authenticated: state.Authenticated()}
	if who := state.Identity; who != nil {
		msg.Role = string(who.Role)
		msg.Name = who.DisplayName()
		if who.MembershipName != nil && who.MembershipStatus != nil {
			msg.Membership = *who.MembershipName + " · " + loc.T("membership.status."+string(*who.MembershipStatus))
		}
	}
	if route != nil {
		if decision := guard.Evaluate(state, *route); !decision.Allowed() {
			msg.Redirect = decision.Location
		}
	}
	return msg
}

// Handler upgrades /live/session requests and streams the request's store.
type Handler struct {
	table    guard.Table
	stores   guard.StoreResolver
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler builds the live channel. Only same-origin pages may connect.
func NewHandler(table guard.Table, stores guard.StoreResolver, policy requestmeta.SchemePolicy, logger *zap.Logger) *Handler {
	return &Handler{
		table:  table,
		stores: stores,
		logger: logging.OrNop(logger).Named("live"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return requestmeta.SameOrigin(r, policy)
			},
		},
	}
}

// ServeHTTP streams until the browser goes away or the server shuts down.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	store, ok := h.stores(r)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	var route *guard.Route
	if matched, ok := h.table.Match(r.URL.Query().Get(routepath.NextQueryKey)); ok {
		route = &matched
	}
	loc := webi18n.FromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade refused", zap.Error(err))
		return
	}
	metrics.LiveConnected()
	defer metrics.LiveDisconnected()

	// The request context of a hijacked connection only ends with the
	// server, so the reader cancels the stream when the browser leaves.
	ctx, cancel := context.WithCancel(r.Context())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		h.keepAlive(ctx, conn)
	}()

	h.stream(ctx, conn, store, route, loc)
	cancel()

	deadline := time.Now().Add(timeouts.LiveWrite)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = conn.Close()
	wg.Wait()
}

func (h *Handler) stream(ctx context.Context, conn *websocket.Conn, store *session.Store, route *guard.Route, loc webi18n.Localizer) {
	for state := range store.Observe(ctx) {
		if !state.Initialized {
			continue
		}
		msg := Build(state, route, loc)
		if err := conn.SetWriteDeadline(time.Now().Add(timeouts.LiveWrite)); err != nil {
			return
		}
		if err := conn.WriteJSON(msg); err != nil {
			h.logger.Debug("live write failed", zap.Error(err))
			return
		}
	}
}

// keepAlive pings so intermediaries keep the connection open. Control
// frames may be written concurrently with WriteJSON.
func (h *Handler) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeouts.LiveWrite)); err != nil {
				return
			}
		}
	}
}
