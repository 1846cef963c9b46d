package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"group-chat-service/internal/observability"
)

// SocketHandler owns the realtime endpoint. Connections are accepted without
// an auth check: room membership is client-asserted on this surface, and the
// REST API is the authenticated one.
type SocketHandler struct {
	hub        *Hub
	dispatcher *Dispatcher
}

// NewSocketHandler constructs a SocketHandler.
func NewSocketHandler(hub *Hub, dispatcher *Dispatcher) *SocketHandler {
	return &SocketHandler{hub: hub, dispatcher: dispatcher}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and pumps inbound frames to the dispatcher.
func (h *SocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("group-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := newWSClient(info.ConnID, conn)

	observability.IncWSActive("relay")
	observability.IncWSEvent("relay", "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.relay", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload(info, "ws_connect", 0, ""),
	}, observability.BuildHeaders(info.RequestID, info.TraceID))

	go func() {
		var closeReason string
		defer func() {
			h.dispatcher.Disconnect(client)
			conn.Close()
			observability.DecWSActive("relay")
			observability.IncWSEvent("relay", "ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.relay", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload(info, "ws_disconnect", time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.BuildHeaders(info.RequestID, info.TraceID))
		}()
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("relay", "ws_error")
				}
				return
			}
			h.dispatcher.Dispatch(client, raw)
		}
	}()
}

func wsEventPayload(info ConnInfo, event string, durationMS int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"ip": info.IP,
		},
	}
}
