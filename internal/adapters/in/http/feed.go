package http

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	feedWriteWait  = 10 * time.Second
	feedPongWait   = 60 * time.Second
	feedPingPeriod = 54 * time.Second
	feedReadLimit  = 512
)

// OrderFeed handles GET /api/v1/orders/feed. After the websocket upgrade
// every snapshot of the matching orders is sent as one FeedMessage. The
// subscription ends when the client disconnects.
func (s *Server) OrderFeed(ctx echo.Context) error {
	query, err := s.listOrdersQuery(ctx)
	if err != nil {
		return s.writeError(ctx, err)
	}

	conn, err := s.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		s.logger.WithError(err).Warn("failed to upgrade order feed connection")
		return nil
	}
	defer conn.Close()

	if s.subscribers != nil {
		s.subscribers.Inc()
		defer s.subscribers.Dec()
	}

	subCtx, cancel := context.WithCancel(context.WithoutCancel(ctx.Request().Context()))
	defer cancel()

	sub := s.orderFeed.Subscribe(subCtx, query)
	defer sub.Close()

	go s.readFeedClient(conn, cancel)

	ticker := time.NewTicker(feedPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snapshot, ok := <-sub.Snapshots():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(feedWriteWait))
				return nil
			}

			message := FeedMessage{Orders: toOrderResponses(snapshot.Orders)}
			if snapshot.Err != nil {
				response := errorResponse(snapshot.Err)
				message = FeedMessage{Error: &response}
			}

			_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
			if err = conn.WriteJSON(message); err != nil {
				return nil
			}

		case <-ticker.C:
			if err = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
				return nil
			}
		}
	}
}

// readFeedClient discards client messages and cancels the subscription once
// the connection is closed or stops answering pings.
func (s *Server) readFeedClient(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(feedReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(feedPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(feedPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WithError(err).Debug("order feed client gone")
			}
			return
		}
	}
}
