// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ckoons/Tekton-sub001/services/dashboard/datatypes"
	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
	"github.com/ckoons/Tekton-sub001/services/dashboard/observability"
	"github.com/ckoons/Tekton-sub001/services/dashboard/stream"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 4 * 1024,
}

// wsSession serializes writes to one WebSocket connection. The live pump
// goroutine and the read loop both write; gorilla connections allow only
// one concurrent writer.
type wsSession struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// send writes v as JSON under the session's write lock.
func (s *wsSession) send(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.conn.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

// pump forwards live broker events until the subscription closes or a
// write fails.
func (s *wsSession) pump(events <-chan stream.Event) {
	for event := range events {
		err := s.send(datatypes.WSEvent{
			Channel: event.Channel,
			Sample:  event.Sample,
		})
		if err != nil {
			return
		}
	}
}

// MetricsWebSocket handles GET /v1/ws/metrics.
//
// # Description
//
// The live metrics stream behind the dashboard's charts. Protocol:
//
//  1. On connect the server sends {"action":"session_created",
//     "session_id":...}.
//  2. The client sends {"action":"subscribe","channels":[...]}; empty or
//     omitted channels means every channel. Re-subscribing swaps the
//     selection without reconnecting.
//  3. Each subscribe first replays the retained history of the selected
//     channels (marked "replay":true) so a fresh chart fills instantly,
//     then live samples follow as {"channel":...,"sample":{...}}.
//  4. {"action":"ping"} is answered with {"action":"pong"}.
//
// A client that falls behind has events dropped by the broker rather than
// back-pressuring producers; the stream favors freshness over completeness.
func MetricsWebSocket(store *metrics.Store, broker *stream.Broker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("Failed to upgrade the websocket", "error", err)
			return
		}
		defer ws.Close()

		sessionID := uuid.New().String()
		slog.Info("WebSocket metrics session started", "session_id", sessionID)
		if m := observability.DefaultMetrics; m != nil {
			m.WSConnected()
			defer m.WSDisconnected()
		}
		defer broker.Unsubscribe(sessionID)

		session := &wsSession{conn: ws}
		if err := session.send(datatypes.WSAck{
			Action:    "session_created",
			SessionID: sessionID,
		}); err != nil {
			return
		}

		var pumpOnce sync.Once

		for {
			var req datatypes.WSRequest
			if err := ws.ReadJSON(&req); err != nil {
				slog.Info("WebSocket metrics session closed",
					"session_id", sessionID, "reason", err.Error())
				return
			}

			switch req.Action {
			case "ping":
				if session.send(datatypes.WSAck{Action: "pong"}) != nil {
					return
				}

			case "subscribe":
				if err := req.Validate(); err != nil {
					if session.send(datatypes.WSAck{Action: "error", Error: err.Error()}) != nil {
						return
					}
					continue
				}

				events, err := broker.Subscribe(sessionID, req.Channels)
				if err != nil {
					// Broker closed: the service is shutting down.
					session.send(datatypes.WSAck{Action: "error", Error: err.Error()})
					return
				}
				pumpOnce.Do(func() {
					go session.pump(events)
				})

				replayHistory(session, store, req.Channels)
				if session.send(datatypes.WSAck{
					Action:    "subscribed",
					SessionID: sessionID,
					Channels:  req.Channels,
				}) != nil {
					return
				}

			default:
				if session.send(datatypes.WSAck{
					Action: "error",
					Error:  "unknown action: " + req.Action,
				}) != nil {
					return
				}
			}
		}
	}
}

// replayHistory sends the retained samples of the subscribed channels so a
// newly attached chart starts full instead of empty.
func replayHistory(session *wsSession, store *metrics.Store, channels []string) {
	if len(channels) == 0 {
		channels = store.Channels()
	}
	for _, name := range channels {
		for _, sample := range store.History(name) {
			if session.send(datatypes.WSEvent{
				Channel: name,
				Sample:  sample,
				Replay:  true,
			}) != nil {
				return
			}
		}
	}
}
