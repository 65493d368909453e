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
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckoons/Tekton-sub001/services/dashboard/metrics"
	"github.com/ckoons/Tekton-sub001/services/dashboard/stream"
)

// wsMessage is loose enough to hold both acks and sample events.
type wsMessage struct {
	Action    string   `json:"action"`
	SessionID string   `json:"session_id"`
	Channels  []string `json:"channels"`
	Error     string   `json:"error"`

	Channel string `json:"channel"`
	Sample  *struct {
		Timestamp int64 `json:"timestamp"`
	} `json:"sample"`
	Replay bool `json:"replay"`
}

// dialTestSocket spins up the endpoint and connects one client.
func dialTestSocket(t *testing.T, store *metrics.Store, broker *stream.Broker) (*websocket.Conn, func()) {
	t.Helper()

	router := gin.New()
	router.GET("/v1/ws/metrics", MetricsWebSocket(store, broker))
	server := httptest.NewServer(router)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/ws/metrics"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		server.Close()
	}
	return conn, cleanup
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestMetricsWebSocket_SessionAndPing(t *testing.T) {
	store := metrics.New(metrics.Config{})
	broker := stream.NewBroker()
	defer broker.Close()

	conn, cleanup := dialTestSocket(t, store, broker)
	defer cleanup()

	hello := readMessage(t, conn)
	assert.Equal(t, "session_created", hello.Action)
	assert.NotEmpty(t, hello.SessionID)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))
	assert.Equal(t, "pong", readMessage(t, conn).Action)
}

func TestMetricsWebSocket_SubscribeReplaysThenStreams(t *testing.T) {
	store := metrics.New(metrics.Config{})
	broker := stream.NewBroker()
	defer broker.Close()

	store.RecordAt("cpu", metrics.NewScalar(1), 100)
	store.RecordAt("cpu", metrics.NewScalar(2), 200)
	store.RecordAt("memory", metrics.NewScalar(3), 300)

	conn, cleanup := dialTestSocket(t, store, broker)
	defer cleanup()
	readMessage(t, conn) // session_created

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"action":   "subscribe",
		"channels": []string{"cpu"},
	}))

	// Replay of the retained cpu history, oldest first, then the ack.
	first := readMessage(t, conn)
	require.True(t, first.Replay)
	assert.Equal(t, "cpu", first.Channel)
	assert.Equal(t, int64(100), first.Sample.Timestamp)

	second := readMessage(t, conn)
	require.True(t, second.Replay)
	assert.Equal(t, int64(200), second.Sample.Timestamp)

	ack := readMessage(t, conn)
	assert.Equal(t, "subscribed", ack.Action)
	assert.Equal(t, []string{"cpu"}, ack.Channels)

	// Live events follow, filtered to the subscription.
	broker.Publish(stream.Event{
		Channel: "memory",
		Sample:  metrics.Sample{Timestamp: 400, Value: metrics.NewScalar(4)},
	})
	broker.Publish(stream.Event{
		Channel: "cpu",
		Sample:  metrics.Sample{Timestamp: 500, Value: metrics.NewScalar(5)},
	})

	live := readMessage(t, conn)
	assert.False(t, live.Replay)
	assert.Equal(t, "cpu", live.Channel, "memory event should have been filtered out")
	assert.Equal(t, int64(500), live.Sample.Timestamp)
}

func TestMetricsWebSocket_SubscribeAllWhenChannelsOmitted(t *testing.T) {
	store := metrics.New(metrics.Config{})
	broker := stream.NewBroker()
	defer broker.Close()

	conn, cleanup := dialTestSocket(t, store, broker)
	defer cleanup()
	readMessage(t, conn) // session_created

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe"}))
	assert.Equal(t, "subscribed", readMessage(t, conn).Action)

	broker.Publish(stream.Event{
		Channel: "anything.at.all",
		Sample:  metrics.Sample{Timestamp: 100, Value: metrics.NewScalar(1)},
	})
	assert.Equal(t, "anything.at.all", readMessage(t, conn).Channel)
}

func TestMetricsWebSocket_InvalidSubscribeKeepsSession(t *testing.T) {
	store := metrics.New(metrics.Config{})
	broker := stream.NewBroker()
	defer broker.Close()

	conn, cleanup := dialTestSocket(t, store, broker)
	defer cleanup()
	readMessage(t, conn) // session_created

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"action":   "subscribe",
		"channels": []string{"NOT A CHANNEL"},
	}))
	errMsg := readMessage(t, conn)
	assert.Equal(t, "error", errMsg.Action)
	assert.NotEmpty(t, errMsg.Error)

	// The session survives a bad subscribe.
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))
	assert.Equal(t, "pong", readMessage(t, conn).Action)
}

func TestMetricsWebSocket_ResubscribeSwapsFilter(t *testing.T) {
	store := metrics.New(metrics.Config{})
	broker := stream.NewBroker()
	defer broker.Close()

	conn, cleanup := dialTestSocket(t, store, broker)
	defer cleanup()
	readMessage(t, conn) // session_created

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"action": "subscribe", "channels": []string{"cpu"},
	}))
	require.Equal(t, "subscribed", readMessage(t, conn).Action)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"action": "subscribe", "channels": []string{"memory"},
	}))
	require.Equal(t, "subscribed", readMessage(t, conn).Action)

	broker.Publish(stream.Event{
		Channel: "cpu",
		Sample:  metrics.Sample{Timestamp: 100, Value: metrics.NewScalar(1)},
	})
	broker.Publish(stream.Event{
		Channel: "memory",
		Sample:  metrics.Sample{Timestamp: 200, Value: metrics.NewScalar(2)},
	})

	msg := readMessage(t, conn)
	assert.Equal(t, "memory", msg.Channel, "old cpu subscription should be replaced")
}

func TestMetricsWebSocket_DisconnectUnsubscribes(t *testing.T) {
	store := metrics.New(metrics.Config{})
	broker := stream.NewBroker()
	defer broker.Close()

	conn, cleanup := dialTestSocket(t, store, broker)
	defer cleanup()
	readMessage(t, conn) // session_created

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe"}))
	require.Equal(t, "subscribed", readMessage(t, conn).Action)
	require.Equal(t, 1, broker.SubscriberCount())

	conn.Close()

	require.Eventually(t, func() bool {
		return broker.SubscriberCount() == 0
	}, 2*time.Second, 10*time.Millisecond, "closing the socket must drop the broker subscription")
}
