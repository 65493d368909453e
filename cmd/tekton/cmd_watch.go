// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/ckoons/Tekton-sub001/pkg/logging"
	"github.com/ckoons/Tekton-sub001/pkg/ux"
	"github.com/ckoons/Tekton-sub001/services/dashboard/datatypes"
)

// watchCmd streams live samples over the dashboard's WebSocket.
//
// # Examples
//
//	tekton watch                 # all channels
//	tekton watch cpu memory      # only these channels
//	tekton watch --json cpu      # one JSON object per line
//
// The server replays each subscribed channel's retained history first
// (marked "replay"), then streams live. Ctrl-C exits.
var watchCmd = &cobra.Command{
	Use:   "watch [channels...]",
	Short: "Stream live metric samples to the terminal",
	Run:   runWatch,
}

func runWatch(cmd *cobra.Command, args []string) {
	log := logging.New(logging.Config{
		Service: "tekton-cli",
		Quiet:   jsonOutput,
	})
	defer log.Close()

	client := newClient()
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx,
		client.wsURL("/v1/ws/metrics"), nil)
	if err != nil {
		ux.Error(fmt.Sprintf("failed to connect: %v", err))
		os.Exit(1)
	}
	defer conn.Close()

	if err := conn.WriteJSON(datatypes.WSRequest{
		Action:   "subscribe",
		Channels: args,
	}); err != nil {
		ux.Error(fmt.Sprintf("subscribe failed: %v", err))
		os.Exit(1)
	}

	// Reader goroutine feeds the printer; Ctrl-C closes the socket, which
	// unblocks the read.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if !jsonOutput {
		if len(args) == 0 {
			ux.Muted("watching all channels (Ctrl-C to stop)")
		} else {
			ux.Muted(fmt.Sprintf("watching %v (Ctrl-C to stop)", args))
		}
	}

	for {
		var raw json.RawMessage
		if err := conn.ReadJSON(&raw); err != nil {
			if ctx.Err() != nil {
				return // interrupted
			}
			log.Warn("stream closed", "error", err)
			return
		}
		printStreamMessage(log, raw)
	}
}

// printStreamMessage renders one server message. Control acks are logged at
// debug level; sample events go to stdout.
func printStreamMessage(log *logging.Logger, raw json.RawMessage) {
	var event datatypes.WSEvent
	if err := json.Unmarshal(raw, &event); err != nil || event.Channel == "" {
		// Control message (session_created, subscribed, pong, error).
		var ack datatypes.WSAck
		if json.Unmarshal(raw, &ack) == nil && ack.Error != "" {
			ux.Error(ack.Error)
			os.Exit(1)
		}
		log.Debug("stream control message", "payload", string(raw))
		return
	}

	if jsonOutput {
		fmt.Println(string(raw))
		return
	}

	line := fmt.Sprintf("%s  %-20s %s",
		time.UnixMilli(event.Sample.Timestamp).Format("15:04:05.000"),
		event.Channel,
		formatValue(event.Sample.Value))
	if event.Replay {
		ux.Muted(line + "  (replay)")
		return
	}
	fmt.Println(line)
}
