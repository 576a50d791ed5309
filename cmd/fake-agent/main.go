// ABOUTME: Minimal fake agent for E2E testing. Connects over websocket and prints frames.
// ABOUTME: Usage: fake-agent [-addr localhost:8080] [-id fake-agent-1] [-target other-agent]

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxmesh/voxmesh-gateway/internal/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "gateway HTTP address")
	agentID := flag.String("id", "fake-agent-1", "agent identity")
	target := flag.String("target", "", "agent to open a session with after connecting")
	flag.Parse()

	if err := run(*addr, *agentID, *target); err != nil {
		log.Fatal(err)
	}
}

func run(addr, agentID, target string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	url := fmt.Sprintf("ws://%s/ws/%s", addr, agentID)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connecting as %s: %w (status %d)", agentID, err, resp.StatusCode)
		}
		return fmt.Errorf("connecting as %s: %w", agentID, err)
	}
	defer conn.Close()
	log.Printf("connected as %s", agentID)

	// Close the socket when the context is done so ReadMessage unblocks.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if target != "" {
		if err := send(conn, protocol.New(protocol.TypeStartSession, protocol.StartSession{TargetID: target})); err != nil {
			return fmt.Errorf("requesting session: %w", err)
		}
		log.Printf("requested session with %s", target)
	}

	// Cycle through declarable statuses so watchers see broadcasts.
	go func() {
		statuses := []string{"recording", "thinking", "speaking", "online"}
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				status := statuses[i%len(statuses)]
				frame := protocol.New(protocol.TypeStatusUpdate, protocol.StatusUpdate{Status: status})
				if err := send(conn, frame); err != nil {
					return
				}
				log.Printf("announced status %s", status)
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("shutting down")
				return nil
			}
			return fmt.Errorf("reading: %w", err)
		}

		frame, err := protocol.Decode(raw)
		if err != nil {
			log.Printf("undecodable frame: %v", err)
			continue
		}
		log.Printf("<- %s %s", frame.Type, string(frame.Data))
	}
}

func send(conn *websocket.Conn, f *protocol.Frame) error {
	data, err := f.Encode()
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
