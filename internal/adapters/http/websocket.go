package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/mapframe/internal/adapters/nats"
)

// wsMessage is sent by a client to follow or drop a job's progress feed.
type wsMessage struct {
	Action string `json:"action,omitempty"` // "subscribe" | "unsubscribe" (default: subscribe)
	JobID  string `json:"job_id"`
}

// ProgressSocketHandler upgrades to WebSocket and relays per-job render
// progress from NATS to the client. Clients send {"job_id": "..."} to start
// receiving events for that job; there is no firehose subscription, a client
// only sees the jobs it asks for.
func ProgressSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // job ID -> subscription

		// Thread-safe write: NATS callbacks and the ping loop both write.
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if m.JobID == "" {
				_ = writeJSON(map[string]string{"error": "job_id is required"})
				continue
			}

			if nc == nil {
				_ = writeJSON(map[string]string{"error": "progress feed not available"})
				continue
			}

			switch m.Action {
			case "", "subscribe":
				if _, exists := subs[m.JobID]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "job_id": m.JobID})
					continue
				}
				s, err := nc.Subscribe(natsadapter.ProgressSubject(m.JobID), func(msg *nats.Msg) {
					_ = writeJSON(json.RawMessage(msg.Data))
				})
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[m.JobID] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "job_id": m.JobID})

			case "unsubscribe":
				if s, exists := subs[m.JobID]; exists {
					_ = s.Unsubscribe()
					delete(subs, m.JobID)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "job_id": m.JobID})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + m.JobID})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
