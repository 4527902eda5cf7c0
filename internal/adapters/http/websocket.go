package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/cityhunt/internal/core/ar"
	"github.com/samirrijal/cityhunt/internal/core/domain"
	"github.com/samirrijal/cityhunt/internal/pkg/i18n"
	"github.com/samirrijal/cityhunt/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsConn serializes writes to a websocket connection and keeps it alive.
type wsConn struct {
	c    *websocket.Conn
	mu   sync.Mutex
	done chan struct{}
}

func newWSConn(c *websocket.Conn) *wsConn {
	w := &wsConn{c: c, done: make(chan struct{})}
	metrics.ActiveWebSockets.Inc()
	go w.keepAlive()
	return w
}

func (w *wsConn) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteMessage(websocket.TextMessage, data)
}

func (w *wsConn) keepAlive() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.mu.Lock()
			err := w.c.WriteMessage(websocket.PingMessage, nil)
			w.mu.Unlock()
			if err != nil {
				return
			}
		case <-w.done:
			return
		}
	}
}

func (w *wsConn) close() {
	metrics.ActiveWebSockets.Dec()
	close(w.done)
}

// challengeMessage is sent by the AR view. Type is one of orientation,
// permission, capture or frame.
type challengeMessage struct {
	Type     string   `json:"type"`
	Alpha    *float64 `json:"alpha,omitempty"`
	Beta     *float64 `json:"beta,omitempty"`
	Granted  bool     `json:"granted,omitempty"`
	TargetID string   `json:"target_id,omitempty"`
}

// challengeEvent is pushed to the AR view.
type challengeEvent struct {
	Type    string            `json:"type"` // frame | capture | permission | error
	Frame   *ar.Frame         `json:"frame,omitempty"`
	Capture *ar.CaptureResult `json:"capture,omitempty"`
	State   string            `json:"state,omitempty"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
}

// ChallengeSocketHandler streams an AR session to a connected view. The
// connection is the mounted view: it subscribes to the session's
// orientation on connect and, if the challenge is unfinished when the
// socket closes, the session is abandoned so the camera and sensors are
// released.
func ChallengeSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		id := c.Params("id")
		printer := i18n.NewPrinter(i18n.Match(c.Query("lang"), deps.defaultLanguage()))
		log := slog.Default().With("session_id", id, "remote", c.RemoteAddr().String())

		w := newWSConn(c)
		defer w.close()

		sess, err := deps.Challenges.Session(id)
		if err != nil {
			_ = w.writeJSON(challengeEvent{Type: "error", Code: "not_found", Message: err.Error()})
			return
		}
		log.Info("ar view connected")

		sendFrame := func() {
			f := sess.Frame()
			if err := w.writeJSON(challengeEvent{Type: "frame", Frame: &f}); err != nil {
				log.Debug("ws write failed", "error", err)
			}
		}

		sub := sess.Tracker().Subscribe(func(domain.Orientation) { sendFrame() })
		defer sub.Unsubscribe()
		sendFrame()

		ctx := context.Background()
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m challengeMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = w.writeJSON(challengeEvent{Type: "error", Code: "bad_request", Message: "invalid JSON"})
				continue
			}

			switch m.Type {
			case "orientation":
				// Subscribers get the new frame; suppressed duplicates send nothing.
				if _, err := deps.Challenges.UpdateOrientation(ctx, id, ar.RawOrientation{Alpha: m.Alpha, Beta: m.Beta}); err != nil {
					_ = w.writeJSON(socketError(printer, err))
				}
			case "permission":
				state, err := deps.Challenges.RequestOrientationPermission(ctx, id, m.Granted)
				if err != nil {
					_ = w.writeJSON(socketError(printer, err))
					continue
				}
				_ = w.writeJSON(challengeEvent{Type: "permission", State: state.String()})
				sendFrame()
			case "capture":
				res, err := deps.Challenges.Capture(ctx, id, m.TargetID)
				if err != nil {
					_ = w.writeJSON(socketError(printer, err))
					continue
				}
				ev := challengeEvent{Type: "capture", Capture: &res}
				if res.Completed {
					ev.Message = printer.Sprintf(i18n.KeyChallengeCompleted, res.Progress.Captured)
				}
				_ = w.writeJSON(ev)
				sendFrame()
			case "frame":
				sendFrame()
			default:
				_ = w.writeJSON(challengeEvent{Type: "error", Code: "bad_request", Message: "unknown message type: " + m.Type})
			}
		}

		if !sess.Progress().Completed {
			if err := deps.Challenges.Abandon(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				log.Warn("abandon on disconnect", "error", err)
			}
		}
		log.Info("ar view disconnected")
	}
}

func socketError(p *i18n.Printer, err error) challengeEvent {
	var se *domain.SensorError
	switch {
	case errors.As(err, &se) && se.Sensor == domain.SensorOrientation && se.Reason == domain.ReasonPermissionDenied:
		return challengeEvent{Type: "error", Code: "orientation_permission_denied", Message: p.Sprintf(i18n.KeyOrientationDenied)}
	case errors.As(err, &se):
		return challengeEvent{Type: "error", Code: string(se.Sensor) + "_" + string(se.Reason), Message: err.Error()}
	case errors.Is(err, domain.ErrTargetNotVisible):
		return challengeEvent{Type: "error", Code: "target_not_visible", Message: err.Error()}
	case errors.Is(err, domain.ErrSessionNotFound):
		return challengeEvent{Type: "error", Code: "not_found", Message: err.Error()}
	}
	return challengeEvent{Type: "error", Code: "internal_error", Message: err.Error()}
}

// EventSocketHandler relays typed progression messages ({type, event}) from
// NATS. The optional ?player= query restricts the stream to one player.
func EventSocketHandler(nc *nats.Conn, subject string) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()
		if nc == nil {
			_ = c.WriteMessage(websocket.TextMessage, []byte(`{"type":"error","code":"unavailable","message":"event relay not configured"}`))
			return
		}

		player := c.Query("player")
		log := slog.Default().With("remote", c.RemoteAddr().String(), "player_id", player)

		w := newWSConn(c)
		defer w.close()

		sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
			if player != "" {
				var ev struct {
					Event struct {
						PlayerID string `json:"player_id"`
					} `json:"event"`
				}
				if json.Unmarshal(msg.Data, &ev) != nil || ev.Event.PlayerID != player {
					return
				}
			}
			_ = w.writeJSON(json.RawMessage(msg.Data))
		})
		if err != nil {
			log.Error("ws subscribe", "subject", subject, "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()
		log.Info("event relay connected", "subject", subject)

		// Clients only listen; reading keeps the connection and its close
		// handshake alive.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		log.Info("event relay disconnected")
	}
}
