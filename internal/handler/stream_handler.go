package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/prepmed/prepmed-backend/internal/engine"
	"github.com/prepmed/prepmed-backend/internal/middleware"
	"github.com/prepmed/prepmed-backend/internal/response"
	"github.com/prepmed/prepmed-backend/internal/service"
	ws "github.com/prepmed/prepmed-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// StreamHandler carries one live session over a WebSocket: keyboard events
// and commands in, machine events out. While the stream is mounted the
// session is bound to the key dispatcher; teardown always unbinds.
type StreamHandler struct {
	sessions   *service.SessionService
	sounds     *service.SoundService
	dispatcher *engine.Dispatcher
	log        zerolog.Logger
	upgrader   websocket.Upgrader
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(
	sessions *service.SessionService,
	sounds *service.SoundService,
	dispatcher *engine.Dispatcher,
	log zerolog.Logger,
	allowedOrigins []string,
) *StreamHandler {
	return &StreamHandler{
		sessions:   sessions,
		sounds:     sounds,
		dispatcher: dispatcher,
		log:        log.With().Str("component", "stream_handler").Logger(),
		upgrader:   buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/student/sessions/:session_id/stream
// Upgrades to WebSocket for real-time session interaction.
func (h *StreamHandler) SessionStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	m, err := h.sessions.Machine(sessionID, claims.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no live session"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("session_id", sessionID.String()).
		Logger()

	// Outbound events funnel through a channel so the writer goroutine is
	// the only conn writer; Attach callbacks fire from timer and command
	// goroutines.
	events := make(chan interface{}, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for payload := range events {
			if err := ws.WriteTyped(conn, payload); err != nil {
				wsLog.Debug().Err(err).Msg("write failed, draining")
				for range events {
				}
				return
			}
		}
	}()
	send := func(payload interface{}) {
		select {
		case events <- payload:
		default:
			wsLog.Warn().Msg("event buffer full, dropping")
		}
	}

	m.Attach(func(evt engine.Event) {
		if payload := h.translate(evt); payload != nil {
			send(payload)
		}
	})
	h.dispatcher.Bind(m)
	defer func() {
		h.dispatcher.Unbind(sessionID)
		m.Detach()
		close(events)
		<-done
	}()

	send(ws.StateResponse{
		Event:   ws.EventState,
		Session: m.Snapshot(),
		Muted:   m.Sound().Muted(context.Background()),
	})
	wsLog.Info().Msg("Session stream connected")

	for {
		var envelope ws.RequestEnvelope
		raw, err := h.read(conn, &envelope)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		m.Touch()

		switch envelope.Action {
		case ws.ActionKey:
			h.handleKey(send, sessionID, raw)
		case ws.ActionCommand:
			h.handleCommand(send, m, raw)
		case ws.ActionToggleMute:
			muted := m.Sound().ToggleMute(context.Background())
			wsLog.Debug().Bool("muted", muted).Msg("Mute toggled")
		case ws.ActionHeartbeat:
			// Touch above is the whole point.
		case ws.ActionPing:
			send(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			send(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(envelope.Action)})
		}
	}
}

// read consumes one message, decoding the envelope for routing and keeping
// the raw bytes for action-specific parsing.
func (h *StreamHandler) read(conn *websocket.Conn, envelope *ws.RequestEnvelope) ([]byte, error) {
	conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, envelope); err != nil {
		return nil, err
	}
	return raw, nil
}

func (h *StreamHandler) handleKey(send func(interface{}), sessionID uuid.UUID, raw []byte) {
	var req ws.KeyRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		send(ws.ErrorResponse{Event: ws.EventError, Error: "invalid key payload"})
		return
	}

	err := h.dispatcher.Dispatch(sessionID, engine.KeyEvent{
		Key:          req.Key,
		FromEditable: req.FromEditable,
	})
	if err != nil {
		send(h.errorPayload(err))
	}
}

func (h *StreamHandler) handleCommand(send func(interface{}), m *engine.Machine, raw []byte) {
	var req ws.CommandRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		send(ws.ErrorResponse{Event: ws.EventError, Error: "invalid command payload"})
		return
	}

	var err error
	switch req.Command {
	case ws.CommandSelect:
		err = m.Select(req.OptionIDs)
	case ws.CommandClear:
		err = m.Clear()
	case ws.CommandReveal:
		_, err = m.Reveal()
	case ws.CommandNavigate:
		err = m.Navigate(req.Delta)
	case ws.CommandPause:
		err = m.Pause()
	case ws.CommandResume:
		err = m.Resume()
	case ws.CommandRequestExit:
		m.RequestExit()
	default:
		send(ws.ErrorResponse{Event: ws.EventError, Error: "unknown command: " + string(req.Command)})
		return
	}
	if err != nil {
		send(h.errorPayload(err))
	}
}

// translate maps a machine event to its wire payload.
func (h *StreamHandler) translate(evt engine.Event) interface{} {
	switch evt.Type {
	case engine.EventTick:
		return ws.TickResponse{
			Event:            ws.EventTick,
			ElapsedSeconds:   evt.Tick.ElapsedSeconds,
			RemainingSeconds: evt.Tick.RemainingSeconds,
		}
	case engine.EventCue:
		return ws.CueResponse{
			Event: ws.EventCue,
			Cue:   string(evt.Cue),
			Clip:  h.sounds.ClipURL(evt.Cue),
		}
	case engine.EventRevealed:
		return ws.RevealedResponse{
			Event:            ws.EventRevealed,
			Index:            evt.Reveal.Index,
			IsCorrect:        evt.Reveal.IsCorrect,
			CorrectOptionIDs: evt.Reveal.CorrectOptionIDs,
			Explanation:      evt.Reveal.Explanation,
		}
	case engine.EventStatus:
		return ws.StatusResponse{Event: ws.EventStatus, Status: string(evt.Status)}
	case engine.EventResult:
		return ws.ResultResponse{Event: ws.EventResult, Result: evt.Result}
	case engine.EventExitPrompt:
		return ws.ExitPromptResponse{Event: ws.EventExitPrompt}
	case engine.EventExpired:
		return ws.ExpiredResponse{Event: ws.EventExpired}
	case engine.EventMute:
		return ws.MuteResponse{Event: ws.EventMute, Muted: evt.Muted}
	}
	return nil
}

func (h *StreamHandler) errorPayload(err error) ws.ErrorResponse {
	code := response.ErrInternal
	switch {
	case errors.Is(err, engine.ErrSessionPaused):
		code = response.ErrSessionPaused
	case errors.Is(err, engine.ErrAnswerLocked):
		code = response.ErrAnswerLocked
	case errors.Is(err, engine.ErrInvalidTransition):
		code = response.ErrInvalidTransition
	case errors.Is(err, engine.ErrSessionNotFound):
		code = response.ErrSessionNotFound
	}
	return ws.ErrorResponse{
		Event: ws.EventError,
		Code:  string(code),
		Error: response.GetMessage(code),
	}
}
