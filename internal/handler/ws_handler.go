package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/edulane/edulane-backend/internal/config"
	"github.com/edulane/edulane-backend/internal/middleware"
	"github.com/edulane/edulane-backend/internal/service"
	ws "github.com/edulane/edulane-backend/internal/websocket"
	"github.com/edulane/edulane-backend/internal/worker"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// WSHandler handles the student's exam stream: presence tracking,
// attempt start, and buffered autosave. One socket per student; the
// connect/disconnect hooks drive the disconnect grace machinery.
type WSHandler struct {
	rdb             *redis.Client
	attemptService  *service.AttemptService
	presenceService *service.PresenceService
	hub             *ws.Hub
	log             zerolog.Logger
	upgrader        websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	rdb *redis.Client,
	attemptService *service.AttemptService,
	presenceService *service.PresenceService,
	hub *ws.Hub,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		rdb:             rdb,
		attemptService:  attemptService,
		presenceService: presenceService,
		hub:             hub,
		log:             log.With().Str("component", "ws_handler").Logger(),
		upgrader:        buildUpgrader(allowedOrigins),
	}
}

// ExamStream godoc
// WS /ws/v1/student/stream
// Upgrades to WebSocket for presence tracking and real-time autosave.
func (h *WSHandler) ExamStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sock, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(sock)
	defer conn.Close()

	studentID := claims.UserID

	wsLog := h.log.With().Int("student_id", studentID).Logger()
	wsLog.Info().Msg("Student connected")

	h.hub.Register(studentID, conn)
	h.onConnect(conn, wsLog, studentID)

	defer func() {
		h.hub.Unregister(studentID, conn)
		h.onDisconnect(wsLog, studentID)
		wsLog.Info().Msg("Student disconnected")
	}()

	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var envelope ws.RequestEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			conn.WriteError("malformed message")
			continue
		}

		switch envelope.Action {
		case ws.ActionExamStart:
			h.handleExamStart(conn, wsLog, studentID, raw)
		case ws.ActionAutosave:
			h.handleAutosave(conn, wsLog, studentID, raw)
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(envelope.Action))
		}
	}
}

// onConnect reconciles presence: clears pending disconnect markers or
// force-finalizes attempts whose grace already lapsed. Presence errors
// are logged, never sent to the client.
func (h *WSHandler) onConnect(conn *ws.Conn, wsLog zerolog.Logger, studentID int) {
	notices, err := h.presenceService.ReconcileConnect(context.Background(), studentID)
	if err != nil {
		wsLog.Error().Err(err).Msg("Connect reconciliation failed")
		return
	}
	for _, n := range notices {
		conn.WriteTyped(ws.AutoSubmittedEvent{
			Event:  ws.EventAutoSubmitted,
			ExamID: n.ExamID.String(),
		})
	}
}

func (h *WSHandler) onDisconnect(wsLog zerolog.Logger, studentID int) {
	// The request context is gone once the socket drops.
	if err := h.presenceService.ReconcileDisconnect(context.Background(), studentID); err != nil {
		wsLog.Error().Err(err).Msg("Disconnect reconciliation failed")
	}
}

// handleExamStart opens or resumes the attempt and returns its window.
func (h *WSHandler) handleExamStart(conn *ws.Conn, wsLog zerolog.Logger, studentID int, raw []byte) {
	var msg ws.ExamStartRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		conn.WriteError("malformed message")
		return
	}

	examID, err := uuid.Parse(msg.ExamID)
	if err != nil {
		conn.WriteError("invalid exam_id format")
		return
	}

	window, err := h.attemptService.StartOrResume(context.Background(), examID, studentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotAvailable):
			conn.WriteError("exam is not available")
		case errors.Is(err, service.ErrNotEnrolled):
			conn.WriteError("not enrolled in this exam's course")
		case errors.Is(err, service.ErrAlreadySubmitted):
			conn.WriteError("attempt already submitted")
		default:
			wsLog.Error().Err(err).Str("exam_id", msg.ExamID).Msg("Start failed")
			conn.WriteError("start failed")
		}
		return
	}

	conn.WriteSuccess(window)
}

// handleAutosave buffers a single answer in Redis and queues it for
// persistence. The cached window deadline rejects late saves without a
// database round trip; the persist worker re-checks authoritatively.
func (h *WSHandler) handleAutosave(conn *ws.Conn, wsLog zerolog.Logger, studentID int, raw []byte) {
	ctx := context.Background()

	var msg ws.AutosaveRequest
	if err := json.Unmarshal(raw, &msg); err != nil {
		conn.WriteError("malformed message")
		return
	}

	if msg.ExamID == "" || msg.QID == "" {
		conn.WriteError("exam_id and q_id are required")
		return
	}
	if msg.SelectedOption == "" && msg.AnswerText == "" {
		conn.WriteError("selected_option or answer_text is required")
		return
	}

	// QID and ExamID land in Redis keys; reject anything that isn't a
	// well-formed UUID.
	if _, err := uuid.Parse(msg.QID); err != nil {
		conn.WriteError("invalid q_id format")
		return
	}
	if _, err := uuid.Parse(msg.ExamID); err != nil {
		conn.WriteError("invalid exam_id format")
		return
	}

	if closed := h.windowClosed(ctx, msg.ExamID, studentID); closed {
		conn.WriteError("submission window has closed")
		return
	}

	answersKey := config.CacheKey.StudentAnswersKey(msg.ExamID, studentID)
	buffered, _ := json.Marshal(map[string]string{
		"selected_option": msg.SelectedOption,
		"answer_text":     msg.AnswerText,
	})
	if err := h.rdb.HSet(ctx, answersKey, msg.QID, buffered).Err(); err != nil {
		wsLog.Error().Err(err).Msg("Autosave Redis error")
		conn.WriteError("save failed")
		return
	}

	payload, _ := json.Marshal(worker.AnswerPayload{
		StudentID:      studentID,
		ExamID:         msg.ExamID,
		QID:            msg.QID,
		SelectedOption: msg.SelectedOption,
		AnswerText:     msg.AnswerText,
	})
	h.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload)

	conn.WriteSuccess(map[string]string{"status": "saved"})
}

// windowClosed checks the cached attempt deadline. A cache miss means
// no verdict here; the worker's database check decides.
func (h *WSHandler) windowClosed(ctx context.Context, examID string, studentID int) bool {
	val, err := h.rdb.Get(ctx, config.CacheKey.AttemptWindowKey(examID, studentID)).Result()
	if err != nil {
		return false
	}
	deadline, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false
	}
	return time.Now().Unix() > deadline
}
