package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hiremind/hiremind-backend/internal/metrics"
	"github.com/hiremind/hiremind-backend/internal/middleware"
	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/hiremind/hiremind-backend/internal/quizsecurity"
	"github.com/hiremind/hiremind-backend/internal/response"
	"github.com/hiremind/hiremind-backend/internal/service"
	ws "github.com/hiremind/hiremind-backend/internal/websocket"
	"github.com/rs/zerolog"
)

const finalizeTimeout = 30 * time.Second

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

// WSHandler runs one security monitor per quiz connection. The page forwards
// raw signals and obeys the commands it receives.
type WSHandler struct {
	quizService       quizService
	assessmentService assessmentService
	log               zerolog.Logger
	upgrader          websocket.Upgrader
	tick              time.Duration
}

// NewWSHandler creates a new WSHandler. tick is the countdown interval.
func NewWSHandler(
	quizService quizService,
	assessmentService assessmentService,
	log zerolog.Logger,
	allowedOrigins []string,
	tick time.Duration,
) *WSHandler {
	return &WSHandler{
		quizService:       quizService,
		assessmentService: assessmentService,
		log:               log.With().Str("component", "ws_handler").Logger(),
		upgrader:          buildUpgrader(allowedOrigins),
		tick:              tick,
	}
}

// QuizStream godoc
// WS /ws/v1/quizzes/:quiz_id/stream
// Upgrades to WebSocket for signal forwarding, answer autosave and grading.
func (h *WSHandler) QuizStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	quizID, err := uuid.Parse(c.Param("quiz_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), quizID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrQuizNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()
	stopPing := conn.KeepAlive(ws.PingPeriod)
	defer stopPing()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("quiz_id", quiz.ID.String()).
		Logger()

	s := newQuizStream(conn, quiz, claims.UserID, h.assessmentService, wsLog)
	s.monitor = quizsecurity.NewMonitor(quizsecurity.Options{
		Sources: quizsecurity.Sources{
			Visibility:  s.visibility,
			Focus:       s.focus,
			ContextMenu: s.contextMenu,
			Keydown:     s.keydown,
			Fullscreen:  s.fullscreen,
			Ticker:      quizsecurity.TickerSource{Interval: h.tick},
		},
		Presenter:   s,
		Notifier:    s,
		OnFinish:    s.finish,
		OnViolation: s.violation,
		OnChange:    s.state,
		Logger:      &wsLog,
	})
	defer s.monitor.Close()

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	wsLog.Info().Msg("Quiz stream connected")
	s.state(s.monitor.Snapshot())

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		s.handle(&msg)
	}
}

// quizStream bridges one connection to one Monitor. It is the monitor's
// Presenter and Notifier, and its manual sources are fed by signal actions.
type quizStream struct {
	conn    *ws.Conn
	quiz    *model.Quiz
	userID  int
	svc     assessmentService
	log     zerolog.Logger
	monitor *quizsecurity.Monitor

	visibility  *quizsecurity.ManualSource
	focus       *quizsecurity.ManualSource
	contextMenu *quizsecurity.ManualSource
	keydown     *quizsecurity.ManualSource
	fullscreen  *quizsecurity.ManualSource

	strikes   atomic.Int32
	submitted atomic.Bool
}

func newQuizStream(conn *ws.Conn, quiz *model.Quiz, userID int, svc assessmentService, log zerolog.Logger) *quizStream {
	return &quizStream{
		conn:        conn,
		quiz:        quiz,
		userID:      userID,
		svc:         svc,
		log:         log,
		visibility:  quizsecurity.NewManualSource(),
		focus:       quizsecurity.NewManualSource(),
		contextMenu: quizsecurity.NewManualSource(),
		keydown:     quizsecurity.NewManualSource(),
		fullscreen:  quizsecurity.NewManualSource(),
	}
}

func (s *quizStream) handle(msg *ws.RequestPayload) {
	switch msg.Action {
	case ws.ActionStart:
		s.start(msg.Minutes)
	case ws.ActionSignal:
		s.signal(msg)
	case ws.ActionFullscreenDenied:
		s.monitor.PresentationDenied()
	case ws.ActionAnswer:
		s.answer(msg)
	case ws.ActionSubmit, ws.ActionEnd:
		if !s.monitor.Snapshot().IsQuizActive {
			s.writeError(response.ErrQuizNotActive)
			return
		}
		s.monitor.EndQuiz()
	case ws.ActionPing:
		s.write(ws.PongResponse{Event: ws.EventPong})
	default:
		s.log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		s.conn.WriteError("unknown action: " + string(msg.Action))
	}
}

func (s *quizStream) start(minutes int) {
	if s.submitted.Load() {
		s.writeError(response.ErrAlreadySubmitted)
		return
	}
	if minutes <= 0 {
		minutes = s.quiz.DurationMinutes
	}
	s.strikes.Store(0)
	s.monitor.StartQuiz(minutes)
}

func (s *quizStream) signal(msg *ws.RequestPayload) {
	sig := quizsecurity.Signal{
		Hidden:     msg.Hidden,
		Focused:    msg.Focused,
		Key:        msg.KeyCombo(),
		Fullscreen: msg.Fullscreen,
		At:         time.Now(),
	}

	var src *quizsecurity.ManualSource
	switch msg.Channel {
	case ws.ChannelVisibility:
		src = s.visibility
	case ws.ChannelFocus:
		src = s.focus
	case ws.ChannelContextMenu:
		src = s.contextMenu
	case ws.ChannelKeydown:
		src = s.keydown
	case ws.ChannelFullscreen:
		src = s.fullscreen
	default:
		s.conn.WriteError("unknown channel: " + string(msg.Channel))
		return
	}

	suppress := src.Emit(sig)
	s.write(ws.SignalAckResponse{Event: ws.EventSignalAck, Channel: msg.Channel, Suppress: suppress})
}

func (s *quizStream) answer(msg *ws.RequestPayload) {
	if !s.monitor.Snapshot().IsQuizActive {
		s.writeError(response.ErrQuizNotActive)
		return
	}
	if msg.Index == nil {
		s.conn.WriteError("index is required")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.svc.SaveAnswer(ctx, s.userID, s.quiz, *msg.Index, msg.Answer)
	switch {
	case err == nil:
		s.write(ws.SavedResponse{Event: ws.EventSaved, Index: *msg.Index})
	case errors.Is(err, service.ErrInvalidIndex), errors.Is(err, service.ErrInvalidAnswer):
		s.conn.WriteError(err.Error())
	case errors.Is(err, service.ErrAlreadySubmitted):
		s.writeError(response.ErrAlreadySubmitted)
	default:
		s.log.Error().Err(err).Msg("Autosave failed")
		s.conn.WriteError("save failed")
	}
}

// RequestFullscreen implements quizsecurity.Presenter.
func (s *quizStream) RequestFullscreen() error {
	return s.conn.WriteTyped(ws.CommandResponse{Event: ws.EventCommand, Name: ws.CommandEnterFullscreen})
}

// ExitFullscreen implements quizsecurity.Presenter.
func (s *quizStream) ExitFullscreen() error {
	return s.conn.WriteTyped(ws.CommandResponse{Event: ws.EventCommand, Name: ws.CommandExitFullscreen})
}

// Notify implements quizsecurity.Notifier.
func (s *quizStream) Notify(n quizsecurity.Notice) {
	s.write(ws.NoticeResponse{Event: ws.EventNotice, Level: n.Level, Message: n.Message})
}

func (s *quizStream) state(snap quizsecurity.Snapshot) {
	s.write(ws.StateResponse{Event: ws.EventState, State: snap})
}

func (s *quizStream) violation(v quizsecurity.Violation) {
	strike := int(s.strikes.Add(1))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.svc.RecordViolation(ctx, s.userID, s.quiz.ID.String(), v, strike); err != nil {
		s.log.Warn().Err(err).Str("kind", string(v.Kind)).Msg("Violation not queued")
	}
}

// finish grades the quiz. It may run on the ticker goroutine, so it does not
// depend on the request context.
func (s *quizStream) finish(d quizsecurity.Disposition) {
	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	assessment, err := s.svc.Finalize(ctx, s.userID, s.quiz, d)
	if err != nil {
		if errors.Is(err, service.ErrAlreadySubmitted) {
			s.submitted.Store(true)
			s.writeError(response.ErrAlreadySubmitted)
			return
		}
		s.log.Error().Err(err).Str("reason", string(d.Reason)).Msg("Finalize failed")
		s.writeError(response.ErrResultSaveFailed)
		return
	}

	s.submitted.Store(true)
	s.write(ws.ResultResponse{Event: ws.EventResult, Assessment: assessment})
}

func (s *quizStream) writeError(code response.ErrCode) {
	s.write(ws.ErrorResponse{Event: ws.EventError, Error: response.GetMessage(code)})
}

func (s *quizStream) write(v any) {
	if err := s.conn.WriteTyped(v); err != nil {
		s.log.Debug().Err(err).Msg("WebSocket write failed")
	}
}
