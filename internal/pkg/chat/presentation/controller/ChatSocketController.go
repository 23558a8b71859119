package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"go-recruitchat/internal/infrastructure/identity"
	"go-recruitchat/internal/infrastructure/logging"
	"go-recruitchat/internal/infrastructure/realtime"
	chat "go-recruitchat/internal/pkg/chat/application/domain"
	"go-recruitchat/internal/pkg/chat/application/usecase"
	"go-recruitchat/internal/pkg/chat/presentation/middleware"
	"go-recruitchat/internal/pkg/chat/protocol"
)

const (
	instrumentationName = "go-recruitchat/chat"
	maxFrameSize        = 1 << 20
	defaultReadTimeout  = 60 * time.Second
)

// SocketDeps wires the websocket endpoint.
type SocketDeps struct {
	Router   *realtime.Router
	Verifier identity.Verifier
	Join     *usecase.JoinConversationUseCase
	Send     *usecase.SendMessageUseCase
	Leave    *usecase.LeaveConversationUseCase
	Close    *usecase.CloseConversationUseCase
	Logger   *slog.Logger

	ReadTimeout time.Duration
	SendBuffer  int
}

// ChatSocketController handles the websocket endpoint for realtime conversation traffic.
type ChatSocketController struct {
	router   *realtime.Router
	verifier identity.Verifier
	joinUC   *usecase.JoinConversationUseCase
	sendUC   *usecase.SendMessageUseCase
	leaveUC  *usecase.LeaveConversationUseCase
	closeUC  *usecase.CloseConversationUseCase
	logger   *slog.Logger

	readTimeout time.Duration
	sendBuffer  int

	tracer      trace.Tracer
	envelopes   metric.Int64Counter
	connections metric.Int64UpDownCounter
}

func NewChatSocketController(d SocketDeps) (*ChatSocketController, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.ReadTimeout <= 0 {
		d.ReadTimeout = defaultReadTimeout
	}

	meter := otel.Meter(instrumentationName)
	envelopes, err := meter.Int64Counter("chat.envelopes",
		metric.WithDescription("Inbound websocket envelopes by event and outcome"))
	if err != nil {
		return nil, fmt.Errorf("chat.envelopes counter: %w", err)
	}
	connections, err := meter.Int64UpDownCounter("chat.connections",
		metric.WithDescription("Open websocket connections"))
	if err != nil {
		return nil, fmt.Errorf("chat.connections counter: %w", err)
	}

	return &ChatSocketController{
		router:      d.Router,
		verifier:    d.Verifier,
		joinUC:      d.Join,
		sendUC:      d.Send,
		leaveUC:     d.Leave,
		closeUC:     d.Close,
		logger:      d.Logger.With("component", "chat.socket"),
		readTimeout: d.ReadTimeout,
		sendBuffer:  d.SendBuffer,
		tracer:      otel.Tracer(instrumentationName),
		envelopes:   envelopes,
		connections: connections,
	}, nil
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browsers cannot send an Authorization header on upgrade; the token gates access.
		return true
	},
}

// Handle upgrades HTTP connections to websocket and processes envelopes until the client disconnects.
// The credential comes from ?token= or the Authorization header; a failed
// verification is reported with an ERROR envelope before the socket is closed.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, authErr := ctl.verifier.Verify(middleware.BearerToken(c.Request))

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			ctl.logger.DebugContext(c.Request.Context(), "websocket upgrade failed", "error", err)
			return
		}
		if authErr != nil {
			ctl.logger.InfoContext(c.Request.Context(), "websocket rejected", "error", authErr)
			rejectSocket(ws, authErr)
			return
		}

		// Handler work outlives the request context once the socket is hijacked.
		ctx := context.WithoutCancel(c.Request.Context())
		conn := realtime.NewConnection(id, ws, ctl.sendBuffer)
		ctx = logging.WithLogFields(ctx, logging.LogFields{UserID: id.UserID, Role: string(id.Role), SessionID: conn.ID})

		ctl.router.Attach(conn)
		ctl.connections.Add(ctx, 1)
		ctl.logger.InfoContext(ctx, "connection opened")
		defer func() {
			rooms := ctl.leaveUC.Disconnect(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
			ctl.connections.Add(ctx, -1)
			ctl.logger.InfoContext(ctx, "connection closed", "rooms", rooms)
		}()

		ws.SetReadLimit(maxFrameSize)
		_ = ws.SetReadDeadline(time.Now().Add(ctl.readTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(ctl.readTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
					!errors.Is(err, websocket.ErrCloseSent) {
					ctl.logger.DebugContext(ctx, "websocket read", "error", err)
				}
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(ctl.readTimeout))
			ctl.dispatch(ctx, conn, data)
		}
	}
}

// dispatch handles one inbound frame. Every failure is answered with an
// ERROR envelope on the originating connection only.
func (ctl *ChatSocketController) dispatch(ctx context.Context, conn *realtime.Connection, frame []byte) {
	event, cmd, err := protocol.Decode(frame)
	label := event
	if cmd == nil && (event == "" || errors.Is(err, protocol.ErrUnknownEvent)) {
		label = "unknown"
	}

	ctx, span := ctl.tracer.Start(ctx, "chat.envelope", trace.WithAttributes(attribute.String("chat.event", label)))
	defer span.End()

	if err == nil {
		ctx = logging.WithLogFields(ctx, logging.LogFields{ConversationID: cmd.Conversation()})
		err = ctl.route(ctx, conn, cmd)
	}

	outcome := "ok"
	if err != nil {
		outcome = outcomeFor(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		ctl.fail(ctx, conn, label, err)
	}
	ctl.envelopes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", label),
		attribute.String("outcome", outcome),
	))
}

func (ctl *ChatSocketController) route(ctx context.Context, conn *realtime.Connection, cmd protocol.Command) error {
	if !chat.Can(conn.Role, protocol.Action(cmd)) {
		return chat.ErrForbiddenRole
	}

	switch cmd := cmd.(type) {
	case protocol.JoinConversation:
		_, err := ctl.joinUC.Execute(ctx, usecase.JoinConversationInput{Conn: conn, ConversationID: cmd.ConversationID})
		return err
	case protocol.NewMessage:
		_, err := ctl.sendUC.Execute(ctx, usecase.SendMessageInput{Conn: conn, ConversationID: cmd.ConversationID, Content: cmd.Content})
		return err
	case protocol.LeaveConversation:
		return ctl.leaveUC.Execute(ctx, usecase.LeaveConversationInput{Conn: conn, ConversationID: cmd.ConversationID})
	case protocol.CloseConversation:
		_, err := ctl.closeUC.Complete(ctx, usecase.CloseConversationInput{Conn: conn, ConversationID: cmd.ConversationID})
		return err
	}
	return protocol.ErrUnknownEvent
}

func (ctl *ChatSocketController) fail(ctx context.Context, conn *realtime.Connection, event string, err error) {
	if outcomeFor(err) == "internal_error" {
		ctl.logger.ErrorContext(ctx, "envelope failed", "event", event, "error", err)
	} else {
		ctl.logger.DebugContext(ctx, "envelope rejected", "event", event, "error", err)
	}
	_ = conn.Send(protocol.Error(err))
}

// outcomeFor labels err by its kind for metrics.
func outcomeFor(err error) string {
	switch {
	case errors.Is(err, chat.ErrFormat):
		return "format_error"
	case errors.Is(err, chat.ErrNotFound):
		return "not_found"
	case errors.Is(err, chat.ErrForbiddenRole):
		return "forbidden_role"
	case errors.Is(err, chat.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, chat.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, chat.ErrNotJoined):
		return "not_joined"
	}
	return "internal_error"
}

func rejectSocket(ws *websocket.Conn, err error) {
	deadline := time.Now().Add(time.Second)
	_ = ws.SetWriteDeadline(deadline)
	if payload, encErr := protocol.Encode(protocol.EventError, protocol.ErrorPayload{Message: middleware.AuthErrorMessage(err)}); encErr == nil {
		_ = ws.WriteMessage(websocket.TextMessage, payload)
	}
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(realtime.CloseUnauthorized, "unauthorized"), deadline)
	_ = ws.Close()
}
