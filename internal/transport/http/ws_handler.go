package http

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"exam-bot/internal/app"
	"github.com/gorilla/websocket"
)

// Handler is the part of the dispatcher the gateway needs.
type Handler interface {
	Handle(ctx context.Context, user app.User, action app.Action) app.Reply
	BindKeyboard(userID int64, messageID int)
}

// WSHandler exposes the dispatcher over a websocket, one connection per user. The
// gateway is meant for a trusted frontend: every connection must present the shared
// token as a bearer credential, and only then is the userId it names believed.
type WSHandler struct {
	handler  Handler
	token    string
	upgrader websocket.Upgrader
}

// NewWSHandler builds the gateway. An empty token refuses every connection.
func NewWSHandler(handler Handler, token string) *WSHandler {
	return &WSHandler{
		handler: handler,
		token:   token,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type buttonPayload struct {
	Data string `json:"data"`
	// Keyboard echoes the keyboard number of the reply the button came from.
	Keyboard int `json:"keyboard"`
}

type textPayload struct {
	Text string `json:"text"`
}

type mediaPayload struct {
	Kind   app.MediaKind `json:"kind"`
	FileID string        `json:"fileId"`
	Data   string        `json:"data"` // base64
}

type outboundMessage[T any] struct {
	Type     string `json:"type"`
	Payload  T      `json:"payload"`
	Keyboard int    `json:"keyboard,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and feeds each inbound frame through
// the dispatcher, writing one reply frame per handled action.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		log.Printf("ws connection from %s refused: bad or missing token", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	displayName := r.URL.Query().Get("name")
	if err != nil || displayName == "" {
		http.Error(w, "missing userId or name", http.StatusBadRequest)
		return
	}
	user := app.User{ID: userID, FirstName: displayName, Username: r.URL.Query().Get("username")}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// keep draining so the reader never blocks on a dead connection
				for range send {
				}
				return
			}
		}
	}()

	keyboard := 0
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		action, err := decodeAction(inbound)
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			continue
		}
		reply := h.handler.Handle(r.Context(), user, action)
		out := outboundMessage[any]{Type: "reply", Payload: reply}
		if _, ok := reply.Answerable(); ok {
			keyboard++
			h.handler.BindKeyboard(user.ID, keyboard)
			out.Keyboard = keyboard
		}
		send <- out
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) authorized(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	given, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(given), []byte(h.token)) == 1
}

var (
	errUnsupportedType = errors.New("unsupported message type")
	errInvalidPayload  = errors.New("invalid payload")
	errInvalidMedia    = errors.New("media data is not base64")
)

func decodeAction(in inboundMessage) (app.Action, error) {
	switch in.Type {
	case "start":
		return app.StartAction{}, nil
	case "button":
		var p buttonPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w for button", errInvalidPayload)
		}
		return app.ButtonAction{Command: app.ParseCommand(p.Data), MessageID: p.Keyboard}, nil
	case "text":
		var p textPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w for text", errInvalidPayload)
		}
		return app.TextAction{Text: p.Text}, nil
	case "media":
		var p mediaPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, fmt.Errorf("%w for media", errInvalidPayload)
		}
		data, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return nil, errInvalidMedia
		}
		return app.MediaAction{
			Kind:   p.Kind,
			FileID: p.FileID,
			Source: func(context.Context) (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(data)), nil
			},
		}, nil
	default:
		return nil, errUnsupportedType
	}
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
