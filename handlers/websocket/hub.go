// Package websocket pushes design changes to connected editors over
// Socket.IO.
package websocket

import (
	"errors"

	"designer-pro/core"
	"designer-pro/handlers/auth"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

const (
	EventJoin    = "join-designs"
	EventJoined  = "joined-designs"
	EventError   = "join-error"
	EventSaved   = "design-saved"
	EventDeleted = "design-deleted"
)

var errForbidden = errors.New("admin access required")

// Hub owns the Socket.IO server. It satisfies designs.Publisher.
type Hub struct {
	io *socketio.Server
}

// Room is the per-user room design events are sent to.
func Room(userID string) socketio.Room {
	return socketio.Room("designs:" + userID)
}

// roomFor validates a bearer token and returns the room its owner may join.
func roomFor(token string) (socketio.Room, error) {
	claims, err := auth.ParseJWT(token)
	if err != nil {
		return "", err
	}
	if !claims.User().IsAdmin() {
		return "", errForbidden
	}
	return Room(claims.Subject), nil
}

func NewHub() *Hub {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(1000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	h := &Hub{io: socketio.NewServer(nil, opts)}
	h.io.On("connection", h.onConnection)
	return h
}

// Server returns the underlying Socket.IO server for mounting.
func (h *Hub) Server() *socketio.Server {
	return h.io
}

func (h *Hub) onConnection(clients ...any) {
	socket, ok := clients[0].(*socketio.Socket)
	if !ok {
		return
	}
	me := socket.Id()

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On(EventJoin, func(datas ...any) {
		ack, args := extractAck(datas)
		var token string
		if len(args) > 0 {
			token, _ = args[0].(string)
		}
		room, err := roomFor(token)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"socket_id": me,
				"error":     err,
			}).Warn("Rejected design room join")
			respond(socket, ack, EventError, map[string]any{"status": "error", "error": "Invalid token"}, err)
			return
		}
		socket.Join(room)
		logrus.WithFields(logrus.Fields{
			"socket_id": me,
			"room":      room,
		}).Debug("Socket joined design room")
		respond(socket, ack, EventJoined, map[string]any{"status": "ok", "room": string(room)}, nil)
	})

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	socket.On("disconnect", func(...any) {
		socket.RemoveAllListeners("")
	})
}

type ackFunc func([]any, error)

// extractAck splits a trailing acknowledgement callback off the event
// arguments.
func extractAck(datas []any) (ackFunc, []any) {
	if len(datas) == 0 {
		return nil, datas
	}
	if ack, ok := datas[len(datas)-1].(func([]any, error)); ok {
		return ack, datas[:len(datas)-1]
	}
	return nil, datas
}

func respond(socket *socketio.Socket, ack ackFunc, event string, payload map[string]any, err error) {
	if ack != nil {
		ack([]any{payload}, err)
	}
	_ = socket.Emit(event, payload)
}

func (h *Hub) DesignSaved(userID string, d *core.Design) {
	if err := h.io.To(Room(userID)).Emit(EventSaved, d); err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "design_id": d.ID}).Warn("Failed to publish design-saved")
	}
}

func (h *Hub) DesignDeleted(userID, id string) {
	if err := h.io.To(Room(userID)).Emit(EventDeleted, map[string]string{"id": id}); err != nil {
		logrus.WithFields(logrus.Fields{"error": err, "design_id": id}).Warn("Failed to publish design-deleted")
	}
}

// Close shuts the server down.
func (h *Hub) Close() {
	h.io.Close(nil)
}
