package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"
	"github.com/zlnvch/canvashub/service"
)

type Handler struct {
	Service *service.Service
	Hub     *Hub
}

func NewHandler(svc *service.Service, hub *Hub) *Handler {
	return &Handler{
		Service: svc,
		Hub:     hub,
	}
}

func (h *Handler) NewWsUpgrader(requiredOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if requiredOrigin == "*" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == requiredOrigin
		},
		Subprotocols: []string{"canvashub-v1"},
	}
}

// ServeWS handles websocket requests from the peer. Identity comes from
// the X-UserId header the gateway injects after authenticating; this
// service never sees tokens.
func (h *Handler) ServeWS(wsUpgrader websocket.Upgrader, w http.ResponseWriter, r *http.Request, shutdownCtx context.Context) {
	userId := r.Header.Get("X-UserId")
	if userId == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sessionUUID, err := uuid.NewV4()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade ws connection: %v", err)
		return
	}

	client := NewClient(h.Hub, conn, userId, sessionUUID.String(), h.HandleWsMessage)

	h.Hub.OpenCh <- client

	// Start pumps
	go client.ReadPump()
	go client.WritePump(shutdownCtx)
}

// Websocket message structs
type message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type joinMessage struct {
	Room string `json:"room"`
}

type leaveMessage struct {
	Room string `json:"room"`
}

type relayMessage struct {
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

func (h *Handler) HandleWsMessage(client *Client, messageType int, messageBytes []byte) {
	var msg message
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		log.Printf("Invalid JSON: %v", err)
		return
	}

	switch msg.Type {
	case "join":
		var joinMsg joinMessage
		if err := json.Unmarshal(msg.Data, &joinMsg); err != nil || joinMsg.Room == "" {
			log.Printf("Invalid join data: %v", err)
			return
		}
		h.handleJoin(client, joinMsg.Room)

	case "leave":
		var leaveMsg leaveMessage
		if err := json.Unmarshal(msg.Data, &leaveMsg); err != nil || leaveMsg.Room == "" {
			log.Printf("Invalid leave data: %v", err)
			return
		}
		h.Hub.EmitLog(context.Background(), leaveMsg.Room,
			fmt.Sprintf("Received request to leave room %s from client %s", leaveMsg.Room, client.sessionId))
		h.Hub.LeaveCh <- leaveRequest{client: client, room: leaveMsg.Room}

	case "message":
		var relayMsg relayMessage
		if err := json.Unmarshal(msg.Data, &relayMsg); err != nil || relayMsg.Room == "" {
			log.Printf("Invalid message data: %v", err)
			return
		}
		h.Hub.EmitLog(context.Background(), relayMsg.Room,
			fmt.Sprintf("Client %s said: %s", client.sessionId, string(relayMsg.Payload)))
		h.Hub.RelayMessage(context.Background(), relayMsg.Room, client.sessionId, relayMsg.Payload)

	default:
		log.Printf("Unknown message type: %v", msg.Type)
	}
}

// handleJoin persists the collaborator before handing the request to the
// hub. The append is atomic in the store, so a client that raced another
// into a brand new room is still recorded exactly once; the hub then
// decides creator vs joiner from its serialized member count.
func (h *Handler) handleJoin(client *Client, room string) {
	ctx := context.Background()

	h.Hub.EmitLog(ctx, room,
		fmt.Sprintf("Received request to create or join room %s from client %s", room, client.sessionId))

	_, err := h.Service.RecordCollaborator(ctx, room, client.sessionId)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			h.sendCallerLog(client, fmt.Sprintf("Cannot join room %s: project not found", room))
			return
		}
		log.Printf("RecordCollaborator failed for room %s: %v", room, err)
		h.sendCallerLog(client, fmt.Sprintf("Cannot join room %s: internal error", room))
		return
	}

	h.Hub.JoinCh <- joinRequest{client: client, room: room}
}

// sendCallerLog delivers a log line to the requesting client only,
// bypassing the room channel the client never made it into.
func (h *Handler) sendCallerLog(client *Client, text string) {
	log.Printf("[Server]: %s", text)
	frame, err := json.Marshal(responseMessage{Type: "log", Data: "[Server]: " + text})
	if err != nil {
		log.Printf("Failed to marshal log message: %v", err)
		return
	}
	client.trySend(frame)
}
