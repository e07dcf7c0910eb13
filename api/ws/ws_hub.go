package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/zlnvch/canvashub/cache"
	"github.com/zlnvch/canvashub/service"
)

type joinRequest struct {
	client *Client
	room   string
}

type leaveRequest struct {
	client *Client
	room   string
}

// roomEnvelope is the pub/sub wire format for room broadcasts. Frame is the
// client-ready message; the remaining fields are routing metadata so every
// hub instance can apply sender exclusion locally.
type roomEnvelope struct {
	Room          string          `json:"room"`
	Sender        string          `json:"sender,omitempty"`
	ExcludeSender bool            `json:"excludeSender,omitempty"`
	Frame         json.RawMessage `json:"frame"`
}

type responseMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type roomData struct {
	Room string `json:"room"`
}

type messageData struct {
	Room    string          `json:"room"`
	Sender  string          `json:"sender"`
	Payload json.RawMessage `json:"payload"`
}

// Hub maintains the set of active clients and the room registry, and
// broadcasts messages to the clients. Every registry mutation and the
// post-join member count read happen on the Run goroutine, so two
// simultaneous first joins of the same room resolve to exactly one
// creator. Pub/sub deliveries are routed back through DeliverCh for the
// same reason: fan-out touches the registry, so it must run on-loop.
type Hub struct {
	projectCache         cache.ProjectCache
	OpenCh               chan *Client
	CloseCh              chan *Client
	JoinCh               chan joinRequest
	LeaveCh              chan leaveRequest
	DeliverCh            chan []byte
	UserDeletedCh        chan string
	registry             *RoomRegistry
	userToClients        map[string]map[*Client]struct{}
	roomSubscriberCancel map[string]context.CancelFunc
}

func NewHub(projectCache cache.ProjectCache) *Hub {
	return &Hub{
		projectCache:         projectCache,
		OpenCh:               make(chan *Client, 256),
		CloseCh:              make(chan *Client, 256),
		JoinCh:               make(chan joinRequest, 1024),
		LeaveCh:              make(chan leaveRequest, 1024),
		DeliverCh:            make(chan []byte, 1024),
		UserDeletedCh:        make(chan string, 64),
		registry:             NewRoomRegistry(),
		userToClients:        make(map[string]map[*Client]struct{}),
		roomSubscriberCancel: make(map[string]context.CancelFunc),
	}
}

const (
	maxConnectionsPerUser = 3
	maxRoomsPerConnection = 50
)

func (h *Hub) Run() {
	for {
		// Admissions run ahead of everything else. A connection's open is
		// queued before its pumps start, so draining OpenCh first
		// guarantees no request is ever handled for an unprocessed open.
		select {
		case client := <-h.OpenCh:
			h.admitClient(client)
			continue
		default:
		}

		select {
		case client := <-h.OpenCh:
			h.admitClient(client)

		case client := <-h.CloseCh:
			h.closeClient(client)

		case req := <-h.JoinCh:
			h.handleJoin(req.client, req.room)

		case req := <-h.LeaveCh:
			h.handleLeave(req.client, req.room)

		case messageBytes := <-h.DeliverCh:
			h.deliver(messageBytes)

		case userId := <-h.UserDeletedCh:
			if clients, ok := h.userToClients[userId]; ok {
				for client := range clients {
					h.closeClient(client)
					client.shutdown()
				}
			}
		}
	}
}

// admitClient records the connection, or refuses it when the user is
// already at the connection cap. A refused client is shut down but its
// channels stay open; the transport close arrives through CloseCh as
// usual.
func (h *Hub) admitClient(client *Client) {
	if _, ok := h.userToClients[client.userId]; !ok {
		h.userToClients[client.userId] = make(map[*Client]struct{})
	}

	if len(h.userToClients[client.userId]) >= maxConnectionsPerUser {
		log.Printf("User %s reached max connections (%d)", client.userId, maxConnectionsPerUser)
		h.rejectCaller(client, "Connection limit reached - closing this connection")
		client.shutdown()
		return
	}

	h.userToClients[client.userId][client] = struct{}{}
}

// handleJoin performs the registry half of a join. Collaborator
// persistence and the intent log already happened on the handler
// goroutine; by the time a request lands here the project is known to
// exist.
func (h *Hub) handleJoin(client *Client, room string) {
	// An over-limit connection is never admitted; its reads keep arriving
	// until the transport closes, so joins from it must be refused here.
	if _, admitted := h.userToClients[client.userId][client]; !admitted {
		h.rejectCaller(client, fmt.Sprintf("Cannot join room %s: connection is not admitted", room))
		return
	}

	if _, joined := client.rooms[room]; !joined && len(client.rooms) >= maxRoomsPerConnection {
		h.rejectCaller(client, fmt.Sprintf("Cannot join room %s: connection reached the limit of %d rooms", room, maxRoomsPerConnection))
		return
	}

	if err := h.ensureRoomSubscription(room); err != nil {
		log.Printf("Failed to create redis sub for room %s: %v", room, err)
		h.rejectCaller(client, fmt.Sprintf("Cannot join room %s: internal error", room))
		return
	}

	// Registry join is idempotent; the count branch and logs run on a
	// re-join too, matching the event contract.
	h.registry.Join(room, client)
	client.rooms[room] = struct{}{}

	// The count is read after the join, on the same goroutine that
	// performed it. count == 1 therefore identifies the creator uniquely.
	count := h.registry.MemberCount(room)
	if count == 1 {
		h.sendDirect(client, responseMessage{Type: "created", Data: roomData{Room: room}})
		h.EmitLog(context.Background(), room, fmt.Sprintf("Client %s created room %s", client.sessionId, room))
	} else {
		h.broadcast(context.Background(), room, "", false, responseMessage{Type: "joined", Data: roomData{Room: room}})
		h.EmitLog(context.Background(), room, fmt.Sprintf("Client %s joined room %s", client.sessionId, room))
	}
	h.EmitLog(context.Background(), room, fmt.Sprintf("Room %s now has %d client(s)", room, count))
}

func (h *Hub) handleLeave(client *Client, room string) {
	removed, emptied := h.registry.Leave(room, client)
	if removed {
		// The leaver is already out of the registry, so the room
		// broadcast cannot reach them. They still get the log lines, as
		// a direct copy.
		left := fmt.Sprintf("Client %s left room %s", client.sessionId, room)
		h.EmitLog(context.Background(), room, left)
		h.sendDirect(client, responseMessage{Type: "log", Data: "[Server]: " + left})
		if emptied {
			empty := fmt.Sprintf("Room %s is now empty - resetting its state", room)
			h.EmitLog(context.Background(), room, empty)
			h.sendDirect(client, responseMessage{Type: "log", Data: "[Server]: " + empty})
			if cancel, ok := h.roomSubscriberCancel[room]; ok {
				cancel()
				delete(h.roomSubscriberCancel, room)
			}
		}
	}
	// Removed unconditionally: the connection may track a room it never
	// managed to join.
	delete(client.rooms, room)
}

// closeClient treats a transport close as an explicit leave of every room
// the connection had joined, so empty rooms are reset instead of leaking.
func (h *Hub) closeClient(client *Client) {
	for room := range client.rooms {
		h.handleLeave(client, room)
	}
	delete(h.userToClients[client.userId], client)
	if len(h.userToClients[client.userId]) == 0 {
		delete(h.userToClients, client.userId)
	}
}

func (h *Hub) deliver(messageBytes []byte) {
	var envelope roomEnvelope
	if err := json.Unmarshal(messageBytes, &envelope); err != nil {
		log.Printf("Failed to unmarshal room envelope: %v", err)
		return
	}

	for sessionId, client := range h.registry.Members(envelope.Room) {
		if envelope.ExcludeSender && sessionId == envelope.Sender {
			continue
		}
		client.trySend([]byte(envelope.Frame))
	}
}

// ensureRoomSubscription lazily creates the Redis subscription backing a
// room and feeds everything it receives back into the Run loop.
func (h *Hub) ensureRoomSubscription(room string) error {
	if _, ok := h.roomSubscriberCancel[room]; ok {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	err := h.projectCache.Subscribe(ctx, "room:"+room, func(messageBytes []byte) {
		h.DeliverCh <- messageBytes
	})
	if err != nil {
		cancel()
		return err
	}
	h.roomSubscriberCancel[room] = cancel
	return nil
}

// rejectCaller tells the requesting client why its request went
// nowhere. The client is not in the room, so the room channel cannot
// carry the answer.
func (h *Hub) rejectCaller(client *Client, text string) {
	log.Printf("[Server]: %s", text)
	h.sendDirect(client, responseMessage{Type: "log", Data: "[Server]: " + text})
}

func (h *Hub) sendDirect(client *Client, message responseMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal %s message: %v", message.Type, err)
		return
	}
	client.trySend(messageBytes)
}

// broadcast publishes a client-ready frame on the room's channel. Safe to
// call from any goroutine; delivery happens on the Run loop of whichever
// hub instances hold members of the room.
func (h *Hub) broadcast(ctx context.Context, room string, sender string, excludeSender bool, message responseMessage) {
	frame, err := json.Marshal(message)
	if err != nil {
		log.Printf("Failed to marshal %s message: %v", message.Type, err)
		return
	}

	envelope := roomEnvelope{Room: room, Sender: sender, ExcludeSender: excludeSender, Frame: frame}
	envelopeBytes, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("Failed to marshal room envelope: %v", err)
		return
	}

	if err := h.projectCache.Publish(ctx, "room:"+room, envelopeBytes); err != nil {
		log.Printf("Failed to publish to room %s: %v", room, err)
	}
}

// EmitLog broadcasts a server diagnostic line to the room and mirrors it
// to the local log.
func (h *Hub) EmitLog(ctx context.Context, room string, text string) {
	log.Printf("[Server]: %s", text)
	h.broadcast(ctx, room, "", false, responseMessage{Type: "log", Data: "[Server]: " + text})
}

// RelayMessage forwards an opaque client payload to everyone else in the
// room.
func (h *Hub) RelayMessage(ctx context.Context, room string, sender string, payload json.RawMessage) {
	h.broadcast(ctx, room, sender, true, responseMessage{
		Type: "message",
		Data: messageData{Room: room, Sender: sender, Payload: payload},
	})
}

func (h *Hub) InitSubscriptions(shutdownCtx context.Context) error {
	err := h.projectCache.Subscribe(shutdownCtx, "user-deleted", func(message []byte) {
		var userDeletedMsg service.UserDeletedMessage
		if err := json.Unmarshal(message, &userDeletedMsg); err == nil {
			h.UserDeletedCh <- userDeletedMsg.UserId
		}
	})
	if err != nil {
		log.Printf("WS hub failed to subscribe to user-deleted: %v", err)
		return err
	}

	return nil
}
