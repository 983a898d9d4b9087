package socket

import (
	"encoding/json"

	"docshare/pkg/logger"
)

const ShareUpdateType = "SHARE_UPDATE"

type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ShareUpdatePayload struct {
	DocumentID  string `json:"document_id"`
	SharedWith  string `json:"shared_with"`
	AccessLevel string `json:"access_level"`
}

// Hub tracks live authenticated sessions and fans sharing events out
// to all of them. There is no per-recipient targeting: every live
// session receives every event.
type Hub struct {
	Sessions   map[*Session]bool
	Broadcast  chan Event
	Register   chan *Session
	Unregister chan *Session
}

func NewHub() *Hub {
	return &Hub{
		Sessions:   make(map[*Session]bool),
		Broadcast:  make(chan Event),
		Register:   make(chan *Session),
		Unregister: make(chan *Session),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case session := <-h.Register:
			h.Sessions[session] = true
			logger.Sugar.Infof("Session opened for user %s (%d live)", session.UserID, len(h.Sessions))

		case session := <-h.Unregister:
			if _, ok := h.Sessions[session]; ok {
				delete(h.Sessions, session)
				close(session.Send)
				logger.Sugar.Infof("Session closed for user %s (%d live)", session.UserID, len(h.Sessions))
			}

		case event := <-h.Broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast event: %v", err)
				continue
			}
			for session := range h.Sessions {
				select {
				case session.Send <- payload:
				default:
					// The send buffer is full, the session is lagging.
					// Drop it rather than block the hub.
					logger.Sugar.Warnf("Session for user %s has a full send buffer. Dropping.", session.UserID)
					delete(h.Sessions, session)
					close(session.Send)
				}
			}
		}
	}
}

// ShareUpdate emits a share-update event to all live sessions.
// Fire-and-forget: failures are logged, never returned.
func (h *Hub) ShareUpdate(docID, sharedWith, accessLevel string) {
	payload, err := json.Marshal(ShareUpdatePayload{
		DocumentID:  docID,
		SharedWith:  sharedWith,
		AccessLevel: accessLevel,
	})
	if err != nil {
		logger.Sugar.Errorf("Error marshalling share update: %v", err)
		return
	}
	h.Broadcast <- Event{Type: ShareUpdateType, Payload: payload}
}
