package ws

import "encoding/json"

// Inbound and outbound message types. Every frame is a JSON envelope with a
// type discriminator and a payload.
const (
	// Inbound
	TypeRegister    = "register"
	TypeLogin       = "login"
	TypePlacePixel  = "placePixel"
	TypeChatMessage = "chatMessage"
	TypeForceLoad   = "forceLoad"

	// Outbound
	TypeCanvas      = "canvas"
	TypeUpdate      = "update"
	TypeChatHistory = "chatHistory"
	TypeLeaderboard = "leaderboard"
	TypeCooldown    = "cooldown"
	TypeRegistered  = "registered"
	TypeLoggedIn    = "loggedIn"
	TypeError       = "error"
)

// Envelope is the wire frame for every message in both directions
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// credentialsPayload is the inbound payload for register and login. The
// fingerprint travels as visitorId, the field name the FingerprintJS
// browser library produces.
type credentialsPayload struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	VisitorID string `json:"visitorId"`
}

// placePixelPayload is the inbound payload for placePixel. ClientAddress,
// when present, overrides the session's network address for rate limiting.
type placePixelPayload struct {
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Color         string `json:"color"`
	ClientAddress string `json:"clientAddress,omitempty"`
}

// updatePayload is the outbound single-cell change
type updatePayload struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

// userPayload is the outbound payload for registered and loggedIn
type userPayload struct {
	Username string `json:"username"`
}

// encode builds a wire frame. Payloads are plain data types; a marshal
// failure here is a programming error and yields nil, which TrySend and
// Broadcast treat as a dropped message.
func encode(msgType string, payload any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil
	}
	return data
}
