package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Envelope is the wire format of every event in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound event names.
const (
	EvRegisterUser    = "register_user"
	EvRequestRoomList = "request_room_list"
	EvCreateRoom      = "create_room"
	EvDeleteRoom      = "delete_room"
	EvRenameRoom      = "rename_room"
	EvToggleRoomAI    = "toggle_room_ai"
	EvChangeRoomTheme = "change_room_theme"
	EvVerifyRoomCode  = "verify_room_code"
	EvJoinRoomGuest   = "join_room_guest"
	EvJoinRoomAuth    = "join_room_authenticated"
	EvJoinRoomInvite  = "join_room_invite"
	EvJoinRoom        = "join_room"
	EvLeaveRoom       = "leave_room"
	EvSendMessage     = "send_message"
	EvDeleteMessage   = "delete_message"
	EvAddReaction     = "addReaction"
	EvTyping          = "typing"
	EvJoinCall        = "join_call"
	EvLeaveCall       = "leave_call"
	EvWebRTCOffer     = "webrtc_offer"
	EvWebRTCAnswer    = "webrtc_answer"
	EvWebRTCICE       = "webrtc_ice_candidate"
)

// Outbound event names.
const (
	EvConnected          = "connected"
	EvRoomListUpdate     = "room_list_update"
	EvRoomCreateFailed   = "room_create_failed"
	EvRoomUpdateFailed   = "room_update_failed"
	EvRoomAIToggled      = "room_ai_toggled"
	EvRoomAIToggleFailed = "room_ai_toggle_failed"
	EvRoomThemeChanged   = "room_theme_changed"
	EvVerifyCodeResult   = "verify_room_code_result"
	EvGuestJoinedSuccess = "guest_joined_success"
	EvGuestJoinFailed    = "guest_join_failed"
	EvAuthJoinResult     = "join_room_authenticated_result"
	EvInviteJoinResult   = "join_room_invite_result"
	EvSystemMessage      = "system_message"
	EvPresenceUpdate     = "room_presence_update"
	EvReceiveMessage     = "receive_message"
	EvMessageDeleted     = "message_deleted"
	EvDeleteMsgResult    = "delete_message_result"
	EvReactionUpdated    = "reactionUpdated"
	EvExistingPeers      = "existing_peers"
	EvUserJoinedCall     = "user_joined_call"
	EvUserLeftCall       = "user_left_call"
	EvCallStarted        = "call_started"
	EvCallEnded          = "call_ended"
	EvError              = "error"
)

// Failure reason codes reported to the originating connection.
const (
	ReasonMissingOwner    = "MISSING_OWNER"
	ReasonLimitReached    = "LIMIT_REACHED"
	ReasonNotOwner        = "NOT_OWNER"
	ReasonNotAuthorized   = "NOT_AUTHORIZED"
	ReasonRoomNotFound    = "ROOM_NOT_FOUND"
	ReasonMessageNotFound = "MESSAGE_NOT_FOUND"
	ReasonBadPayload      = "BAD_PAYLOAD"
	ReasonServerError     = "SERVER_ERROR"
)

type RegisterUserPayload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type CreateRoomPayload struct {
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	OwnerName string `json:"ownerName"`
	AllowAI   bool   `json:"allowAI"`
	Theme     string `json:"theme"`
}

type RoomIDPayload struct {
	RoomID uint `json:"roomId"`
}

type RenameRoomPayload struct {
	RoomID uint   `json:"roomId"`
	Name   string `json:"name"`
}

type ChangeThemePayload struct {
	RoomID    uint   `json:"roomId"`
	Theme     string `json:"theme"`
	ChangedBy string `json:"changedBy"`
}

type VerifyCodePayload struct {
	Code string `json:"code"`
}

type JoinGuestPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type JoinAuthPayload struct {
	Code   string `json:"code"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// JoinInvitePayload joins a room through its shareable invite link. UserID
// and Email identify a signed-in user; without them the joiner becomes a
// guest and Name is required.
type JoinInvitePayload struct {
	LinkID string `json:"linkId"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type JoinRoomPayload struct {
	RoomID      uint   `json:"roomId"`
	DisplayName string `json:"displayName"`
}

type SendMessagePayload struct {
	RoomID          uint   `json:"roomId"`
	Text            string `json:"text"`
	Role            string `json:"role"`
	SenderUserID    string `json:"senderUserId"`
	SenderGuestName string `json:"senderGuestName"`
	MediaURL        string `json:"mediaUrl"`
	MediaType       string `json:"mediaType"`
	SentAt          int64  `json:"sentAt"`
}

type DeleteMessagePayload struct {
	MessageID          string `json:"messageId"`
	RequesterUserID    string `json:"requesterUserId"`
	RequesterGuestName string `json:"requesterGuestName"`
}

type ReactionPayload struct {
	MessageID   string `json:"messageId"`
	Emoji       string `json:"emoji"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type TypingPayload struct {
	RoomID      uint   `json:"roomId"`
	DisplayName string `json:"displayName"`
}

type CallPayload struct {
	RoomID      uint   `json:"roomId"`
	DisplayName string `json:"displayName"`
}

// CallPeer identifies one existing call participant to a new joiner.
type CallPeer struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
}

// newEvent marshals an outbound event envelope.
func newEvent(eventType string, payload any) []byte {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		return nil
	}
	data, err := json.Marshal(Envelope{Type: eventType, Payload: body})
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("marshal event envelope")
		return nil
	}
	return data
}

func failureEvent(eventType, reason string) []byte {
	return newEvent(eventType, map[string]string{"reason": reason})
}
