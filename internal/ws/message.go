package ws

import (
	"encoding/json"

	"colourwars/internal/domain"
	"colourwars/internal/game"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// inbound
const (
	MsgCreateRoom         = "create_room"
	MsgCreateRoom4        = "create_room4"
	MsgJoinRoom           = "join_room"
	MsgJoinRoom4          = "join_room4"
	MsgFindMatch          = "find_match"
	MsgFindMatch4         = "find_match4"
	MsgCancelMatchmaking  = "cancel_matchmaking"
	MsgCancelMatchmaking4 = "cancel_matchmaking4"
	MsgMove               = "move"
	MsgAuthenticate       = "authenticate"
)

// outbound
const (
	MsgRoomCreated       = "room_created"
	MsgJoinedRoom        = "joined_room"
	MsgJoinError         = "join_error"
	MsgMatched           = "matched"
	MsgMatchmakingStatus = "matchmaking_status"
	MsgGameState         = "game_state"
	MsgPlayerJoined      = "player_joined"
	MsgPlayerTimedOut    = "player_timed_out"
	MsgPlayerLeft        = "player_left"
	MsgOpponentLeft      = "opponent_left"
	MsgRatingResults     = "rating_results"
	MsgAuthenticated     = "authenticated"
	MsgAuthError         = "auth_error"
	MsgError             = "error"
)

// join errors shown to players verbatim
const (
	ErrTextRoomNotFound   = "Room not found"
	ErrTextRoomFull       = "Room is full"
	ErrTextOwnRoom        = "You created this room. Share the code with a friend to join."
	ErrTextInvalidCode    = "Invalid room code"
	ErrTextAlreadyPlaying = "You are already in a game"
	ErrTextRoomExpired    = "Room expired"
	ErrTextSameAccount    = "This account is already seated in this room"
	ErrTextAlreadyQueued  = "This account is already searching for a match"
)

type roomRequest struct {
	Code string `json:"code"`
}

type moveRequest struct {
	Code string `json:"code"`
	Row  *int   `json:"row"`
	Col  *int   `json:"col"`
}

type authRequest struct {
	Token string `json:"token"`
}

type roomCreatedPayload struct {
	Code   string        `json:"code"`
	Player game.PlayerID `json:"player"`
	Mode   string        `json:"mode"`
}

type joinedRoomPayload struct {
	Code   string        `json:"code"`
	Player game.PlayerID `json:"player"`
	Mode   string        `json:"mode"`
}

type matchedPayload struct {
	Code   string        `json:"code"`
	Player game.PlayerID `json:"player"`
	Mode   string        `json:"mode"`
}

type textPayload struct {
	Message string `json:"message"`
}

type matchmakingStatusPayload struct {
	Mode      string `json:"mode"`
	Searching bool   `json:"searching"`
	Position  int    `json:"position"`
}

type playerJoinedPayload struct {
	Code   string `json:"code"`
	Count  int    `json:"count"`
	Needed int    `json:"needed"`
}

type playerPayload struct {
	Code   string        `json:"code"`
	Player game.PlayerID `json:"player"`
}

type seatView struct {
	Player       game.PlayerID `json:"player"`
	Name         string        `json:"name"`
	RemainingMs  int64         `json:"remaining_ms"`
	AIControlled bool          `json:"ai_controlled"`
	Eliminated   bool          `json:"eliminated"`
	Orbs         int           `json:"orbs"`
}

type gameStatePayload struct {
	Code             string            `json:"code"`
	Mode             string            `json:"mode"`
	State            string            `json:"state"`
	Rows             int               `json:"rows"`
	Cols             int               `json:"cols"`
	Board            [][]game.Cell     `json:"board"`
	CurrentPlayer    game.PlayerID     `json:"current_player"`
	TurnStartedAt    int64             `json:"turn_started_at"`
	Winner           game.PlayerID     `json:"winner"`
	Players          []seatView        `json:"players"`
	EliminationOrder [][]game.PlayerID `json:"elimination_order"`
}

type ratingResultsPayload struct {
	Code    string                `json:"code"`
	Winner  game.PlayerID         `json:"winner"`
	Results []domain.RatingChange `json:"results"`
}

type authenticatedPayload struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

func encode(msgType string, payload any) ([]byte, error) {
	return json.Marshal(outboundMessage{Type: msgType, Payload: payload})
}
