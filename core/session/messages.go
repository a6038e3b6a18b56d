package session

import (
	"encoding/json"
	"time"
)

// MessageType names a websocket message.
type MessageType string

const (
	// page -> server
	MsgTypeSearchQuery  MessageType = "search_query"  // search field text changed
	MsgTypeSearchSubmit MessageType = "search_submit" // Enter or search button
	MsgTypeSelect       MessageType = "select"        // station clicked
	MsgTypeTogglePlay   MessageType = "toggle_play"
	MsgTypeToggleMute   MessageType = "toggle_mute"
	MsgTypeVolume       MessageType = "volume"
	MsgTypeAudioError   MessageType = "audio_error" // <audio> error event
	MsgTypePing         MessageType = "ping"

	// server -> page
	MsgTypeHello  MessageType = "hello"
	MsgTypeAudio  MessageType = "audio" // command for the page's audio element
	MsgTypeState  MessageType = "state" // full render model
	MsgTypePong   MessageType = "pong"
	MsgTypeReload MessageType = "reload"
	MsgTypeError  MessageType = "error" // protocol errors only
)

// WSMessage is the envelope of every websocket message.
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// QueryData carries the search field text.
type QueryData struct {
	Query string `json:"query"`
}

// SelectData names the clicked station.
type SelectData struct {
	StationID string `json:"stationId"`
}

// VolumeData carries the slider value.
type VolumeData struct {
	Level float64 `json:"level"`
}

// AudioErrorData is reported by the page when its audio element fails.
type AudioErrorData struct {
	StationID string `json:"stationId"`
	Message   string `json:"message"`
}

// HelloData is sent once after the session is registered.
type HelloData struct {
	SessionID string `json:"sessionId"`
}

// ErrorData describes a rejected message.
type ErrorData struct {
	Message string `json:"message"`
}

// AudioOp is one command of the playback capability.
type AudioOp string

const (
	AudioSetSource AudioOp = "set_source"
	AudioSetVolume AudioOp = "set_volume"
	AudioPlay      AudioOp = "play"
	AudioPause     AudioOp = "pause"
)

// AudioCommand is applied by the page to its audio element, in order.
type AudioCommand struct {
	Op     AudioOp  `json:"op"`
	URL    string   `json:"url,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
}

// encode builds a timestamped envelope around data.
func encode(t MessageType, data interface{}) ([]byte, error) {
	msg := WSMessage{Type: t, Timestamp: time.Now().UnixMilli()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(&msg)
}
