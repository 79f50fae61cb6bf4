package websocket

import (
	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/hiremind/hiremind-backend/internal/quizsecurity"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStart            Action = "start"
	ActionSignal           Action = "signal"
	ActionFullscreenDenied Action = "fullscreen_denied"
	ActionAnswer           Action = "answer"
	ActionSubmit           Action = "submit"
	ActionEnd              Action = "end"
	ActionPing             Action = "ping"
)

// Channel names which page event a signal action carries.
type Channel string

const (
	ChannelVisibility  Channel = "visibility"
	ChannelFocus       Channel = "focus"
	ChannelContextMenu Channel = "contextmenu"
	ChannelKeydown     Channel = "keydown"
	ChannelFullscreen  Channel = "fullscreen"
)

// RequestPayload is the union of every client message. Only the fields
// relevant to Action are read.
type RequestPayload struct {
	Action Action `json:"action"`

	// start
	Minutes int `json:"minutes,omitempty"`

	// signal
	Channel    Channel `json:"channel,omitempty"`
	Hidden     bool    `json:"hidden,omitempty"`
	Focused    bool    `json:"focused,omitempty"`
	Key        string  `json:"key,omitempty"`
	Ctrl       bool    `json:"ctrl,omitempty"`
	Shift      bool    `json:"shift,omitempty"`
	Alt        bool    `json:"alt,omitempty"`
	Meta       bool    `json:"meta,omitempty"`
	Fullscreen bool    `json:"fullscreen,omitempty"`

	// answer
	Index  *int   `json:"index,omitempty"`
	Answer string `json:"answer,omitempty"`
}

// KeyCombo assembles the keydown fields of a signal.
func (p RequestPayload) KeyCombo() quizsecurity.KeyCombo {
	return quizsecurity.KeyCombo{Key: p.Key, Ctrl: p.Ctrl, Shift: p.Shift, Alt: p.Alt, Meta: p.Meta}
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventNotice    Event = "notice"
	EventCommand   Event = "command"
	EventSignalAck Event = "signal_ack"
	EventSaved     Event = "saved"
	EventResult    Event = "result"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// CommandName is an instruction the page shim must carry out.
type CommandName string

const (
	CommandEnterFullscreen CommandName = "enter_fullscreen"
	CommandExitFullscreen  CommandName = "exit_fullscreen"
)

type StateResponse struct {
	Event Event                 `json:"event"`
	State quizsecurity.Snapshot `json:"state"`
}

type NoticeResponse struct {
	Event   Event                    `json:"event"`
	Level   quizsecurity.NoticeLevel `json:"level"`
	Message string                   `json:"message"`
}

type CommandResponse struct {
	Event Event       `json:"event"`
	Name  CommandName `json:"name"`
}

type SignalAckResponse struct {
	Event    Event   `json:"event"`
	Channel  Channel `json:"channel"`
	Suppress bool    `json:"suppress"`
}

type SavedResponse struct {
	Event Event `json:"event"`
	Index int   `json:"index"`
}

type ResultResponse struct {
	Event      Event             `json:"event"`
	Assessment *model.Assessment `json:"assessment"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
