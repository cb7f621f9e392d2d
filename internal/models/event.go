package models

import (
	"strconv"
	"strings"
)

type EventKind string

const (
	EventKindCommand  EventKind = "command"
	EventKindText     EventKind = "text"
	EventKindCallback EventKind = "callback"
)

// ChatEvent is one inbound user action, independent of the chat platform.
type ChatEvent struct {
	ChatID int64     `json:"chat_id" validate:"required"`
	UserID int64     `json:"user_id,omitempty"`
	Kind   EventKind `json:"kind" validate:"required,oneof=command text callback"`
	// Text is the raw message for command and text events, e.g. "/add 12345".
	Text string `json:"text,omitempty"`
	// Data is the inline action payload for callback events.
	Data string `json:"data,omitempty"`
}

// Command splits a command event text into its name and arguments.
// "/add@my_bot 123" yields ("add", ["123"]).
func (e ChatEvent) Command() (string, []string) {
	fields := strings.Fields(e.Text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(name), fields[1:]
}

// IsCancel reports whether the event is a /cancel command or a cancel button.
func (e ChatEvent) IsCancel() bool {
	switch e.Kind {
	case EventKindCommand:
		name, _ := e.Command()
		return name == "cancel"
	case EventKindCallback:
		return ParseCallback(e.Data).Action == CallbackCancel
	}
	return false
}

type Button struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

type Reply struct {
	ChatID    int64        `json:"chat_id"`
	Text      string       `json:"text"`
	ParseMode string       `json:"parse_mode,omitempty"`
	Keyboard  [][]Button   `json:"keyboard,omitempty"`
	State     SessionState `json:"state"`
	ErrorKind ErrorKind    `json:"error_kind,omitempty"`
}

// Callback prefixes. None is a prefix of another.
const (
	PrefixSearchPage   = "searchpage_"
	PrefixSearchSelect = "searchsel_"
	PrefixSearchCancel = "searchcancel_"
	PrefixMenu         = "menu_"

	CallbackCancelSearch = PrefixSearchCancel + "end_search"
	CallbackMenuSearch   = PrefixMenu + "search"
	CallbackMenuHelp     = PrefixMenu + "help"

	callbackTokenSeparator = ":"
)

var CallbackPrefixes = []string{
	PrefixSearchPage,
	PrefixSearchSelect,
	PrefixSearchCancel,
	PrefixMenu,
}

type CallbackAction int

const (
	CallbackUnknown CallbackAction = iota
	CallbackPage
	CallbackSelect
	CallbackCancel
	CallbackMenu
)

type Callback struct {
	Action  CallbackAction
	Token   string
	Payload string
}

// Page returns the 0-indexed target page of a page callback.
func (c Callback) Page() (int, error) {
	return strconv.Atoi(c.Payload)
}

func PageCallbackData(token string, page int) string {
	return PrefixSearchPage + token + callbackTokenSeparator + strconv.Itoa(page)
}

func SelectCallbackData(token, itemID string) string {
	return PrefixSearchSelect + token + callbackTokenSeparator + itemID
}

func ParseCallback(data string) Callback {
	switch {
	case strings.HasPrefix(data, PrefixSearchPage):
		token, payload := splitToken(strings.TrimPrefix(data, PrefixSearchPage))
		return Callback{Action: CallbackPage, Token: token, Payload: payload}
	case strings.HasPrefix(data, PrefixSearchSelect):
		token, payload := splitToken(strings.TrimPrefix(data, PrefixSearchSelect))
		return Callback{Action: CallbackSelect, Token: token, Payload: payload}
	case strings.HasPrefix(data, PrefixSearchCancel):
		return Callback{Action: CallbackCancel, Payload: strings.TrimPrefix(data, PrefixSearchCancel)}
	case strings.HasPrefix(data, PrefixMenu):
		return Callback{Action: CallbackMenu, Payload: strings.TrimPrefix(data, PrefixMenu)}
	}
	return Callback{Action: CallbackUnknown, Payload: data}
}

// splitToken accepts both "<token>:<payload>" and a bare "<payload>".
func splitToken(s string) (string, string) {
	token, payload, found := strings.Cut(s, callbackTokenSeparator)
	if !found {
		return "", s
	}
	return token, payload
}
