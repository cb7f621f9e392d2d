package models

import (
	"strings"
	"time"
)

type SessionState string

const (
	StateIdle            SessionState = "IDLE"
	StateAwaitingKeyword SessionState = "AWAITING_KEYWORD"
	StateShowingResults  SessionState = "SHOWING_RESULTS"
)

const sessionTokenLength = 12

// ConversationSession is the per-chat search state. A missing session is IDLE.
type ConversationSession struct {
	ID        string            `json:"id"`
	ChatID    int64             `json:"chat_id"`
	State     SessionState      `json:"state"`
	Keyword   string            `json:"keyword,omitempty"`
	PageIndex int               `json:"page_index"`
	// Seq numbers page loads; only the latest one may apply its result.
	Seq       int64             `json:"seq"`
	LastPage  *SearchResultPage `json:"last_page,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Token is the short form of the session id carried in callback data.
func (s *ConversationSession) Token() string {
	return SessionToken(s.ID)
}

func SessionToken(id string) string {
	token := strings.ReplaceAll(id, "-", "")
	if len(token) > sessionTokenLength {
		token = token[:sessionTokenLength]
	}
	return token
}
