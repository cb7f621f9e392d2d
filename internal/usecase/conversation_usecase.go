package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nguyentranbao-ct/torrent-bot/internal/config"
	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
)

const (
	menuSearchLabel = "🔍 Search"

	welcomeText = "👋 Hello! Search a tracker and send torrents straight to your downloaders.\n" +
		"Tap <b>Search</b> below or send /help."
	helpText = "<b>💡 Torrent bot help</b>\n\n" +
		"<b>Commands:</b>\n" +
		"  <code>/start</code> - show the main menu.\n" +
		"  <code>/search</code> - search the tracker by keyword.\n" +
		"  <code>/add &lt;torrent id&gt;</code> - send a torrent straight to the downloaders, e.g. <code>/add 12345</code>\n" +
		"  <code>/cancel</code> - cancel the current search.\n" +
		"  <code>/help</code> - show this message."
	promptKeywordText = "Please enter search keywords:"
	emptyKeywordText  = "⚠️ Search keywords cannot be empty. Enter a keyword or use /cancel."
	staleText         = "⌛ This search has expired. Use /search to start a new one."
	unknownText       = "🤔 Unknown command. Try /help."
	keywordLostText   = "❌ Internal error: the search keyword was lost. Please start a new search."
	renderFailedText  = "❌ Failed to display the search results. Please start a new search."
	cancelledText     = "✅ Search cancelled."
	nothingToCancel   = "Nothing to cancel."
	addUsageText      = "⚠️ Please provide a torrent id, e.g. /add 12345"
)

var ErrChatNotAllowed = errors.New("chat not allowed")

type ConversationUsecase interface {
	HandleEvent(ctx context.Context, event models.ChatEvent) (*models.Reply, error)
	StartSearch(ctx context.Context, chatID int64) *models.Reply
	SubmitKeyword(ctx context.Context, chatID int64, text string) *models.Reply
	// RequestPage loads the 0-indexed page of the session identified by token.
	RequestPage(ctx context.Context, chatID int64, token string, page int) *models.Reply
	SelectResult(ctx context.Context, chatID int64, token, itemID string) *models.Reply
	Cancel(ctx context.Context, chatID int64) *models.Reply
	DirectAdd(ctx context.Context, chatID int64, torrentID string) *models.Reply
	State(chatID int64) models.SessionState
}

type conversationUsecase struct {
	trackerName string
	search      SearchUsecase
	task        TaskUsecase
	sessions    SessionStore
	allowlist   AllowlistService
	renderer    *pageRenderer
	now         func() time.Time
	log         *zap.SugaredLogger
}

func NewConversationUsecase(
	cfg *config.Config,
	search SearchUsecase,
	task TaskUsecase,
	sessions SessionStore,
	allowlist AllowlistService,
	log *zap.SugaredLogger,
) ConversationUsecase {
	return &conversationUsecase{
		trackerName: cfg.Bot.DefaultTracker,
		search:      search,
		task:        task,
		sessions:    sessions,
		allowlist:   allowlist,
		renderer:    newPageRenderer(cfg.Bot.MaxMessageLength),
		now:         time.Now,
		log:         log.Named("usecase.conversation"),
	}
}

type trigger string

const (
	triggerUnknown trigger = "unknown"
	triggerStart   trigger = "start"
	triggerHelp    trigger = "help"
	triggerSearch  trigger = "search"
	triggerKeyword trigger = "keyword"
	triggerPage    trigger = "page"
	triggerSelect  trigger = "select"
	triggerCancel  trigger = "cancel"
	triggerAdd     trigger = "add"
)

type action struct {
	trigger  trigger
	text     string
	args     []string
	callback models.Callback
}

type transition func(uc *conversationUsecase, ctx context.Context, chatID int64, a action) *models.Reply

// anyState rows apply when the current state has no row for the trigger.
const anyState models.SessionState = "*"

var transitions = map[models.SessionState]map[trigger]transition{
	anyState: {
		triggerStart:  (*conversationUsecase).onStart,
		triggerHelp:   (*conversationUsecase).onHelp,
		triggerSearch: (*conversationUsecase).onSearch,
		triggerCancel: (*conversationUsecase).onCancel,
		triggerAdd:    (*conversationUsecase).onAdd,
	},
	models.StateAwaitingKeyword: {
		triggerKeyword: (*conversationUsecase).onKeyword,
	},
	models.StateShowingResults: {
		triggerPage:   (*conversationUsecase).onPage,
		triggerSelect: (*conversationUsecase).onSelect,
	},
}

func (uc *conversationUsecase) HandleEvent(ctx context.Context, event models.ChatEvent) (*models.Reply, error) {
	if event.ChatID == 0 {
		return nil, models.NewError(models.KindInputInvalid, "chat id is required", nil)
	}
	if !uc.allowlist.IsChatAllowed(event.ChatID) {
		uc.log.Infow("ignoring event from chat outside the allowlist", "chat_id", event.ChatID)
		return nil, fmt.Errorf("%w: %d", ErrChatNotAllowed, event.ChatID)
	}

	a := classify(event)
	state := uc.State(event.ChatID)
	uc.log.Debugw("handling event", "chat_id", event.ChatID, "kind", event.Kind, "trigger", a.trigger, "state", state)
	return uc.fire(ctx, state, event.ChatID, a), nil
}

func (uc *conversationUsecase) fire(ctx context.Context, state models.SessionState, chatID int64, a action) *models.Reply {
	if t, ok := transitions[state][a.trigger]; ok {
		return t(uc, ctx, chatID, a)
	}
	if t, ok := transitions[anyState][a.trigger]; ok {
		return t(uc, ctx, chatID, a)
	}
	if a.trigger == triggerPage || a.trigger == triggerSelect {
		return uc.staleReply(chatID, state)
	}
	return newReply(chatID, state, unknownText, nil)
}

func classify(event models.ChatEvent) action {
	switch event.Kind {
	case models.EventKindCommand:
		name, args := event.Command()
		switch trigger(name) {
		case triggerStart, triggerHelp, triggerSearch, triggerCancel, triggerAdd:
			return action{trigger: trigger(name), args: args}
		}
	case models.EventKindText:
		if strings.TrimSpace(event.Text) == menuSearchLabel {
			return action{trigger: triggerSearch}
		}
		return action{trigger: triggerKeyword, text: event.Text}
	case models.EventKindCallback:
		cb := models.ParseCallback(event.Data)
		switch cb.Action {
		case models.CallbackPage:
			return action{trigger: triggerPage, callback: cb}
		case models.CallbackSelect:
			return action{trigger: triggerSelect, callback: cb}
		case models.CallbackCancel:
			return action{trigger: triggerCancel, callback: cb}
		case models.CallbackMenu:
			switch cb.Payload {
			case "search":
				return action{trigger: triggerSearch}
			case "help":
				return action{trigger: triggerHelp}
			}
		}
	}
	return action{trigger: triggerUnknown}
}

func (uc *conversationUsecase) onStart(_ context.Context, chatID int64, _ action) *models.Reply {
	return newReply(chatID, uc.State(chatID), welcomeText, mainMenuKeyboard())
}

func (uc *conversationUsecase) onHelp(_ context.Context, chatID int64, _ action) *models.Reply {
	return newReply(chatID, uc.State(chatID), helpText, mainMenuKeyboard())
}

func (uc *conversationUsecase) onSearch(ctx context.Context, chatID int64, _ action) *models.Reply {
	return uc.StartSearch(ctx, chatID)
}

func (uc *conversationUsecase) onKeyword(ctx context.Context, chatID int64, a action) *models.Reply {
	return uc.SubmitKeyword(ctx, chatID, a.text)
}

func (uc *conversationUsecase) onPage(ctx context.Context, chatID int64, a action) *models.Reply {
	page, err := a.callback.Page()
	if err != nil {
		uc.log.Warnw("malformed page callback", "chat_id", chatID, "payload", a.callback.Payload)
		return uc.staleReply(chatID, uc.State(chatID))
	}
	return uc.RequestPage(ctx, chatID, a.callback.Token, page)
}

func (uc *conversationUsecase) onSelect(ctx context.Context, chatID int64, a action) *models.Reply {
	return uc.SelectResult(ctx, chatID, a.callback.Token, a.callback.Payload)
}

func (uc *conversationUsecase) onCancel(ctx context.Context, chatID int64, _ action) *models.Reply {
	return uc.Cancel(ctx, chatID)
}

func (uc *conversationUsecase) onAdd(ctx context.Context, chatID int64, a action) *models.Reply {
	torrentID := ""
	if len(a.args) > 0 {
		torrentID = a.args[0]
	}
	return uc.DirectAdd(ctx, chatID, torrentID)
}

func (uc *conversationUsecase) State(chatID int64) models.SessionState {
	unlock := uc.sessions.Lock(chatID)
	defer unlock()

	if s, ok := uc.sessions.Get(chatID); ok {
		return s.State
	}
	return models.StateIdle
}

func (uc *conversationUsecase) StartSearch(_ context.Context, chatID int64) *models.Reply {
	unlock := uc.sessions.Lock(chatID)
	defer unlock()

	now := uc.now()
	uc.sessions.Put(models.ConversationSession{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		State:     models.StateAwaitingKeyword,
		CreatedAt: now,
		UpdatedAt: now,
	})
	uc.log.Infow("search started", "chat_id", chatID)
	return newReply(chatID, models.StateAwaitingKeyword, promptKeywordText, [][]models.Button{cancelSearchRow()})
}

func (uc *conversationUsecase) SubmitKeyword(ctx context.Context, chatID int64, text string) *models.Reply {
	keyword := strings.TrimSpace(text)

	unlock := uc.sessions.Lock(chatID)
	s, ok := uc.sessions.Get(chatID)
	if !ok || s.State != models.StateAwaitingKeyword {
		unlock()
		return uc.staleReply(chatID, stateOf(s, ok))
	}
	if keyword == "" {
		unlock()
		return withKind(newReply(chatID, s.State, emptyKeywordText, [][]models.Button{cancelSearchRow()}), models.KindInputInvalid)
	}
	s.Keyword = keyword
	s.Seq++
	s.UpdatedAt = uc.now()
	uc.sessions.Put(s)
	unlock()

	uc.log.Infow("keyword received", "chat_id", chatID, "keyword", keyword)
	return uc.loadPage(ctx, chatID, s.ID, s.Seq, keyword, 0)
}

func (uc *conversationUsecase) RequestPage(ctx context.Context, chatID int64, token string, page int) *models.Reply {
	unlock := uc.sessions.Lock(chatID)
	s, ok := uc.sessions.Get(chatID)
	if !ok || s.State != models.StateShowingResults || s.Token() != token || page < 0 {
		unlock()
		return uc.staleReply(chatID, stateOf(s, ok))
	}
	if s.Keyword == "" {
		uc.sessions.Delete(chatID)
		unlock()
		uc.log.Errorw("search keyword missing from session", "chat_id", chatID, "session_id", s.ID)
		return withKind(newReply(chatID, models.StateIdle, keywordLostText, mainMenuKeyboard()), models.KindSessionStale)
	}
	s.Seq++
	uc.sessions.Put(s)
	unlock()

	return uc.loadPage(ctx, chatID, s.ID, s.Seq, s.Keyword, page)
}

// loadPage searches outside the chat lock and applies the result only if the
// session it was started for is still current and no later page load for it
// has been requested since.
func (uc *conversationUsecase) loadPage(ctx context.Context, chatID int64, sessionID string, seq int64, keyword string, page int) *models.Reply {
	result, searchErr := uc.search.Search(ctx, uc.trackerName, keyword, page)

	unlock := uc.sessions.Lock(chatID)
	defer unlock()

	s, ok := uc.sessions.Get(chatID)
	if !ok || s.ID != sessionID {
		uc.log.Infow("discarding result of a replaced session", "chat_id", chatID, "session_id", sessionID)
		return withKind(newReply(chatID, stateOf(s, ok), "", nil), models.KindSessionStale)
	}
	if s.Seq != seq {
		uc.log.Infow("discarding result superseded by a later page request",
			"chat_id", chatID, "session_id", sessionID, "page", page)
		return withKind(newReply(chatID, s.State, "", nil), models.KindSessionStale)
	}

	s.UpdatedAt = uc.now()
	if searchErr != nil {
		uc.log.Warnw("search failed", "chat_id", chatID, "keyword", keyword, "page", page, "error", searchErr)
		s.State = models.StateShowingResults
		uc.sessions.Put(s)
		text := fmt.Sprintf("⚠️ Searching “%s” failed or the tracker returned no usable data. Please try again later.",
			html.EscapeString(keyword))
		keyboard := [][]models.Button{
			{{Text: "🔄 Retry", Data: models.PageCallbackData(s.Token(), page)}},
			cancelSearchRow(),
		}
		return withKind(newReply(chatID, s.State, text, keyboard), models.KindTrackerUnavailable)
	}

	if result.IsEmpty() {
		uc.sessions.Delete(chatID)
		text := fmt.Sprintf("🤷 No torrents found for “%s”.", html.EscapeString(keyword))
		return newReply(chatID, models.StateIdle, text, mainMenuKeyboard())
	}

	rendered, err := uc.renderer.Render(s.Token(), result, page)
	if err != nil {
		uc.sessions.Delete(chatID)
		uc.log.Errorw("failed to render search results", "chat_id", chatID, "error", err)
		return newReply(chatID, models.StateIdle, renderFailedText, mainMenuKeyboard())
	}
	if rendered.Truncated {
		uc.log.Infow("results message too long, sending short form",
			"chat_id", chatID, "error_kind", models.KindMessageTooLarge, "limit", uc.renderer.maxLength)
	}

	s.State = models.StateShowingResults
	s.PageIndex = page
	s.LastPage = result
	uc.sessions.Put(s)
	return newReply(chatID, s.State, rendered.Text, rendered.Keyboard)
}

func (uc *conversationUsecase) SelectResult(ctx context.Context, chatID int64, token, itemID string) *models.Reply {
	unlock := uc.sessions.Lock(chatID)
	s, ok := uc.sessions.Get(chatID)
	if !ok || s.State != models.StateShowingResults || s.Token() != token {
		unlock()
		return uc.staleReply(chatID, stateOf(s, ok))
	}
	item, found := s.LastPage.FindItem(itemID)
	if !found {
		unlock()
		uc.log.Infow("selected item is not on the current page", "chat_id", chatID, "item_id", itemID)
		return uc.staleReply(chatID, s.State)
	}
	uc.sessions.Delete(chatID)
	unlock()

	uc.log.Infow("result selected", "chat_id", chatID, "torrent_id", item.ID)
	succeeded, err := uc.task.Execute(ctx, item.ID)
	title, id := html.EscapeString(item.Title), html.EscapeString(item.ID)
	if err != nil || !succeeded {
		text := fmt.Sprintf("❌ Could not add <b>%s</b> (ID: <code>%s</code>). Please try again later.", title, id)
		return withKind(newReply(chatID, models.StateIdle, text, mainMenuKeyboard()), models.KindDownloaderFailure)
	}
	text := fmt.Sprintf("✅ Added <b>%s</b> (ID: <code>%s</code>) to the download queue.", title, id)
	return newReply(chatID, models.StateIdle, text, mainMenuKeyboard())
}

func (uc *conversationUsecase) Cancel(_ context.Context, chatID int64) *models.Reply {
	unlock := uc.sessions.Lock(chatID)
	existed := uc.sessions.Delete(chatID)
	unlock()

	if !existed {
		return newReply(chatID, models.StateIdle, nothingToCancel, mainMenuKeyboard())
	}
	uc.log.Infow("search cancelled", "chat_id", chatID)
	return newReply(chatID, models.StateIdle, cancelledText, mainMenuKeyboard())
}

func (uc *conversationUsecase) DirectAdd(ctx context.Context, chatID int64, torrentID string) *models.Reply {
	state := uc.State(chatID)
	torrentID = strings.TrimSpace(torrentID)
	if torrentID == "" {
		return withKind(newReply(chatID, state, addUsageText, nil), models.KindInputInvalid)
	}

	uc.log.Infow("direct add requested", "chat_id", chatID, "torrent_id", torrentID)
	succeeded, err := uc.task.Execute(ctx, torrentID)
	id := html.EscapeString(torrentID)
	if err != nil || !succeeded {
		text := fmt.Sprintf("❌ Could not add torrent ID <code>%s</code>. Please try again later.", id)
		return withKind(newReply(chatID, state, text, nil), models.KindDownloaderFailure)
	}
	return newReply(chatID, state, fmt.Sprintf("✅ Torrent ID <code>%s</code> was added to the download queue.", id), nil)
}

func (uc *conversationUsecase) staleReply(chatID int64, state models.SessionState) *models.Reply {
	return withKind(newReply(chatID, state, staleText, mainMenuKeyboard()), models.KindSessionStale)
}

func stateOf(s models.ConversationSession, ok bool) models.SessionState {
	if !ok {
		return models.StateIdle
	}
	return s.State
}

func newReply(chatID int64, state models.SessionState, text string, keyboard [][]models.Button) *models.Reply {
	return &models.Reply{
		ChatID:    chatID,
		Text:      text,
		ParseMode: parseModeHTML,
		Keyboard:  keyboard,
		State:     state,
	}
}

func withKind(reply *models.Reply, kind models.ErrorKind) *models.Reply {
	reply.ErrorKind = kind
	return reply
}
