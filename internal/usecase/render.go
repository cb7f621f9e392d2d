package usecase

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
	"github.com/nguyentranbao-ct/torrent-bot/pkg/tmplx"
)

const (
	buttonTitleLimit   = 30
	headerKeywordLimit = 64
	parseModeHTML      = "HTML"
)

var itemTemplate = tmplx.MustParse("search_item", `
<b>👉 {{ escape .Title }}</b>
{{ if .Subtitle }}
  ◉ 📝 Name: <i>{{ escape .Subtitle }}</i>{{ end }}
  ◉ 🆔 ID: <code>{{ escape .ID }}</code>
  ◉ 💾 Size: {{ bytes .SizeBytes }}
  ◉ 📂 Category: {{ escape .CategoryLabel }}
{{- if .DiscountLabel }}
  ◉ 💰 Offer: {{ .DiscountLabel }}{{ end }}
`, tmplx.WithTemplateFunc("bytes", models.FormatBytes))

var itemSeparator = "\n" + strings.Repeat("─", 20) + "\n"

type renderedPage struct {
	Text      string
	Keyboard  [][]models.Button
	Truncated bool
}

type pageRenderer struct {
	maxLength int
}

func newPageRenderer(maxLength int) *pageRenderer {
	return &pageRenderer{maxLength: maxLength}
}

// Render builds the results message for the 0-indexed pageIndex. When the
// full text exceeds the length limit the item blocks are replaced by a short
// hint and the keyboard is kept.
func (r *pageRenderer) Render(token string, page *models.SearchResultPage, pageIndex int) (*renderedPage, error) {
	header := fmt.Sprintf("🔎 <b>Search results: “%s”</b> (%d total)", html.EscapeString(page.Keyword), page.TotalResults)
	footer := ""
	if page.TotalPages > 0 {
		footer = fmt.Sprintf("\n\n📄 Page <b>%d / %d</b>", page.CurrentPage, page.TotalPages)
	}

	blocks := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		block, err := itemTemplate.RenderString(item)
		if err != nil {
			return nil, fmt.Errorf("render item %s: %w", item.ID, err)
		}
		blocks = append(blocks, block)
	}

	out := &renderedPage{
		Text:     header + "\n" + strings.Join(blocks, itemSeparator) + footer,
		Keyboard: r.keyboard(token, page, pageIndex),
	}
	if utf8.RuneCountInString(out.Text) > r.maxLength {
		header = fmt.Sprintf("🔎 <b>Search results: “%s”</b> (%d total)", html.EscapeString(models.Truncate(page.Keyword, headerKeywordLimit)), page.TotalResults)
		out.Text = header + "\n\nToo many results to show here.\nPlease narrow your search or use the page buttons." + footer
		out.Truncated = true
	}
	return out, nil
}

func (r *pageRenderer) keyboard(token string, page *models.SearchResultPage, pageIndex int) [][]models.Button {
	rows := make([][]models.Button, 0, len(page.Items)+2)
	for _, item := range page.Items {
		rows = append(rows, []models.Button{{
			Text: fmt.Sprintf("📥 Download: %s (ID: %s)", models.Truncate(item.Title, buttonTitleLimit), item.ID),
			Data: models.SelectCallbackData(token, item.ID),
		}})
	}

	var nav []models.Button
	if pageIndex > 0 {
		nav = append(nav, models.Button{Text: "⬅️ Previous", Data: models.PageCallbackData(token, pageIndex-1)})
	}
	if pageIndex+1 < page.TotalPages {
		nav = append(nav, models.Button{Text: "➡️ Next", Data: models.PageCallbackData(token, pageIndex+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return append(rows, cancelSearchRow())
}

func cancelSearchRow() []models.Button {
	return []models.Button{{Text: "❌ Cancel search", Data: models.CallbackCancelSearch}}
}

func mainMenuKeyboard() [][]models.Button {
	return [][]models.Button{
		{{Text: menuSearchLabel, Data: models.CallbackMenuSearch}},
		{{Text: "❓ Help", Data: models.CallbackMenuHelp}},
	}
}
