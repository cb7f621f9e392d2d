package usecase

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/torrent-bot/internal/models"
)

func testPage(items, totalPages int) *models.SearchResultPage {
	page := &models.SearchResultPage{
		Keyword:      "<ubuntu>",
		TotalResults: items * 3,
		CurrentPage:  1,
		TotalPages:   totalPages,
	}
	for i := 1; i <= items; i++ {
		page.Items = append(page.Items, models.SearchResultItem{
			ID:            fmt.Sprint(i),
			Title:         fmt.Sprintf("Title %d", i),
			SizeBytes:     1536,
			CategoryLabel: "Software",
		})
	}
	return page
}

func navButtons(keyboard [][]models.Button) (prev, next bool) {
	for _, row := range keyboard {
		for _, b := range row {
			prev = prev || strings.Contains(b.Text, "Previous")
			next = next || strings.Contains(b.Text, "Next")
		}
	}
	return prev, next
}

func TestRenderNavigation(t *testing.T) {
	r := newPageRenderer(4096)
	tests := []struct {
		pageIndex  int
		totalPages int
		wantPrev   bool
		wantNext   bool
	}{
		{0, 3, false, true},
		{1, 3, true, true},
		{2, 3, true, false},
		{0, 1, false, false},
		{0, 0, false, false},
		{2, 0, true, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d of %d", tt.pageIndex, tt.totalPages), func(t *testing.T) {
			out, err := r.Render("tok", testPage(2, tt.totalPages), tt.pageIndex)
			require.NoError(t, err)

			prev, next := navButtons(out.Keyboard)
			assert.Equal(t, tt.wantPrev, prev)
			assert.Equal(t, tt.wantNext, next)
			assert.Equal(t, cancelSearchRow(), out.Keyboard[len(out.Keyboard)-1])
		})
	}
}

func TestRenderContent(t *testing.T) {
	page := testPage(2, 3)
	page.Items[0].Subtitle = "Raw <name>"
	page.Items[0].DiscountLabel = "🆓 Free!"
	page.Items[1].Title = strings.Repeat("t", 40)

	out, err := newPageRenderer(4096).Render("tok", page, 1)
	require.NoError(t, err)

	assert.False(t, out.Truncated)
	assert.True(t, strings.HasPrefix(out.Text, "🔎 <b>Search results: “&lt;ubuntu&gt;”</b> (6 total)"))
	assert.Contains(t, out.Text, "Name: <i>Raw &lt;name&gt;</i>")
	assert.Contains(t, out.Text, "Size: 1.5 KB")
	assert.Contains(t, out.Text, "Offer: 🆓 Free!")
	assert.Equal(t, 1, strings.Count(out.Text, "Offer:"))
	assert.Contains(t, out.Text, strings.Repeat("─", 20))
	assert.True(t, strings.HasSuffix(out.Text, "📄 Page <b>1 / 3</b>"))

	assert.Equal(t, models.Button{Text: "📥 Download: Title 1 (ID: 1)", Data: "searchsel_tok:1"}, out.Keyboard[0][0])
	assert.Equal(t, "📥 Download: "+strings.Repeat("t", 30)+"... (ID: 2)", out.Keyboard[1][0].Text)
	assert.Equal(t, []models.Button{
		{Text: "⬅️ Previous", Data: "searchpage_tok:0"},
		{Text: "➡️ Next", Data: "searchpage_tok:2"},
	}, out.Keyboard[2])
}

func TestRenderNoFooterWithoutPageCount(t *testing.T) {
	out, err := newPageRenderer(4096).Render("tok", testPage(1, 0), 0)
	require.NoError(t, err)
	assert.NotContains(t, out.Text, "📄 Page")
}

func TestRenderTooLongKeepsControls(t *testing.T) {
	full, err := newPageRenderer(100000).Render("tok", testPage(5, 3), 1)
	require.NoError(t, err)

	short, err := newPageRenderer(300).Render("tok", testPage(5, 3), 1)
	require.NoError(t, err)

	assert.True(t, short.Truncated)
	assert.Contains(t, short.Text, "narrow your search")
	assert.NotContains(t, short.Text, "Title 1")
	assert.Equal(t, full.Keyboard, short.Keyboard)
}

func TestRenderTooLongShortensKeyword(t *testing.T) {
	page := testPage(5, 3)
	page.Keyword = strings.Repeat("&", 2000)

	out, err := newPageRenderer(1000).Render("tok", page, 1)
	require.NoError(t, err)

	assert.True(t, out.Truncated)
	assert.LessOrEqual(t, utf8.RuneCountInString(out.Text), 1000)
	assert.Contains(t, out.Text, strings.Repeat("&amp;", headerKeywordLimit)+"...")
	assert.Contains(t, out.Text, "narrow your search")
}
