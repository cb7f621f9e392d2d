package tracker

import (
	"html"
	"strings"
)

const unknownCategoryLabel = "Unknown category"

var categoryLabels = map[string]string{
	"100": "Movie",
	"401": "Movie/SD",
	"419": "Movie/HD",
	"420": "Movie/DVDiSo",
	"421": "Movie/Blu-Ray",
	"439": "Movie/Remux",
	"105": "TV Series",
	"403": "TV Series/SD",
	"402": "TV Series/HD",
	"435": "TV Series/DVDiSo",
	"438": "TV Series/BD",
	"404": "Documentary",
	"444": "Documentary",
	"405": "Animation",
	"449": "Anime",
	"110": "Music",
	"434": "Music/Lossless",
	"423": "PC Game",
	"427": "E-Book",
	"406": "Concert",
	"407": "Sports",
	"422": "Software",
	"409": "Misc",
	"451": "Education",
	"450": "Other",
}

// CategoryLabel maps a tracker category id to a display label.
func CategoryLabel(id string) string {
	if label, ok := categoryLabels[strings.TrimSpace(id)]; ok {
		return label
	}
	return unknownCategoryLabel
}

const noDiscount = "NORMAL"

var discountLabels = map[string]string{
	"FREE":               "🆓 Free!",
	"PERCENT_25":         "💸 25% OFF",
	"PERCENT_50":         "💸 50% OFF",
	"PERCENT_75":         "💸 75% OFF",
	"FREE_2X":            "🆓 2X Free!",
	"FREE_2X_PERCENT_50": "💸 2X 50% OFF",
}

// DiscountLabel renders a discount code. The result is HTML-safe.
func DiscountLabel(code string) string {
	if code == "" || strings.EqualFold(code, noDiscount) {
		return ""
	}
	if label, ok := discountLabels[strings.ToUpper(code)]; ok {
		return label
	}
	return "offer: " + html.EscapeString(code)
}
