package models

// SearchResultItem is one normalized tracker record.
type SearchResultItem struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle,omitempty"`
	SizeBytes     int64  `json:"size_bytes"`
	CategoryLabel string `json:"category_label"`
	DiscountLabel string `json:"discount_label"`
}

// SearchResultPage holds at most one page of items in tracker rank order.
// TotalPages == 0 means the tracker did not report a usable page count.
type SearchResultPage struct {
	Keyword      string             `json:"keyword"`
	Items        []SearchResultItem `json:"items"`
	TotalResults int                `json:"total_results"`
	CurrentPage  int                `json:"current_page"`
	TotalPages   int                `json:"total_pages"`
}

func (p *SearchResultPage) FindItem(id string) (SearchResultItem, bool) {
	if p == nil {
		return SearchResultItem{}, false
	}
	for _, item := range p.Items {
		if item.ID == id {
			return item, true
		}
	}
	return SearchResultItem{}, false
}

func (p *SearchResultPage) IsEmpty() bool {
	return p == nil || (len(p.Items) == 0 && p.TotalResults == 0)
}
