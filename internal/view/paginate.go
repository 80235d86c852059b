package view

import "github.com/mlowell/hubmirror/internal/item"

// Paginator slices an already filtered and sorted sequence into pages.
// Total is refreshed from the input length on every call so page
// controls always reflect the current match count.
type Paginator struct {
	PageIndex int
	PageSize  int
	Total     int
}

// Paginate returns the current page's slice of data.
//
// When the requested page is past the end (the usual cause is a
// reconciliation cycle deleting the last items of the final page), the
// page index is walked back until a non-empty page is found or index
// zero is reached, rather than the single-step correction some trackers
// use; a burst of deletions can empty more than one trailing page.
func (p *Paginator) Paginate(data []item.Item) []item.Item {
	p.Total = len(data)
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageIndex < 0 {
		p.PageIndex = 0
	}
	for {
		page := slicePage(data, p.PageIndex, p.PageSize)
		if len(page) > 0 || p.PageIndex == 0 {
			return page
		}
		p.PageIndex--
	}
}

// PageCount reports the number of pages implied by the last Paginate
// call, at least one.
func (p *Paginator) PageCount() int {
	if p.PageSize <= 0 || p.Total == 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

func slicePage(data []item.Item, index, size int) []item.Item {
	start := index * size
	if start >= len(data) {
		return nil
	}
	end := start + size
	if end > len(data) {
		end = len(data)
	}
	return data[start:end]
}
