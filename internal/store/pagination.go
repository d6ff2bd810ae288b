package store

// Page bounds a list query.
type Page struct {
	Limit  int // The number of items (defaults to 100 with a maximum of 1000)
	Offset int
}

// DefaultPage returns sensible defaults.
func DefaultPage() Page {
	return Page{Limit: 100}
}

// Validate checks and corrects page parameters.
func (p *Page) Validate() {
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Limit > 1000 {
		p.Limit = 1000
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// Window applies an offset and limit to a slice already in memory.
// A negative limit means no limit.
func Window[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
