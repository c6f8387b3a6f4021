package repository

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Page is embedded in every list filter.
type Page struct {
	Page  int
	Limit int
}

// Offset normalizes Page/Limit in place and returns the row offset.
func (p *Page) Offset() int {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > maxLimit {
		p.Limit = defaultLimit
	}
	return (p.Page - 1) * p.Limit
}
