package services

import "gorm.io/gorm"

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

// Page is a skip/limit window over an ordered listing.
type Page struct {
	Skip  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

func (p Page) scope(db *gorm.DB) *gorm.DB {
	n := p.normalize()
	return db.Offset(n.Skip).Limit(n.Limit)
}
