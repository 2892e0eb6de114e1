// Package repo holds what the gorm-backed repositories share.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base binds a repository to its connection. Embed it and call Conn with
// the caller's transaction, or DB outside one.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base { return Base{db: db} }

// DB scopes the connection to ctx. A nil ctx returns the bare connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	return scoped(b.db, ctx)
}

// Conn returns tx when the caller runs inside a transaction, else DB(ctx).
func (b Base) Conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return scoped(tx, ctx)
	}
	return scoped(b.db, ctx)
}

func scoped(conn *gorm.DB, ctx context.Context) *gorm.DB {
	if ctx == nil {
		return conn
	}
	return conn.WithContext(ctx)
}

// Window bounds the page size of a newest-first listing.
type Window struct {
	Column  string // ordered DESC
	Default int
	Max     int // zero means unbounded
}

// Size clamps a caller supplied page size. Zero or negative means Default.
func (w Window) Size(n int) int {
	switch {
	case n <= 0:
		return w.Default
	case w.Max > 0 && n > w.Max:
		return w.Max
	default:
		return n
	}
}

// Newest is a gorm scope ordering by Column descending and limiting to Size(n).
func (w Window) Newest(n int) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Order(w.Column + " DESC").Limit(w.Size(n))
	}
}
