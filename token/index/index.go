// Package index defines the token index: the durable, queryable mirror of
// admitted, unspent token output records. The Store interface keeps the
// persistence engine swappable; the dao package backs it with MySQL through
// gorm and the memory package with a mutex guarded map.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/token-overlay/tokend/constants"
	"github.com/token-overlay/tokend/internal/util"
)

var (
	// ErrInvalidPagination is returned for negative limit or skip values or
	// an unknown sort order.
	ErrInvalidPagination = errors.New("invalid pagination")

	// ErrInvalidDateRange is returned when a date filtered query has its
	// bounds reversed.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// Record is one admitted, unspent token output. Records are immutable once
// stored; a spend or eviction removes them outright.
type Record struct {
	Outpoint     *util.OutPoint `json:"outpoint"`
	TokenId      string         `json:"tokenId"`
	Amount       string         `json:"amount"`
	CustomFields string         `json:"customFields"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Page bounds and orders a list query. Results sort on the record creation
// time; the zero SortOrder means newest first.
type Page struct {
	Limit     int
	Skip      int
	SortOrder string
	From, To  *time.Time
}

// Validate rejects malformed pages with a descriptive error rather than
// silently coercing them.
func (p *Page) Validate() error {
	if p.Limit < 0 {
		return fmt.Errorf("%w: limit %d is negative", ErrInvalidPagination, p.Limit)
	}
	if p.Skip < 0 {
		return fmt.Errorf("%w: skip %d is negative", ErrInvalidPagination, p.Skip)
	}
	switch p.SortOrder {
	case "", constants.SortOrderAsc, constants.SortOrderDesc:
	default:
		return fmt.Errorf("%w: unknown sort order %q", ErrInvalidPagination, p.SortOrder)
	}
	if p.From != nil && p.To != nil && p.From.After(*p.To) {
		return fmt.Errorf("%w: from %s is after to %s", ErrInvalidDateRange, p.From, p.To)
	}
	return nil
}

// EffectiveLimit returns the page limit, substituting the default when the
// caller left it unset.
func (p *Page) EffectiveLimit() int {
	if p.Limit == 0 {
		return constants.DefaultQueryLimit
	}
	return p.Limit
}

// Descending reports whether the page sorts newest first.
func (p *Page) Descending() bool {
	return p.SortOrder != constants.SortOrderAsc
}

// Store is the token output repository.
//
// Store upserts one record keyed by outpoint and is idempotent; a repeated
// call with the same outpoint leaves exactly one record reflecting the
// latest call. Delete removes a record and is a no-op when absent; it backs
// both spend notifications and forced evictions. The finders project
// outpoints only, except the point lookup which returns the full record or
// nil when absent.
type Store interface {
	Store(ctx context.Context, outpoint *util.OutPoint, tokenId, amount, customFields string) error
	Delete(ctx context.Context, outpoint *util.OutPoint) error
	FindByOutpoint(ctx context.Context, outpoint *util.OutPoint) (*Record, error)
	FindByTokenId(ctx context.Context, tokenId string, page *Page) ([]*util.OutPoint, error)
	FindAll(ctx context.Context, page *Page) ([]*util.OutPoint, error)
}
