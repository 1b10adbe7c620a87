package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/token-overlay/tokend/internal/util"
	"github.com/token-overlay/tokend/token/index"
	"github.com/token-overlay/tokend/token/index/tables"
)

// compile time interface check
var _ index.Store = (*DB)(nil)

// Store upserts a token output record. Re-indexing the same outpoint is
// idempotent: the composite unique index on (tx_id, vout) turns a repeat
// into an update, and the latest call wins.
func (d *DB) Store(ctx context.Context, outpoint *util.OutPoint, tokenId, amount, customFields string) error {
	record := &tables.TokenOutput{
		TxId:         outpoint.TxId(),
		Vout:         outpoint.Index,
		TokenId:      tokenId,
		Amount:       amount,
		CustomFields: customFields,
	}
	return d.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_id"}, {Name: "vout"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_id", "amount", "custom_fields"}),
	}).Create(record).Error
}

// Delete removes the record for an outpoint. Deleting an absent outpoint is
// a no-op; spends and evictions share this path.
func (d *DB) Delete(ctx context.Context, outpoint *util.OutPoint) error {
	return d.DB.WithContext(ctx).
		Where("tx_id = ? and vout = ?", outpoint.TxId(), outpoint.Index).
		Delete(&tables.TokenOutput{}).Error
}

// FindByOutpoint is a point lookup. It returns nil when no record exists.
func (d *DB) FindByOutpoint(ctx context.Context, outpoint *util.OutPoint) (*index.Record, error) {
	row := &tables.TokenOutput{}
	err := d.DB.WithContext(ctx).
		Where("tx_id = ? and vout = ?", outpoint.TxId(), outpoint.Index).
		First(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return recordFromRow(row), nil
}

// FindByTokenId lists the outpoints of one token series, paginated and
// ordered by creation time.
func (d *DB) FindByTokenId(ctx context.Context, tokenId string, page *index.Page) ([]*util.OutPoint, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return d.findOutpoints(ctx, page, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("token_id = ?", tokenId)
	})
}

// FindAll lists every indexed outpoint, paginated and ordered by creation time.
func (d *DB) FindAll(ctx context.Context, page *index.Page) ([]*util.OutPoint, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	return d.findOutpoints(ctx, page, func(tx *gorm.DB) *gorm.DB {
		return tx
	})
}

func (d *DB) findOutpoints(ctx context.Context, page *index.Page, scope func(tx *gorm.DB) *gorm.DB) ([]*util.OutPoint, error) {
	order := "created_at desc, id desc"
	if !page.Descending() {
		order = "created_at asc, id asc"
	}

	tx := scope(d.DB.WithContext(ctx).Model(&tables.TokenOutput{}))
	if page.From != nil {
		tx = tx.Where("created_at >= ?", *page.From)
	}
	if page.To != nil {
		tx = tx.Where("created_at <= ?", *page.To)
	}

	var rows []*tables.TokenOutput
	err := tx.Select("tx_id", "vout").
		Order(order).
		Offset(page.Skip).Limit(page.EffectiveLimit()).
		Find(&rows).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	outpoints := make([]*util.OutPoint, 0, len(rows))
	for _, row := range rows {
		outpoints = append(outpoints, util.NewOutPoint(row.TxId, row.Vout))
	}
	return outpoints, nil
}

func recordFromRow(row *tables.TokenOutput) *index.Record {
	return &index.Record{
		Outpoint:     util.NewOutPoint(row.TxId, row.Vout),
		TokenId:      row.TokenId,
		Amount:       row.Amount,
		CustomFields: row.CustomFields,
		CreatedAt:    row.CreatedAt,
	}
}
