package tables

import (
	"time"
)

type TokenOutput struct {
	Id           uint64    `gorm:"column:id;primary_key;AUTO_INCREMENT;NOT NULL"`
	TxId         string    `gorm:"column:tx_id;type:varchar(64);uniqueIndex:uniq_outpoint;default:;NOT NULL"`
	Vout         uint32    `gorm:"column:vout;type:int unsigned;uniqueIndex:uniq_outpoint;default:0;NOT NULL"`
	TokenId      string    `gorm:"column:token_id;type:varchar(255);index:idx_token_id;default:;NOT NULL"`
	Amount       string    `gorm:"column:amount;type:varchar(20);default:0;NOT NULL;comment:'decimal string of uint64 amount'"`
	CustomFields string    `gorm:"column:custom_fields;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamp;index:idx_created_at;default:CURRENT_TIMESTAMP;NOT NULL"`
}

func (t *TokenOutput) TableName() string {
	return "token_output"
}
