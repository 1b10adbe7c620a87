package util

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/gogf/gf/v2/util/gconv"
	"github.com/token-overlay/tokend/constants"
)

// OutPoint wraps wire.OutPoint with the canonical string rendering used by
// the index ("<txid>.<vout>") and database scan/value support.
type OutPoint struct {
	wire.OutPoint
}

// NewOutPoint builds an OutPoint from a hex transaction id and output index.
// It returns nil when txId is not a valid hash string.
func NewOutPoint(txId string, index uint32) *OutPoint {
	h, err := chainhash.NewHashFromStr(txId)
	if err != nil {
		return nil
	}
	return &OutPoint{
		OutPoint: wire.OutPoint{
			Hash:  *h,
			Index: index,
		},
	}
}

// OutPointFromWire wraps a wire outpoint.
func OutPointFromWire(op wire.OutPoint) *OutPoint {
	return &OutPoint{OutPoint: op}
}

// StringToOutpoint parses the canonical outpoint string form. It returns nil
// if the string does not match.
func StringToOutpoint(s string) *OutPoint {
	s = strings.ToLower(s)
	if !constants.OutpointRegexp.MatchString(s) {
		return nil
	}
	parts := strings.Split(s, constants.OutpointDelimiter)
	h, _ := chainhash.NewHashFromStr(parts[0])
	return &OutPoint{
		OutPoint: wire.OutPoint{
			Hash:  *h,
			Index: gconv.Uint32(parts[1]),
		},
	}
}

func (o *OutPoint) String() string {
	return fmt.Sprintf("%s%s%d", o.Hash, constants.OutpointDelimiter, o.Index)
}

// TxId returns the hex transaction id half of the outpoint.
func (o *OutPoint) TxId() string {
	return o.Hash.String()
}

func (o *OutPoint) Scan(value interface{}) error {
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("failed to scan outpoint value:", value))
	}
	outpoint := StringToOutpoint(string(bytes))
	if outpoint == nil {
		return fmt.Errorf("malformed outpoint %q", string(bytes))
	}
	*o = *outpoint
	return nil
}

func (o *OutPoint) Value() (driver.Value, error) {
	return []byte(o.String()), nil
}

func (o *OutPoint) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", o.String())), nil
}

func (o *OutPoint) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	outpoint := StringToOutpoint(s)
	if outpoint == nil {
		return fmt.Errorf("malformed outpoint %q", s)
	}
	*o = *outpoint
	return nil
}
