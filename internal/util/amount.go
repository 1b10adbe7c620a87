package util

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/token-overlay/tokend/constants"
)

// AmountFromBytes reads an amount field off the wire. The field must be
// exactly eight bytes, little endian.
func AmountFromBytes(b []byte) (uint64, error) {
	if len(b) != constants.AmountByteLen {
		return 0, fmt.Errorf("amount field must be %d bytes, got %d", constants.AmountByteLen, len(b))
	}
	return binary.LittleEndian.Uint64(b), nil
}

// AmountToBytes renders an amount into its eight byte little endian wire form.
func AmountToBytes(amount uint64) []byte {
	b := make([]byte, constants.AmountByteLen)
	binary.LittleEndian.PutUint64(b, amount)
	return b
}

// AmountToString renders an amount as a decimal string. Amounts are carried
// as strings everywhere outside the codec so the full uint64 range survives
// JSON round trips.
func AmountToString(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}

// AmountFromString parses a decimal amount string.
func AmountFromString(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
