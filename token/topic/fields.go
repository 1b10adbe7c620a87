package topic

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/token-overlay/tokend/constants"
	"github.com/token-overlay/tokend/internal/util"
	"github.com/token-overlay/tokend/token/pushdrop"
)

// TokenFields is the protocol payload decoded from a token locking script.
type TokenFields struct {
	TokenId      string
	Amount       uint64
	CustomFields string
}

// IsMint reports whether the fields describe a genesis output.
func (f *TokenFields) IsMint() bool {
	return strings.HasPrefix(f.TokenId, constants.TokenIDMintPrefix)
}

// DecodeTokenFields decodes and verifies a token locking script. The script
// must be in push drop form with at least three data fields: a UTF-8 token
// id, an eight byte little endian amount and a JSON custom-fields document.
// The trailing signature must verify over the concatenation of all other
// fields. Any failure rejects this one script, never the transaction.
func DecodeTokenFields(script []byte) (*TokenFields, error) {
	decoded, err := pushdrop.Decode(script)
	if err != nil {
		return nil, err
	}
	if len(decoded.Fields) < constants.MinTokenFields {
		return nil, fmt.Errorf("token output needs at least %d fields, got %d",
			constants.MinTokenFields, len(decoded.Fields))
	}

	tokenId := decoded.Fields[0]
	if len(tokenId) == 0 || !utf8.Valid(tokenId) {
		return nil, fmt.Errorf("token id is not valid UTF-8")
	}

	amount, err := util.AmountFromBytes(decoded.Fields[1])
	if err != nil {
		return nil, err
	}

	customFields := decoded.Fields[2]
	if !utf8.Valid(customFields) || !json.Valid(customFields) {
		return nil, fmt.Errorf("custom fields are not valid JSON")
	}

	if err := decoded.Verify(); err != nil {
		return nil, err
	}

	return &TokenFields{
		TokenId:      string(tokenId),
		Amount:       amount,
		CustomFields: string(customFields),
	}, nil
}
