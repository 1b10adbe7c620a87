package constants

import (
	"fmt"
	"regexp"
)

const (
	AppName = "tokend"

	// TopicName is the overlay topic this node tracks. Admission decisions
	// and spend notifications scoped to any other topic are ignored.
	TopicName = "tm_tokens"

	// LookupServiceName is the lookup service identifier answered by the
	// query surface. Questions addressed to a different service are rejected.
	LookupServiceName = "ls_tokens"

	// TokenIDMintPrefix marks a genesis output. A mint output has no prior
	// series to reference, so its ledger key is its own outpoint rather than
	// the token id; the token id of every later transfer is that outpoint
	// rendered as a string.
	TokenIDMintPrefix = "___mint___"

	// MinTokenFields is the smallest number of data fields a token locking
	// script may carry: token id, amount and custom fields. The trailing
	// signature is counted separately.
	MinTokenFields = 3

	// AmountByteLen is the wire size of the little-endian amount field.
	AmountByteLen = 8

	OutpointDelimiter = "."
)

// OutpointRegexp matches the canonical string form of an outpoint:
// 64 hex characters, the delimiter, then a decimal output index.
var OutpointRegexp = regexp.MustCompile(fmt.Sprintf(`^[a-f0-9]{64}\%s\d+$`, OutpointDelimiter))
