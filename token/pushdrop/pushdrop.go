// Package pushdrop implements the signed push-style locking script template
// used by the token protocol. A locking script of this form is
//
//	<33-byte public key> OP_CHECKSIG <field_1> ... <field_n> (OP_DROP|OP_2DROP)*
//
// where the final pushed field is a DER encoded ECDSA signature over the
// SHA-256 digest of the concatenation of all preceding fields in order,
// made with the key embedded at the head of the script.
package pushdrop

import (
	"crypto/sha256"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
)

var (
	// ErrNotPushDrop is returned when a script is not in the push-drop form.
	ErrNotPushDrop = errors.New("script is not in push drop form")

	// ErrNoSignature is returned when a push drop script carries no data
	// fields at all, so there is nothing to treat as the trailing signature.
	ErrNoSignature = errors.New("push drop script has no trailing signature")

	// ErrBadSignature is returned when the trailing signature does not
	// verify over the concatenated fields.
	ErrBadSignature = errors.New("push drop signature verification failed")
)

// Decoded is the result of taking a push drop locking script apart.
type Decoded struct {
	// Fields holds the pushed data fields in script order, with the
	// trailing signature stripped off.
	Fields [][]byte

	// Signature is the final pushed field, a DER encoded ECDSA signature.
	Signature []byte

	// PubKey is the locking key embedded at the head of the script.
	PubKey *btcec.PublicKey
}

// Decode takes a locking script apart into its ordered data fields, trailing
// signature and embedded public key. It does not verify the signature.
func Decode(script []byte) (*Decoded, error) {
	tokenizer := txscript.MakeScriptTokenizer(0, script)

	// Head of the script locks to a compressed public key.
	if !tokenizer.Next() {
		return nil, ErrNotPushDrop
	}
	keyData := tokenizer.Data()
	if len(keyData) != btcec.PubKeyBytesLenCompressed {
		return nil, ErrNotPushDrop
	}
	pubKey, err := btcec.ParsePubKey(keyData)
	if err != nil {
		return nil, ErrNotPushDrop
	}
	if !tokenizer.Next() || tokenizer.Opcode() != txscript.OP_CHECKSIG {
		return nil, ErrNotPushDrop
	}

	// Everything after OP_CHECKSIG is data pushes followed by drops.
	fields := make([][]byte, 0, 4)
	for tokenizer.Next() {
		op := tokenizer.Opcode()
		switch {
		case tokenizer.Data() != nil:
			fields = append(fields, tokenizer.Data())
		case op == txscript.OP_0:
			fields = append(fields, []byte{})
		case op >= txscript.OP_1 && op <= txscript.OP_16:
			// The builder minimally encodes one-byte values 1 through 16
			// as small integer opcodes.
			fields = append(fields, []byte{op - (txscript.OP_1 - 1)})
		case op == txscript.OP_1NEGATE:
			fields = append(fields, []byte{0x81})
		case op == txscript.OP_DROP || op == txscript.OP_2DROP:
			// Stack cleanup, no data from here on.
		default:
			return nil, ErrNotPushDrop
		}
	}
	if err := tokenizer.Err(); err != nil {
		return nil, ErrNotPushDrop
	}
	if len(fields) == 0 {
		return nil, ErrNoSignature
	}

	return &Decoded{
		Fields:    fields[:len(fields)-1],
		Signature: fields[len(fields)-1],
		PubKey:    pubKey,
	}, nil
}

// Verify checks the trailing signature against the embedded locking key over
// the byte concatenation of all non-signature fields in their original order.
func (d *Decoded) Verify() error {
	sig, err := ecdsa.ParseDERSignature(d.Signature)
	if err != nil {
		return ErrBadSignature
	}
	digest := fieldDigest(d.Fields)
	if !sig.Verify(digest[:], d.PubKey) {
		return ErrBadSignature
	}
	return nil
}

// Lock builds a push drop locking script over fields, signed with priv. The
// embedded public key is the compressed form of the signing key.
func Lock(priv *btcec.PrivateKey, fields [][]byte) ([]byte, error) {
	digest := fieldDigest(fields)
	signature := ecdsa.Sign(priv, digest[:]).Serialize()

	builder := txscript.NewScriptBuilder()
	builder.AddData(priv.PubKey().SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)
	for _, field := range fields {
		builder.AddData(field)
	}
	builder.AddData(signature)

	// Drop every pushed field, pairwise where possible, so the script
	// evaluates to the bare OP_CHECKSIG result.
	remaining := len(fields) + 1
	for remaining > 1 {
		builder.AddOp(txscript.OP_2DROP)
		remaining -= 2
	}
	if remaining == 1 {
		builder.AddOp(txscript.OP_DROP)
	}

	return builder.Script()
}

func fieldDigest(fields [][]byte) [sha256.Size]byte {
	var buf []byte
	for _, field := range fields {
		buf = append(buf, field...)
	}
	return sha256.Sum256(buf)
}
