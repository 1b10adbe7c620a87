package topic

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/token-overlay/tokend/constants"
	"github.com/token-overlay/tokend/internal/util"
	"github.com/token-overlay/tokend/token/pushdrop"
)

func testKey(t *testing.T) *btcec.PrivateKey {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return priv
}

func tokenScript(t *testing.T, priv *btcec.PrivateKey, tokenId string, amount uint64) []byte {
	t.Helper()
	script, err := pushdrop.Lock(priv, [][]byte{
		[]byte(tokenId),
		util.AmountToBytes(amount),
		[]byte(`{"issuer":"test"}`),
	})
	require.NoError(t, err)
	return script
}

// badSigScript builds a structurally valid token script whose trailing
// signature was made over different field values.
func badSigScript(t *testing.T, priv *btcec.PrivateKey, tokenId string, amount uint64) []byte {
	t.Helper()
	good, err := pushdrop.Lock(priv, [][]byte{
		[]byte(tokenId),
		util.AmountToBytes(amount + 1),
		[]byte(`{"issuer":"test"}`),
	})
	require.NoError(t, err)
	decoded, err := pushdrop.Decode(good)
	require.NoError(t, err)

	builder := txscript.NewScriptBuilder()
	builder.AddData(priv.PubKey().SerializeCompressed())
	builder.AddOp(txscript.OP_CHECKSIG)
	builder.AddData([]byte(tokenId))
	builder.AddData(util.AmountToBytes(amount))
	builder.AddData([]byte(`{"issuer":"test"}`))
	builder.AddData(decoded.Signature)
	builder.AddOp(txscript.OP_2DROP)
	builder.AddOp(txscript.OP_2DROP)
	script, err := builder.Script()
	require.NoError(t, err)
	return script
}

func outputTx(scripts ...[]byte) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	// A non-zero previous outpoint keeps the tx from looking like a coinbase.
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: chainhash.Hash{0x01}, Index: 0}, nil, nil))
	for _, script := range scripts {
		tx.AddTxOut(wire.NewTxOut(1, script))
	}
	return tx
}

func spendTx(source *wire.MsgTx, vin uint32, scripts ...[]byte) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: source.TxHash(), Index: vin}, nil, nil))
	for _, script := range scripts {
		tx.AddTxOut(wire.NewTxOut(1, script))
	}
	return tx
}

func graphBytes(t *testing.T, subject *wire.MsgTx, ancestors ...*wire.MsgTx) []byte {
	t.Helper()
	raw, err := SerializeGraph(subject, ancestors...)
	require.NoError(t, err)
	return raw
}

func TestValidMint(t *testing.T) {
	priv := testKey(t)
	mint := outputTx(tokenScript(t, priv, constants.TokenIDMintPrefix+"gold", 1000))

	admittance, err := NewManager().IdentifyAdmissibleOutputs(context.Background(), graphBytes(t, mint), nil)
	require.NoError(t, err)
	require.Equal(t, []uint32{0}, admittance.OutputsToAdmit)
	require.Empty(t, admittance.CoinsToRetain)
}

func TestValidTransfer(t *testing.T) {
	priv := testKey(t)
	source := outputTx(tokenScript(t, priv, "X", 500))
	transfer := spendTx(source, 0,
		tokenScript(t, priv, "X", 300),
		tokenScript(t, priv, "X", 200),
	)

	admittance, err := NewManager().IdentifyAdmissibleOutputs(
		context.Background(), graphBytes(t, transfer, source), []uint32{0})
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 1}, admittance.OutputsToAdmit)
	require.Empty(t, admittance.CoinsToRetain)
}

func TestUnbalancedTransfer(t *testing.T) {
	priv := testKey(t)
	source := outputTx(tokenScript(t, priv, "X", 500))
	transfer := spendTx(source, 0,
		tokenScript(t, priv, "X", 300),
		tokenScript(t, priv, "X", 300),
	)

	admittance, err := NewManager().IdentifyAdmissibleOutputs(
		context.Background(), graphBytes(t, transfer, source), []uint32{0})
	require.ErrorIs(t, err, ErrImbalance)
	require.Empty(t, admittance.OutputsToAdmit)
}

func TestConservationPerturbation(t *testing.T) {
	priv := testKey(t)
	source := outputTx(tokenScript(t, priv, "X", 500))

	for _, delta := range []uint64{1, 100, 499} {
		transfer := spendTx(source, 0, tokenScript(t, priv, "X", 500-delta))
		_, err := NewManager().IdentifyAdmissibleOutputs(
			context.Background(), graphBytes(t, transfer, source), []uint32{0})
		require.ErrorIs(t, err, ErrImbalance)
	}
}

func TestMintSpendKeysUnify(t *testing.T) {
	priv := testKey(t)
	mint := outputTx(tokenScript(t, priv, constants.TokenIDMintPrefix+"gold", 500))

	// Transfers of a minted series carry the genesis outpoint as token id.
	seriesId := util.NewOutPoint(mint.TxHash().String(), 0).String()
	transfer := spendTx(mint, 0,
		tokenScript(t, priv, seriesId, 200),
		tokenScript(t, priv, seriesId, 300),
	)

	admittance, err := NewManager().IdentifyAdmissibleOutputs(
		context.Background(), graphBytes(t, transfer, mint), []uint32{0})
	require.NoError(t, err)
	require.Equal(t, []uint32{0, 1}, admittance.OutputsToAdmit)
}

func TestUnflaggedInputIsExternal(t *testing.T) {
	priv := testKey(t)
	source := outputTx(tokenScript(t, priv, "X", 500))
	transfer := spendTx(source, 0, tokenScript(t, priv, "X", 500))

	// Without the host vouching for input 0, the output side has no
	// matching supply and the transfer cannot balance.
	_, err := NewManager().IdentifyAdmissibleOutputs(
		context.Background(), graphBytes(t, transfer, source), nil)
	require.ErrorIs(t, err, ErrImbalance)
}

func TestBadSignatureExcludesOutput(t *testing.T) {
	priv := testKey(t)
	mint := outputTx(badSigScript(t, priv, constants.TokenIDMintPrefix+"gold", 1000))

	_, err := NewManager().IdentifyAdmissibleOutputs(context.Background(), graphBytes(t, mint), nil)
	require.ErrorIs(t, err, ErrNoAdmissibleOutputs)
}

func TestBadSignatureAmongGoodOutputs(t *testing.T) {
	priv := testKey(t)
	mint := outputTx(
		badSigScript(t, priv, constants.TokenIDMintPrefix+"lead", 1),
		tokenScript(t, priv, constants.TokenIDMintPrefix+"gold", 1000),
	)

	admittance, err := NewManager().IdentifyAdmissibleOutputs(context.Background(), graphBytes(t, mint), nil)
	require.NoError(t, err)
	require.Equal(t, []uint32{1}, admittance.OutputsToAdmit)
}

func TestNonTokenOutputsSkipped(t *testing.T) {
	p2pkhLike, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(make([]byte, 20)).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	require.NoError(t, err)

	tx := outputTx(p2pkhLike)
	_, err = NewManager().IdentifyAdmissibleOutputs(context.Background(), graphBytes(t, tx), nil)
	require.ErrorIs(t, err, ErrNoAdmissibleOutputs)
}

func TestMalformedFieldsSkipped(t *testing.T) {
	priv := testKey(t)

	// Two fields only, below the protocol minimum.
	short, err := pushdrop.Lock(priv, [][]byte{[]byte("X"), util.AmountToBytes(1)})
	require.NoError(t, err)

	// Amount field is not eight bytes.
	badAmount, err := pushdrop.Lock(priv, [][]byte{[]byte("X"), {0x01, 0x02}, []byte("{}")})
	require.NoError(t, err)

	// Custom fields are not JSON.
	badJson, err := pushdrop.Lock(priv, [][]byte{[]byte("X"), util.AmountToBytes(1), []byte("not json")})
	require.NoError(t, err)

	tx := outputTx(short, badAmount, badJson, tokenScript(t, priv, constants.TokenIDMintPrefix+"ok", 5))
	admittance, err := NewManager().IdentifyAdmissibleOutputs(context.Background(), graphBytes(t, tx), nil)
	require.NoError(t, err)
	require.Equal(t, []uint32{3}, admittance.OutputsToAdmit)
}

func TestIdentifyNeededInputs(t *testing.T) {
	priv := testKey(t)
	source := outputTx(tokenScript(t, priv, "X", 500))
	transfer := spendTx(source, 0, tokenScript(t, priv, "X", 500))

	// Without the ancestor in the graph, the input's source is unresolved.
	needed, err := NewManager().IdentifyNeededInputs(graphBytes(t, transfer))
	require.NoError(t, err)
	require.Len(t, needed, 1)
	require.Equal(t, source.TxHash().String(), needed[0].TxId())

	// With the ancestor present, nothing is missing.
	needed, err = NewManager().IdentifyNeededInputs(graphBytes(t, transfer, source))
	require.NoError(t, err)
	require.Empty(t, needed)
}

func TestParseGraphErrors(t *testing.T) {
	_, err := ParseGraph([]byte{})
	require.Error(t, err)

	_, err = ParseGraph([]byte{0x00})
	require.ErrorIs(t, err, ErrEmptyGraph)
}

func TestParseGraphRejectsTrailingBytes(t *testing.T) {
	priv := testKey(t)
	tx := outputTx(tokenScript(t, priv, "X", 42))
	raw, err := SerializeGraph(tx)
	require.NoError(t, err)

	_, err = ParseGraph(append(raw, 0xff))
	require.ErrorContains(t, err, "trailing")
}

// The signature helper itself must produce verifiable signatures, otherwise
// the scenario tests above prove nothing.
func TestHelperSignatureIsSound(t *testing.T) {
	priv := testKey(t)
	script := tokenScript(t, priv, "X", 42)
	decoded, err := pushdrop.Decode(script)
	require.NoError(t, err)
	sig, err := ecdsa.ParseDERSignature(decoded.Signature)
	require.NoError(t, err)
	require.NotNil(t, sig)
}
