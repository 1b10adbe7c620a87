// Package topic implements the token admission validator: the overlay topic
// manager that decides, per transaction, which outputs are valid token
// protocol outputs while enforcing a conservation invariant across the
// whole transaction.
package topic

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/token-overlay/tokend/internal/util"
	"github.com/token-overlay/tokend/token/log"
)

var (
	// ErrImbalance is returned when the per-token ledger of a transaction
	// does not net to zero: value was created or destroyed outside a mint.
	ErrImbalance = errors.New("token ledger does not balance")

	// ErrNoAdmissibleOutputs is returned when a transaction carries no
	// output that decodes and verifies as a token output.
	ErrNoAdmissibleOutputs = errors.New("transaction has no admissible token outputs")
)

// Admittance is the validator's decision for one transaction: the output
// indices to admit to the topic and the input indices to keep as retained
// coins. This protocol never carries balances across transactions, so
// CoinsToRetain is always empty.
type Admittance struct {
	OutputsToAdmit []uint32 `json:"outputsToAdmit"`
	CoinsToRetain  []uint32 `json:"coinsToRetain"`
}

// Manager validates transactions against the token protocol rules. It holds
// no mutable state; the ledger is rebuilt per call, so concurrent calls are
// safe without locking.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// IdentifyAdmissibleOutputs decides which outputs of the subject transaction
// in rawGraph may be admitted to the topic. previousCoins lists the input
// indices the host already trusts as previously admitted topic coins; only
// those inputs contribute to the input side of the ledger.
//
// The candidate list and the full ledger are computed first and the balance
// check applied as a single gate afterwards, so a late imbalance can never
// leak a partial admission list.
func (m *Manager) IdentifyAdmissibleOutputs(ctx context.Context, rawGraph []byte, previousCoins []uint32) (Admittance, error) {
	none := Admittance{OutputsToAdmit: []uint32{}, CoinsToRetain: []uint32{}}

	graph, err := ParseGraph(rawGraph)
	if err != nil {
		return none, err
	}

	tx := graph.Subject
	txId := tx.TxHash()

	retained := make(map[uint32]struct{}, len(previousCoins))
	for _, vin := range previousCoins {
		retained[vin] = struct{}{}
	}

	// Running signed balance per ledger key. Normal outputs key on their
	// token id; mint outputs key on their own outpoint, which is also the
	// token id every derived transfer carries, so input and output sides of
	// a mint spend meet under the same key. Balances are decimals because a
	// signed sum of uint64 amounts does not fit in int64.
	ledger := make(map[string]decimal.Decimal)

	// Keys introduced by mint outputs of this transaction. A genesis key
	// cannot be referenced by any input of the same transaction, so its
	// balance is new supply and is exempt from the zero gate.
	genesis := make(map[string]struct{})

	for vin, in := range tx.TxIn {
		if _, ok := retained[uint32(vin)]; !ok {
			continue
		}
		src := graph.SourceOutput(in)
		if src == nil {
			log.Topic.Debugf("input %d of %s: source output not in graph, skipping", vin, txId)
			continue
		}
		fields, err := DecodeTokenFields(src.PkScript)
		if err != nil {
			log.Topic.Debugf("input %d of %s: %v, skipping", vin, txId, err)
			continue
		}
		key := fields.TokenId
		if fields.IsMint() {
			key = util.OutPointFromWire(in.PreviousOutPoint).String()
		}
		ledger[key] = ledger[key].Add(amountDecimal(fields.Amount))
	}

	candidates := make([]uint32, 0, len(tx.TxOut))
	for vout, out := range tx.TxOut {
		fields, err := DecodeTokenFields(out.PkScript)
		if err != nil {
			log.Topic.Debugf("output %d of %s: %v, skipping", vout, txId, err)
			continue
		}
		key := fields.TokenId
		if fields.IsMint() {
			key = util.NewOutPoint(txId.String(), uint32(vout)).String()
			genesis[key] = struct{}{}
		}
		ledger[key] = ledger[key].Sub(amountDecimal(fields.Amount))
		candidates = append(candidates, uint32(vout))
	}

	for key, balance := range ledger {
		if _, ok := genesis[key]; ok {
			continue
		}
		if !balance.IsZero() {
			return none, fmt.Errorf("%w: token %q nets to %s", ErrImbalance, key, balance)
		}
	}

	if len(candidates) == 0 {
		return none, ErrNoAdmissibleOutputs
	}

	return Admittance{
		OutputsToAdmit: candidates,
		CoinsToRetain:  []uint32{},
	}, nil
}

// IdentifyNeededInputs returns the outpoints of subject transaction inputs
// whose source outputs were not resolvable within the graph. The host may
// use this to fetch the missing ancestry before retrying admission.
func (m *Manager) IdentifyNeededInputs(rawGraph []byte) ([]*util.OutPoint, error) {
	graph, err := ParseGraph(rawGraph)
	if err != nil {
		return nil, err
	}

	needed := make([]*util.OutPoint, 0)
	for _, in := range graph.Subject.TxIn {
		if graph.SourceOutput(in) == nil {
			needed = append(needed, util.OutPointFromWire(in.PreviousOutPoint))
		}
	}
	return needed, nil
}

func amountDecimal(amount uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0)
}
