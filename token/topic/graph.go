package topic

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// ErrEmptyGraph is returned when a graph buffer carries no transactions.
var ErrEmptyGraph = errors.New("transaction graph is empty")

// Graph is a self-contained transaction graph: the subject transaction being
// validated plus the ancestor transactions needed to resolve its inputs to
// their source outputs.
//
// Wire form: a varint transaction count followed by that many standard
// serialized transactions, subject first. Inputs whose previous transaction
// is not among the ancestors are treated as external to the topic.
type Graph struct {
	Subject   *wire.MsgTx
	Ancestors map[chainhash.Hash]*wire.MsgTx
}

// ParseGraph deserializes a raw transaction graph buffer.
func ParseGraph(raw []byte) (*Graph, error) {
	r := bytes.NewReader(raw)

	count, err := wire.ReadVarInt(r, wire.ProtocolVersion)
	if err != nil {
		return nil, fmt.Errorf("read graph tx count: %w", err)
	}
	if count == 0 {
		return nil, ErrEmptyGraph
	}

	subject := &wire.MsgTx{}
	if err := subject.Deserialize(r); err != nil {
		return nil, fmt.Errorf("deserialize subject tx: %w", err)
	}

	ancestors := make(map[chainhash.Hash]*wire.MsgTx, count-1)
	for i := uint64(1); i < count; i++ {
		ancestor := &wire.MsgTx{}
		if err := ancestor.Deserialize(r); err != nil {
			return nil, fmt.Errorf("deserialize ancestor tx %d: %w", i, err)
		}
		ancestors[ancestor.TxHash()] = ancestor
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("graph has %d trailing bytes after %d transactions", r.Len(), count)
	}

	return &Graph{
		Subject:   subject,
		Ancestors: ancestors,
	}, nil
}

// SerializeGraph renders a subject transaction and its ancestors into the
// graph wire form parsed by ParseGraph.
func SerializeGraph(subject *wire.MsgTx, ancestors ...*wire.MsgTx) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteVarInt(&buf, wire.ProtocolVersion, uint64(1+len(ancestors))); err != nil {
		return nil, err
	}
	if err := subject.Serialize(&buf); err != nil {
		return nil, err
	}
	for _, ancestor := range ancestors {
		if err := ancestor.Serialize(&buf); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// SourceOutput resolves an input to the output it spends, or nil when the
// previous transaction is not part of the graph.
func (g *Graph) SourceOutput(in *wire.TxIn) *wire.TxOut {
	prev, ok := g.Ancestors[in.PreviousOutPoint.Hash]
	if !ok {
		return nil
	}
	if int(in.PreviousOutPoint.Index) >= len(prev.TxOut) {
		return nil
	}
	return prev.TxOut[in.PreviousOutPoint.Index]
}
