package lookup

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"github.com/token-overlay/tokend/constants"
	"github.com/token-overlay/tokend/internal/util"
	"github.com/token-overlay/tokend/token/index"
	"github.com/token-overlay/tokend/token/index/memory"
	"github.com/token-overlay/tokend/token/pushdrop"
)

var testTxId = "2222222222222222222222222222222222222222222222222222222222222222"

func testScript(t *testing.T, tokenId string, amount uint64) []byte {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	script, err := pushdrop.Lock(priv, [][]byte{
		[]byte(tokenId),
		util.AmountToBytes(amount),
		[]byte(`{"n":1}`),
	})
	require.NoError(t, err)
	return script
}

func TestOutputAdmittedStoresRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	service := New(store)

	op := util.NewOutPoint(testTxId, 0)
	require.NoError(t, service.OutputAdmitted(ctx, constants.TopicName, op, testScript(t, "X", 500)))

	record, err := store.FindByOutpoint(ctx, op)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, "X", record.TokenId)
	require.Equal(t, "500", record.Amount)
	require.JSONEq(t, `{"n":1}`, record.CustomFields)
}

func TestOutputAdmittedIgnoresOtherTopics(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	service := New(store)

	op := util.NewOutPoint(testTxId, 0)
	require.NoError(t, service.OutputAdmitted(ctx, "tm_other", op, testScript(t, "X", 500)))

	record, err := store.FindByOutpoint(ctx, op)
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestOutputAdmittedRejectsUndecodableScript(t *testing.T) {
	ctx := context.Background()
	service := New(memory.New())

	op := util.NewOutPoint(testTxId, 0)
	require.Error(t, service.OutputAdmitted(ctx, constants.TopicName, op, []byte{0x00, 0x01}))
}

func TestOutputSpentAndEvicted(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	service := New(store)

	op := util.NewOutPoint(testTxId, 0)
	require.NoError(t, service.OutputAdmitted(ctx, constants.TopicName, op, testScript(t, "X", 500)))

	// A spend for a different topic leaves the record alone.
	require.NoError(t, service.OutputSpent(ctx, "tm_other", op))
	record, err := store.FindByOutpoint(ctx, op)
	require.NoError(t, err)
	require.NotNil(t, record)

	require.NoError(t, service.OutputSpent(ctx, constants.TopicName, op))
	record, err = store.FindByOutpoint(ctx, op)
	require.NoError(t, err)
	require.Nil(t, record)

	// Eviction is topic agnostic.
	require.NoError(t, service.OutputAdmitted(ctx, constants.TopicName, op, testScript(t, "X", 500)))
	require.NoError(t, service.OutputEvicted(ctx, op))
	record, err = store.FindByOutpoint(ctx, op)
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestLookupRejectsUnknownService(t *testing.T) {
	service := New(memory.New())

	_, err := service.Lookup(context.Background(), &Question{Service: "ls_other"})
	require.ErrorIs(t, err, ErrUnknownService)
}

func TestLookupRoutesByPrecedence(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	service := New(store)

	opX := util.NewOutPoint(testTxId, 0)
	opY := util.NewOutPoint(testTxId, 1)
	require.NoError(t, service.OutputAdmitted(ctx, constants.TopicName, opX, testScript(t, "X", 1)))
	require.NoError(t, service.OutputAdmitted(ctx, constants.TopicName, opY, testScript(t, "Y", 1)))

	// Outpoint beats token id.
	got, err := service.Lookup(ctx, &Question{
		Service: constants.LookupServiceName,
		Query:   Query{Outpoint: opX.String(), TokenId: "Y"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, opX.String(), got[0].String())

	// Token id beats the unfiltered listing.
	got, err = service.Lookup(ctx, &Question{
		Service: constants.LookupServiceName,
		Query:   Query{TokenId: "Y"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, opY.String(), got[0].String())

	// Nothing specified lists everything.
	got, err = service.Lookup(ctx, &Question{Service: constants.LookupServiceName})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestLookupMissOutpointReturnsEmpty(t *testing.T) {
	service := New(memory.New())

	got, err := service.Lookup(context.Background(), &Question{
		Service: constants.LookupServiceName,
		Query:   Query{Outpoint: util.NewOutPoint(testTxId, 9).String()},
	})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestLookupMalformedOutpoint(t *testing.T) {
	service := New(memory.New())

	_, err := service.Lookup(context.Background(), &Question{
		Service: constants.LookupServiceName,
		Query:   Query{Outpoint: "not-an-outpoint"},
	})
	require.ErrorIs(t, err, ErrMalformedOutpoint)
}

func TestLookupPropagatesPaginationErrors(t *testing.T) {
	service := New(memory.New())

	_, err := service.Lookup(context.Background(), &Question{
		Service: constants.LookupServiceName,
		Query:   Query{Limit: -1},
	})
	require.ErrorIs(t, err, index.ErrInvalidPagination)
}
