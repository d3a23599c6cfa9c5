package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bloom-wire-service/internal/domain"
)

func listRecord(id, direction, status string) domain.ListRecord {
	return domain.ListRecord{
		MessageNumber: id,
		Direction:     direction,
		Status:        status,
		OrderItemID:   "oi-1",
	}
}

func TestProcessListRecord_NewInboundOrder(t *testing.T) {
	e := newEngine()
	e.network.details["oi-1"] = mustDetail(detailJSON("Jane", "Doe", "6045550100", "Vancouver", "50.00"))

	res, err := e.syncer.ProcessListRecord(context.Background(), listRecord("F123-1", "INBOUND", "NEW"))
	require.NoError(t, err)
	assert.Equal(t, domain.ResultNew, res)

	w, err := e.wire.Get(context.Background(), "F123-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncNeedsAction, w.SyncStatus)
	assert.Equal(t, int64(5000), w.TotalAmountCents)
	require.NotNil(t, w.DetailedFetchedAt)
	require.True(t, w.Materialized())

	o, err := e.shop.Get(context.Background(), w.LinkedOrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShopDraft, o.Status)
	assert.Equal(t, int64(5000), o.PaymentAmountCents)

	items := e.shop.items[o.ID]
	require.Len(t, items, 1)
	assert.Equal(t, int64(3500), items[0].UnitPriceCents, "5000 total minus 1500 flat delivery fee")

	// sender florist + recipient
	assert.Equal(t, 2, e.customers.count())
	assert.Equal(t, 1, e.addresses.count())
	require.Len(t, e.ledger.entries, 1)
	assert.Equal(t, int64(5000), e.ledger.entries[0].AmountCents)
	require.Len(t, e.notifier.sent, 1)
	assert.Equal(t, "F123-1", e.notifier.sent[0].ExternalID)
	assert.False(t, e.notifier.sent[0].IsUpdate)
}

func TestProcessListRecord_IdempotentUnderRepolling(t *testing.T) {
	e := newEngine()
	e.network.details["oi-1"] = mustDetail(detailJSON("Jane", "Doe", "6045550100", "Vancouver", "50.00"))
	rec := listRecord("F123-1", "INBOUND", "NEW")

	res, err := e.syncer.ProcessListRecord(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, domain.ResultNew, res)

	res, err = e.syncer.ProcessListRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultUnchanged, res)

	assert.Equal(t, 1, e.shop.count())
	assert.Equal(t, 2, e.customers.count())
	assert.Equal(t, 1, e.addresses.count())
	assert.Equal(t, 1, e.network.detailCalls, "details are fetched exactly once")
}

func TestProcessListRecord_OutboundNeverMirrored(t *testing.T) {
	e := newEngine()
	e.network.details["oi-1"] = mustDetail(detailJSON("Jane", "Doe", "6045550100", "Vancouver", "50.00"))

	for _, status := range []string{"NEW", "DELIVERED", "CANCELLED", "something-else"} {
		res, err := e.syncer.ProcessListRecord(context.Background(), listRecord("F9-out", "OUTBOUND", status))
		require.NoError(t, err)
		assert.Equal(t, domain.ResultUnchanged, res)
	}
	_, err := e.wire.Get(context.Background(), "F9-out")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, e.network.detailCalls)
}

func TestProcessListRecord_MissingDetailAbandonsCycle(t *testing.T) {
	e := newEngine()
	rec := listRecord("F77-1", "INBOUND", "NEW")

	res, err := e.syncer.ProcessListRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultUnchanged, res)

	// no stub record is created on detail-fetch failure
	_, err = e.wire.Get(context.Background(), "F77-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the order reappears next poll once details exist
	e.network.details["oi-1"] = mustDetail(detailJSON("Jane", "Doe", "6045550100", "Vancouver", "50.00"))
	res, err = e.syncer.ProcessListRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultNew, res)
}

func TestProcessListRecord_StatusConvergence(t *testing.T) {
	e := newEngine()
	e.network.details["oi-1"] = mustDetail(detailJSON("Jane", "Doe", "6045550100", "Vancouver", "50.00"))

	_, err := e.syncer.ProcessListRecord(context.Background(), listRecord("F123-1", "INBOUND", "NEW"))
	require.NoError(t, err)

	for _, status := range []string{"PRINTED", "ACKNOWLEDGED", "DESIGN", "OUT_FOR_DELIVERY", "DELIVERED"} {
		_, err := e.syncer.ProcessListRecord(context.Background(), listRecord("F123-1", "INBOUND", status))
		require.NoError(t, err)
	}

	w, err := e.wire.Get(context.Background(), "F123-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncDelivered, w.SyncStatus)

	o, err := e.shop.Get(context.Background(), w.LinkedOrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShopCompleted, o.Status)

	// re-polling never multiplies local records
	assert.Equal(t, 1, e.shop.count())
	assert.Equal(t, 2, e.customers.count())
	assert.Equal(t, 1, e.addresses.count())
}

func TestProcessListRecord_RepollUpdatesStatusOnly(t *testing.T) {
	e := newEngine()
	e.network.details["oi-1"] = mustDetail(detailJSON("Jane", "Doe", "6045550100", "Vancouver", "50.00"))

	_, err := e.syncer.ProcessListRecord(context.Background(), listRecord("F123-1", "INBOUND", "NEW"))
	require.NoError(t, err)

	res, err := e.syncer.ProcessListRecord(context.Background(), listRecord("F123-1", "INBOUND", "DELIVERED"))
	require.NoError(t, err)
	assert.Equal(t, domain.ResultUpdated, res)

	w, _ := e.wire.Get(context.Background(), "F123-1")
	assert.Equal(t, domain.SyncDelivered, w.SyncStatus)
	assert.Equal(t, "DELIVERED", w.RawStatus)
	o, _ := e.shop.Get(context.Background(), w.LinkedOrderID)
	assert.Equal(t, domain.ShopCompleted, o.Status)
	assert.Equal(t, 1, e.network.detailCalls, "no detail re-fetch on revisit")
}

func TestProcessListRecord_SelfHealsFailedMaterialization(t *testing.T) {
	e := newEngine()
	e.network.details["oi-1"] = mustDetail(detailJSON("Jane", "Doe", "6045550100", "Vancouver", "50.00"))
	e.shop.failNext = true

	res, err := e.syncer.ProcessListRecord(context.Background(), listRecord("F123-1", "INBOUND", "NEW"))
	require.NoError(t, err)
	require.Equal(t, domain.ResultNew, res)

	w, err := e.wire.Get(context.Background(), "F123-1")
	require.NoError(t, err)
	assert.False(t, w.Materialized(), "mirror exists without a shop order after the failure")

	// next poll repairs the missing shop order before reconciling
	_, err = e.syncer.ProcessListRecord(context.Background(), listRecord("F123-1", "INBOUND", "ACKNOWLEDGED"))
	require.NoError(t, err)

	w, err = e.wire.Get(context.Background(), "F123-1")
	require.NoError(t, err)
	require.True(t, w.Materialized())
	o, err := e.shop.Get(context.Background(), w.LinkedOrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.ShopPaid, o.Status)
	assert.Equal(t, 1, e.network.detailCalls, "self-heal reuses the stored payload")
}

func TestProcessListRecord_NotifierFailureDoesNotBlock(t *testing.T) {
	e := newEngine()
	e.network.details["oi-1"] = mustDetail(detailJSON("Jane", "Doe", "6045550100", "Vancouver", "50.00"))
	e.notifier.fail = true

	res, err := e.syncer.ProcessListRecord(context.Background(), listRecord("F123-1", "INBOUND", "NEW"))
	require.NoError(t, err)
	assert.Equal(t, domain.ResultNew, res)

	w, _ := e.wire.Get(context.Background(), "F123-1")
	assert.True(t, w.Materialized())
}

func TestRefreshDetails_ManualOverwrite(t *testing.T) {
	e := newEngine()
	e.network.details["oi-1"] = mustDetail(detailJSON("Jane", "Doe", "6045550100", "Vancouver", "50.00"))

	_, err := e.syncer.ProcessListRecord(context.Background(), listRecord("F123-1", "INBOUND", "NEW"))
	require.NoError(t, err)
	before, _ := e.wire.Get(context.Background(), "F123-1")
	firstFetch := *before.DetailedFetchedAt

	// upstream corrected the recipient; only the manual path may re-fetch
	e.network.details["oi-1"] = mustDetail(detailJSON("Janet", "Doe", "6045550100", "Vancouver", "65.00"))

	w, err := e.syncer.RefreshDetails(context.Background(), "F123-1")
	require.NoError(t, err)
	assert.Equal(t, "Janet", w.RecipientFirstName)
	assert.Equal(t, int64(6500), w.TotalAmountCents)

	stored, _ := e.wire.Get(context.Background(), "F123-1")
	assert.Equal(t, "Janet", stored.RecipientFirstName)
	assert.True(t, stored.DetailedFetchedAt.Equal(firstFetch) || stored.DetailedFetchedAt.After(firstFetch))
	assert.True(t, stored.Materialized(), "manual refresh never unlinks the shop order")
	assert.Equal(t, 2, e.network.detailCalls)
}

func TestRefreshDetails_UnknownOrder(t *testing.T) {
	e := newEngine()
	_, err := e.syncer.RefreshDetails(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconciler_UnconditionalOverwrite(t *testing.T) {
	e := newEngine()
	e.network.details["oi-1"] = mustDetail(detailJSON("Jane", "Doe", "6045550100", "Vancouver", "50.00"))

	_, err := e.syncer.ProcessListRecord(context.Background(), listRecord("F123-1", "INBOUND", "DELIVERED"))
	require.NoError(t, err)
	w, _ := e.wire.Get(context.Background(), "F123-1")

	// an operator moved the shop order by hand; the network wins on re-poll
	require.NoError(t, e.shop.UpdateStatus(context.Background(), w.LinkedOrderID, domain.ShopDraft))

	_, err = e.syncer.ProcessListRecord(context.Background(), listRecord("F123-1", "INBOUND", "DELIVERED"))
	require.NoError(t, err)

	o, _ := e.shop.Get(context.Background(), w.LinkedOrderID)
	assert.Equal(t, domain.ShopCompleted, o.Status)
}
