package store

import (
	"context"
	"testing"
	"time"

	"greencreditapi/pkg/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteSubmission(t *testing.T) {

	ctx := context.Background()
	st := NewMemory()
	tokens := 30

	for _, sub := range []schemas.Submission{
		{Id: "pending", Kind: schemas.KIND_CLEANUP, UserId: "u1", ImageUrl: "x", Status: schemas.STATUS_PENDING},
		{Id: "rejected", Kind: schemas.KIND_CLEANUP, UserId: "u1", ImageUrl: "x", Status: schemas.STATUS_REJECTED},
		{Id: "approved", Kind: schemas.KIND_CLEANUP, UserId: "u1", ImageUrl: "x", Status: schemas.STATUS_APPROVED, Tokens: &tokens},
	} {
		require.NoError(t, st.InsertSubmission(ctx, &sub))
	}

	deleted, err := st.DeleteSubmission(ctx, schemas.KIND_CLEANUP, "pending", "u1")
	require.NoError(t, err)
	assert.Equal(t, schemas.STATUS_PENDING, deleted.Status)

	deleted, err = st.DeleteSubmission(ctx, schemas.KIND_CLEANUP, "rejected", "u1")
	require.NoError(t, err)
	assert.Equal(t, "rejected", deleted.Id)

	_, err = st.DeleteSubmission(ctx, schemas.KIND_CLEANUP, "approved", "u1")
	assert.ErrorIs(t, err, ErrNotDeletable)
	_, err = st.DeleteSubmission(ctx, schemas.KIND_CLEANUP, "approved", "u2")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.DeleteSubmission(ctx, schemas.KIND_TREE, "approved", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	subs, err := st.ListSubmissions(ctx, schemas.KIND_CLEANUP, SubmissionFilter{UserId: "u1"})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "approved", subs[0].Id)

}

func TestReviewSubmission(t *testing.T) {

	ctx := context.Background()
	st := NewMemory()
	sub := schemas.Submission{Kind: schemas.KIND_TREE, UserId: "u1", BeforeUrl: "a", AfterUrl: "b", Status: schemas.STATUS_PENDING}
	require.NoError(t, st.InsertSubmission(ctx, &sub))

	tokens, rating := 50, 5
	before, after, err := st.ReviewSubmission(ctx, schemas.KIND_TREE, sub.Id, Review{
		Status: schemas.STATUS_APPROVED, Tokens: &tokens, Rating: &rating, ReviewedBy: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, before.Award())
	assert.Equal(t, 50, after.Award())
	assert.NotNil(t, after.ReviewedAt)

	stored, err := st.GetSubmission(ctx, schemas.KIND_TREE, sub.Id)
	require.NoError(t, err)
	assert.Equal(t, schemas.STATUS_APPROVED, stored.Status)

	_, _, err = st.ReviewSubmission(ctx, schemas.KIND_TREE, "missing", Review{Status: schemas.STATUS_REJECTED})
	assert.ErrorIs(t, err, ErrNotFound)

}

func TestPlaceOrder(t *testing.T) {

	ctx := context.Background()
	st := NewMemory()
	require.NoError(t, st.CreateUser(ctx, &schemas.User{Id: "u1", Email: "a@b.c"}))
	require.NoError(t, st.AppendLedger(ctx, &schemas.LedgerEntry{UserId: "u1", Type: schemas.LEDGER_CREDIT, Amount: 70, Source: "tree:t1"}))

	newOrder := func(id string, key string, total int) (*schemas.Order, *schemas.LedgerEntry) {
		order := &schemas.Order{Id: id, UserId: "u1", Total: total, IdempotencyKey: key, Status: schemas.ORDER_STATUS_PLACED, Ctime: time.Now()}
		return order, &schemas.LedgerEntry{Id: "debit-" + id, UserId: "u1", Type: schemas.LEDGER_DEBIT, Amount: -total, Source: order.Source()}
	}

	order, debit := newOrder("o1", "k1", 80)
	assert.ErrorIs(t, st.PlaceOrder(ctx, order, debit), ErrInsufficientBalance)

	order, debit = newOrder("o1", "k1", 70)
	require.NoError(t, st.PlaceOrder(ctx, order, debit))

	order, debit = newOrder("o2", "k1", 0)
	assert.ErrorIs(t, st.PlaceOrder(ctx, order, debit), ErrDuplicateOrder)

	order, debit = newOrder("o3", "k3", 1)
	assert.ErrorIs(t, st.PlaceOrder(ctx, order, debit), ErrInsufficientBalance)

	orders, err := st.ListOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	prev, err := st.GetOrderByIdempotencyKey(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.Equal(t, "o1", prev.Id)

	user, err := st.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.LedgerSeq)

}

func TestSolarRequestFlow(t *testing.T) {

	ctx := context.Background()
	st := NewMemory()

	req := schemas.SolarRequest{UserId: "owner", Status: schemas.SOLAR_REQUEST_OPEN}
	require.NoError(t, st.InsertSolarRequest(ctx, &req))

	app := schemas.SolarApplication{RequestId: req.Id, UserId: "installer", Status: schemas.SOLAR_APPLICATION_APPLIED}
	require.NoError(t, st.InsertSolarApplication(ctx, &app))
	dup := schemas.SolarApplication{RequestId: req.Id, UserId: "installer"}
	assert.ErrorIs(t, st.InsertSolarApplication(ctx, &dup), ErrConflict)

	_, err := st.AcceptInstaller(ctx, req.Id, "someone", app.Id)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := st.AcceptInstaller(ctx, req.Id, "owner", app.Id)
	require.NoError(t, err)
	assert.Equal(t, schemas.SOLAR_REQUEST_IN_PROGRESS, updated.Status)
	assert.Equal(t, "installer", updated.AcceptedInstallerId)

	_, err = st.AcceptInstaller(ctx, req.Id, "owner", app.Id)
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, st.MarkCompletedByOwner(ctx, req.Id, "owner"))
	stored, err := st.GetSolarRequest(ctx, req.Id)
	require.NoError(t, err)
	assert.True(t, stored.CompletedByOwner)

}

func TestListThreads(t *testing.T) {

	ctx := context.Background()
	st := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	msgs := []schemas.ChatMessage{
		{UserId: "u1", Sender: schemas.SENDER_USER, Message: "hi", Ctime: base},
		{UserId: "u2", Sender: schemas.SENDER_USER, Message: "hello", Ctime: base.Add(time.Minute)},
		{UserId: "u1", Sender: schemas.SENDER_ADMIN, Message: "welcome", Ctime: base.Add(2 * time.Minute)},
	}
	for _, msg := range msgs {
		require.NoError(t, st.InsertMessage(ctx, &msg))
	}

	threads, err := st.ListThreads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, "u1", threads[0].UserId)
	assert.Equal(t, "welcome", threads[0].LastMessage)
	assert.Equal(t, 2, threads[0].Count)
	assert.Equal(t, "u2", threads[1].UserId)

}
