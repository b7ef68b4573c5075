package router

import (
	"net/http"
	"testing"

	"greencreditapi/internal/api"
	"greencreditapi/pkg/config"
	"greencreditapi/pkg/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type submissionRes struct {
	Id     string `json:"id"`
	Kind   string `json:"kind"`
	UserId string `json:"userId"`
	Status string `json:"status"`
	Tokens *int   `json:"tokens"`
	Rating *int   `json:"rating"`
}

type reviewRes struct {
	Submission  submissionRes `json:"submission"`
	LedgerEntry *struct {
		Type   string `json:"type"`
		Amount int    `json:"amount"`
		Source string `json:"source"`
	} `json:"ledgerEntry"`
}

type rewardsRes struct {
	Total   int `json:"total"`
	History []struct {
		Type   string `json:"type"`
		Tokens int    `json:"tokens"`
	} `json:"history"`
	Balance struct {
		Earned     int `json:"earned"`
		Spent      int `json:"spent"`
		Redeemable int `json:"redeemable"`
	} `json:"balance"`
}

func TestSubmissionReview(t *testing.T) {

	env := newTestEnv(t)
	userToken := env.user("u1", false)
	adminToken := env.user("admin", true)

	var sub submissionRes
	code := env.do("POST", "/submissions/tree", userToken, map[string]string{
		"beforeUrl": "https://cdn.example.com/before.jpg",
		"afterUrl":  "https://cdn.example.com/after.jpg",
		"location":  "Riverside park",
	}, &sub)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, schemas.STATUS_PENDING, sub.Status)
	assert.Equal(t, "u1", sub.UserId)
	assert.Nil(t, sub.Tokens)

	reviewPath := "/admin/submissions/tree/" + sub.Id + "/review"

	t.Run("users cannot review", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, env.do("POST", reviewPath, userToken, map[string]any{"status": "approved", "rating": 5}, nil))
	})

	t.Run("tree approval needs a rating", func(t *testing.T) {
		var flags map[string]bool
		code := env.do("POST", reviewPath, adminToken, map[string]any{"status": "approved"}, &flags)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.True(t, flags["ratingRequired"])

		code = env.do("POST", reviewPath, adminToken, map[string]any{"status": "approved", "rating": 11}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
		code = env.do("POST", reviewPath, adminToken, map[string]any{"status": "maybe"}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("approve credits the ledger", func(t *testing.T) {
		var res reviewRes
		code := env.do("POST", reviewPath, adminToken, map[string]any{"status": "approved", "rating": 8}, &res)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, schemas.STATUS_APPROVED, res.Submission.Status)
		require.NotNil(t, res.Submission.Tokens)
		assert.Equal(t, 80, *res.Submission.Tokens)
		require.NotNil(t, res.LedgerEntry)
		assert.Equal(t, schemas.LEDGER_CREDIT, res.LedgerEntry.Type)
		assert.Equal(t, 80, res.LedgerEntry.Amount)
		assert.Equal(t, "tree:"+sub.Id, res.LedgerEntry.Source)

		var rewards rewardsRes
		require.Equal(t, http.StatusOK, env.do("GET", "/rewards", userToken, nil, &rewards))
		assert.Equal(t, 80, rewards.Total)
		require.Len(t, rewards.History, 1)
		assert.Equal(t, "tree", rewards.History[0].Type)
		assert.Equal(t, 80, rewards.Balance.Redeemable)

		queued, err := env.mr.List(config.NOTIFY_QUEUE)
		require.NoError(t, err)
		assert.Len(t, queued, 1)
	})

	t.Run("approved submissions cannot be deleted", func(t *testing.T) {
		var flags map[string]bool
		code := env.do("DELETE", "/submissions/tree/"+sub.Id, userToken, nil, &flags)
		assert.Equal(t, http.StatusConflict, code)
		assert.True(t, flags["notDeletable"])
	})

	t.Run("same decision again writes nothing", func(t *testing.T) {
		var res reviewRes
		code := env.do("POST", reviewPath, adminToken, map[string]any{"status": "approved"}, &res)
		require.Equal(t, http.StatusOK, code)
		assert.Nil(t, res.LedgerEntry)
		require.NotNil(t, res.Submission.Tokens)
		assert.Equal(t, 80, *res.Submission.Tokens)
	})

	t.Run("rejecting claws the award back", func(t *testing.T) {
		var res reviewRes
		code := env.do("POST", reviewPath, adminToken, map[string]any{"status": "rejected"}, &res)
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, schemas.STATUS_REJECTED, res.Submission.Status)
		require.NotNil(t, res.LedgerEntry)
		assert.Equal(t, schemas.LEDGER_ADJUSTMENT, res.LedgerEntry.Type)
		assert.Equal(t, -80, res.LedgerEntry.Amount)

		var rewards rewardsRes
		require.Equal(t, http.StatusOK, env.do("GET", "/rewards", userToken, nil, &rewards))
		assert.Zero(t, rewards.Total)
		assert.Zero(t, rewards.Balance.Earned)
		assert.Zero(t, rewards.Balance.Redeemable)
	})

	t.Run("rejected submissions can be deleted", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.do("DELETE", "/submissions/tree/"+sub.Id, adminToken, nil, nil))
		assert.Equal(t, http.StatusOK, env.do("DELETE", "/submissions/tree/"+sub.Id, userToken, nil, nil))
		assert.Equal(t, http.StatusNotFound, env.do("DELETE", "/submissions/tree/"+sub.Id, userToken, nil, nil))
	})

	t.Run("missing submission", func(t *testing.T) {
		code := env.do("POST", "/admin/submissions/cleanup/nope/review", adminToken, map[string]any{"status": "rejected"}, nil)
		assert.Equal(t, http.StatusNotFound, code)
		code = env.do("POST", "/admin/submissions/boat/nope/review", adminToken, map[string]any{"status": "rejected"}, nil)
		assert.Equal(t, http.StatusBadRequest, code)
	})

}

func TestCleanupSubmission(t *testing.T) {

	env := newTestEnv(t)
	userToken := env.user("u1", false)
	adminToken := env.user("admin", true)
	body := map[string]string{"imageUrl": "https://cdn.example.com/bags.jpg"}

	var first, replay submissionRes
	code := env.do("POST", "/submissions/cleanup", userToken, body, &first, withHeader("Idempotency-Key", "k-1"))
	require.Equal(t, http.StatusCreated, code)
	code = env.do("POST", "/submissions/cleanup", userToken, body, &replay, withHeader("Idempotency-Key", "k-1"))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, first.Id, replay.Id)

	var mine []submissionRes
	require.Equal(t, http.StatusOK, env.do("GET", "/submissions?kind=cleanup", userToken, nil, &mine))
	assert.Len(t, mine, 1)
	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/submissions?kind=boat", userToken, nil, nil))

	var pending []submissionRes
	require.Equal(t, http.StatusOK, env.do("GET", "/admin/submissions/cleanup?status=pending", adminToken, nil, &pending))
	require.Len(t, pending, 1)

	// cleanup approvals need an explicit amount
	var flags map[string]bool
	code = env.do("POST", "/admin/submissions/cleanup/"+first.Id+"/review", adminToken, map[string]any{"status": "approved"}, &flags)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, flags["tokensRequired"])

	var res reviewRes
	code = env.do("POST", "/admin/submissions/cleanup/"+first.Id+"/review", adminToken, map[string]any{"status": "approved", "tokens": 25}, &res)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, res.LedgerEntry)
	assert.Equal(t, 25, res.LedgerEntry.Amount)

	// a new reviewed amount settles the difference
	code = env.do("POST", "/admin/submissions/cleanup/"+first.Id+"/review", adminToken, map[string]any{"status": "approved", "tokens": 40}, &res)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, res.LedgerEntry)
	assert.Equal(t, schemas.LEDGER_ADJUSTMENT, res.LedgerEntry.Type)
	assert.Equal(t, 15, res.LedgerEntry.Amount)

	var rewards rewardsRes
	require.Equal(t, http.StatusOK, env.do("GET", "/rewards", userToken, nil, &rewards))
	assert.Equal(t, 40, rewards.Total)
	assert.Equal(t, 40, rewards.Balance.Redeemable)

}

func TestSubmissionRateLimit(t *testing.T) {

	env := newTestEnv(t, func(h *api.Handler) {
		h.SubmitLimiter = api.NewLimiter(rate.Limit(0), 2)
	})
	userToken := env.user("u1", false)
	body := map[string]string{"imageUrl": "https://cdn.example.com/bags.jpg"}

	assert.Equal(t, http.StatusCreated, env.do("POST", "/submissions/cleanup", userToken, body, nil))
	assert.Equal(t, http.StatusCreated, env.do("POST", "/submissions/cleanup", userToken, body, nil))

	var flags map[string]bool
	assert.Equal(t, http.StatusTooManyRequests, env.do("POST", "/submissions/cleanup", userToken, body, &flags))
	assert.True(t, flags["rateLimited"])

	// buckets are per user
	other := env.user("u2", false)
	assert.Equal(t, http.StatusCreated, env.do("POST", "/submissions/cleanup", other, body, nil))

}

func TestSubmissionIdempotencyKey(t *testing.T) {

	env := newTestEnv(t)
	userToken := env.user("u1", false)
	key := withHeader("Idempotency-Key", "k")

	tree := map[string]string{
		"beforeUrl": "https://cdn.example.com/before.jpg",
		"afterUrl":  "https://cdn.example.com/after.jpg",
	}
	cleanup := map[string]string{"imageUrl": "https://cdn.example.com/bags.jpg"}

	var first submissionRes
	require.Equal(t, http.StatusCreated, env.do("POST", "/submissions/tree", userToken, tree, &first, key))

	t.Run("keys are scoped per kind", func(t *testing.T) {
		var other submissionRes
		require.Equal(t, http.StatusCreated, env.do("POST", "/submissions/cleanup", userToken, cleanup, &other, key))
		assert.Equal(t, "cleanup", other.Kind)
		assert.NotEqual(t, first.Id, other.Id)

		var replay submissionRes
		require.Equal(t, http.StatusOK, env.do("POST", "/submissions/tree", userToken, tree, &replay, key))
		assert.Equal(t, first.Id, replay.Id)
	})

	t.Run("a deleted submission frees its key", func(t *testing.T) {
		require.Equal(t, http.StatusOK, env.do("DELETE", "/submissions/tree/"+first.Id, userToken, nil, nil))

		var again submissionRes
		require.Equal(t, http.StatusCreated, env.do("POST", "/submissions/tree", userToken, tree, &again, key))
		assert.NotEqual(t, first.Id, again.Id)

		var replay submissionRes
		require.Equal(t, http.StatusOK, env.do("POST", "/submissions/tree", userToken, tree, &replay, key))
		assert.Equal(t, again.Id, replay.Id)
	})

}
