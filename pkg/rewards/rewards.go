// Package rewards reads token state for users out of the store: reward
// summaries, ledger balances, ledger settlement after reviews and the
// leaderboard.
package rewards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"greencreditapi/pkg/config"
	"greencreditapi/pkg/ledger"
	"greencreditapi/pkg/schemas"
	"greencreditapi/pkg/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Summarize aggregates every reward source for uid.
func Summarize(ctx context.Context, st store.Store, uid string) (ledger.Summary, error) {

	if uid == "" {
		return ledger.Summary{History: []ledger.Reward{}}, nil
	}

	approved := store.SubmissionFilter{UserId: uid, Status: schemas.STATUS_APPROVED}
	tree, err := st.ListSubmissions(ctx, schemas.KIND_TREE, approved)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("listing tree submissions: %w", err)
	}
	cleanup, err := st.ListSubmissions(ctx, schemas.KIND_CLEANUP, approved)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("listing cleanup submissions: %w", err)
	}
	solar, err := st.ListSolarRewards(ctx, uid)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("listing solar rewards: %w", err)
	}

	return ledger.Aggregate(tree, cleanup, solar)

}

// Balance folds the ledger of uid.
func Balance(ctx context.Context, st store.Store, uid string) (ledger.Balance, error) {

	if uid == "" {
		return ledger.Balance{}, nil
	}

	entries, err := st.ListLedger(ctx, uid)
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("listing ledger: %w", err)
	}
	return ledger.Fold(entries), nil

}

// Settle appends the ledger entry that makes the credit for source equal to
// award and moves the cached token total by the same delta. It returns nil
// when nothing changed.
func Settle(ctx context.Context, st store.Store, uid string, source string, award int) (*schemas.LedgerEntry, error) {

	entries, err := st.ListLedger(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}

	entry := ledger.Settle(entries, uid, source, award, time.Now().UTC())
	if entry == nil {
		return nil, nil
	}
	if err := st.AppendLedger(ctx, entry); err != nil {
		return nil, fmt.Errorf("appending ledger entry: %w", err)
	}

	// display cache only
	if err := st.AddCachedTokens(ctx, uid, entry.Amount); err != nil && !errors.Is(err, store.ErrNotFound) {
		return entry, fmt.Errorf("updating cached tokens: %w", err)
	}

	return entry, nil

}

// Standings ranks every user by aggregated tokens.
func Standings(ctx context.Context, st store.Store) ([]ledger.Standing, error) {

	users, err := st.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	standings := make([]ledger.Standing, 0, len(users))
	for _, u := range users {
		summary, err := Summarize(ctx, st, u.Id)
		if err != nil {
			return nil, fmt.Errorf("summarizing %s: %w", u.Id, err)
		}
		standings = append(standings, ledger.Standing{
			UserId: u.Id,
			Handle: u.Handle,
			Tokens: summary.Total,
		})
	}

	return ledger.Rank(standings), nil

}

var ErrBadSnapshot = errors.New("leaderboard snapshot can't be decoded")

// Leaderboard is the live ranking with each user's movement relative to the
// last snapshot. A missing or unreadable snapshot marks everyone as up.
func Leaderboard(ctx context.Context, st store.Store, redisCli *redis.Client) ([]ledger.Standing, error) {

	standings, err := Standings(ctx, st)
	if err != nil {
		return nil, err
	}

	last, _ := loadSnapshot(ctx, redisCli)
	markDirections(standings, last)

	return standings, nil

}

// RefreshSnapshot recomputes the ranking and stores it as the new snapshot.
// An undecodable snapshot is logged and overwritten.
func RefreshSnapshot(ctx context.Context, st store.Store, redisCli *redis.Client, logger *zap.Logger) ([]ledger.Standing, error) {

	standings, err := Standings(ctx, st)
	if err != nil {
		return nil, err
	}

	last, err := loadSnapshot(ctx, redisCli)
	if errors.Is(err, ErrBadSnapshot) {
		logger.Warn("replacing unreadable leaderboard snapshot", zap.Error(err))
		last = nil
	} else if err != nil {
		return nil, err
	}
	markDirections(standings, last)

	data, err := json.Marshal(&standings)
	if err != nil {
		return nil, err
	}
	if err := redisCli.Set(ctx, config.LEADERBOARD_SNAPSHOT_KEY, data, 0).Err(); err != nil {
		return nil, fmt.Errorf("storing snapshot: %w", err)
	}

	return standings, nil

}

func loadSnapshot(ctx context.Context, redisCli *redis.Client) ([]ledger.Standing, error) {

	raw, err := redisCli.Get(ctx, config.LEADERBOARD_SNAPSHOT_KEY).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	var last []ledger.Standing
	if err := json.Unmarshal([]byte(raw), &last); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadSnapshot, err)
	}
	return last, nil

}

// markDirections sets Dir to 1 for users at or above their previous rank and
// for newcomers, -1 for users that dropped.
func markDirections(standings []ledger.Standing, last []ledger.Standing) {

	prev := make(map[string]int, len(last))
	for _, s := range last {
		prev[s.UserId] = s.Rank
	}

	for i := range standings {
		standings[i].Dir = 1
		if rank, ok := prev[standings[i].UserId]; ok && standings[i].Rank > rank {
			standings[i].Dir = -1
		}
	}

}
