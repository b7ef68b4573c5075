// Package ledger holds the token accounting rules: aggregation of approved
// awards, folding of the append-only ledger, and leaderboard ranking.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"greencreditapi/pkg/schemas"
)

// Reward is one token-bearing record in a user's history.
type Reward struct {
	Kind   schemas.Kind `json:"type"`
	Tokens int          `json:"tokens"`
	Date   time.Time    `json:"date"`
	Source string       `json:"source"`
}

type Summary struct {
	Total   int      `json:"total"`
	History []Reward `json:"history"`
}

// Aggregate sums the awards of approved tree and cleanup submissions and of
// every recorded solar reward. Submissions in any other status are ignored.
// A record that fails validation aborts the aggregation.
func Aggregate(tree []schemas.Submission, cleanup []schemas.Submission, solar []schemas.SolarReward) (Summary, error) {

	summary := Summary{History: []Reward{}}

	for _, group := range []struct {
		kind schemas.Kind
		subs []schemas.Submission
	}{
		{schemas.KIND_TREE, tree},
		{schemas.KIND_CLEANUP, cleanup},
	} {
		for i := range group.subs {
			sub := &group.subs[i]
			if err := sub.Validate(); err != nil {
				return Summary{}, err
			}
			if sub.Kind != group.kind {
				return Summary{}, fmt.Errorf("%w: %s submission %s in %s set", schemas.ErrMalformed, sub.Kind, sub.Id, group.kind)
			}
			if sub.Status != schemas.STATUS_APPROVED {
				continue
			}
			date := sub.Ctime
			if sub.ReviewedAt != nil {
				date = *sub.ReviewedAt
			}
			summary.add(Reward{
				Kind:   sub.Kind,
				Tokens: sub.Award(),
				Date:   date,
				Source: sub.Source(),
			})
		}
	}

	for i := range solar {
		reward := &solar[i]
		if err := reward.Validate(); err != nil {
			return Summary{}, err
		}
		summary.add(Reward{
			Kind:   schemas.KIND_SOLAR,
			Tokens: reward.RewardTokens,
			Date:   reward.Ctime,
			Source: reward.Source(),
		})
	}

	// newest first
	sort.SliceStable(summary.History, func(i, j int) bool {
		a, b := summary.History[i], summary.History[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Source < b.Source
	})

	return summary, nil

}

func (s *Summary) add(r Reward) {
	s.Total += r.Tokens
	s.History = append(s.History, r)
}
