// Package notify queues transactional e-mails in Redis and dispatches them
// through SES.
package notify

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"greencreditapi/pkg/config"
	"greencreditapi/pkg/schemas"

	"github.com/redis/go-redis/v9"
)

const (
	KIND_ORDER_CONFIRMATION = "order_confirmation"
	KIND_REVIEW_OUTCOME     = "review_outcome"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type ReviewOutcome struct {
	Kind   schemas.Kind `json:"kind"`
	Status string       `json:"status"`
	Tokens int          `json:"tokens"`
}

type Notification struct {
	Kind   string         `json:"kind"`
	To     string         `json:"to"`
	Order  *schemas.Order `json:"order,omitempty"`
	Review *ReviewOutcome `json:"review,omitempty"`
}

func OrderConfirmation(to string, order *schemas.Order) *Notification {
	return &Notification{Kind: KIND_ORDER_CONFIRMATION, To: to, Order: order}
}

func ReviewResult(to string, sub *schemas.Submission) *Notification {
	return &Notification{
		Kind:   KIND_REVIEW_OUTCOME,
		To:     to,
		Review: &ReviewOutcome{Kind: sub.Kind, Status: sub.Status, Tokens: sub.Award()},
	}
}

// Enqueue pushes n onto the dispatch queue. Notifications without a recipient
// are dropped.
func Enqueue(redisCli *redis.Client, ctx context.Context, n *Notification) error {

	if n.To == "" {
		return nil
	}

	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	return redisCli.LPush(ctx, config.NOTIFY_QUEUE, data).Err()

}

// Render returns the subject and html body for n.
func Render(n *Notification) (string, string, error) {

	var subject, name string
	switch n.Kind {
	case KIND_ORDER_CONFIRMATION:
		if n.Order == nil {
			return "", "", errors.New("order confirmation without order")
		}
		subject = "Order confirmed | Green Credit"
		name = "order_confirmation.html"
	case KIND_REVIEW_OUTCOME:
		if n.Review == nil {
			return "", "", errors.New("review outcome without review")
		}
		subject = fmt.Sprintf("Your %s submission was %s | Green Credit", n.Review.Kind, n.Review.Status)
		name = "review_outcome.html"
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", n.Kind)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, n); err != nil {
		return "", "", err
	}

	return subject, buf.String(), nil

}
