package notify

import (
	"context"
	"encoding/json"
	"errors"

	"greencreditapi/pkg/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type FailedNotification struct {
	Payload string `json:"payload"`
	Error   string `json:"err"`
}

type Dispatcher struct {
	RedisCli *redis.Client
	SESCli   SendEmailAPI
	Logger   *zap.Logger
}

// Drain sends up to limit queued notifications. It returns redis.Nil when the
// queue is empty.
func (d *Dispatcher) Drain(ctx context.Context, limit int) (int, error) {

	payloads, err := d.RedisCli.RPopCount(ctx, config.NOTIFY_QUEUE, limit).Result()
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, payload := range payloads {
		if err := d.send(ctx, payload); err != nil {
			d.fail(ctx, payload, err)
			continue
		}
		sent++
	}

	return sent, nil

}

func (d *Dispatcher) send(ctx context.Context, payload string) error {

	var n Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return err
	}
	if n.To == "" {
		return errors.New("notification without recipient")
	}

	subject, body, err := Render(&n)
	if err != nil {
		return err
	}

	_, err = d.SESCli.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(config.EMAIL_SENDER),
		Destination: &types.Destination{
			ToAddresses: []string{n.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(body),
				},
			},
		},
	})

	return err

}

func (d *Dispatcher) fail(ctx context.Context, payload string, err error) {

	d.Logger.Warn("notification failed", zap.Error(err), zap.String("payload", payload))

	data, _ := json.Marshal(&FailedNotification{Payload: payload, Error: err.Error()})
	if err := d.RedisCli.RPush(ctx, config.FAILED_NOTIFY_QUEUE, data).Err(); err != nil {
		d.Logger.Error("couldn't record failed notification", zap.Error(err))
	}

}
