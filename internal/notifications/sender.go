package notifications

import (
	"context"
	"fmt"
	"log/slog"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// Pusher delivers one multicast notification.
type Pusher interface {
	SendMulti(ctx context.Context, tokens []string, msg Message) (Report, error)
}

// FCMSender sends push notifications via Firebase Cloud Messaging.
// Nil-safe: when not configured, all methods are no-ops.
type FCMSender struct {
	client  *messaging.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewFCMSender creates an FCM sender from a service account credentials file.
// Returns nil if credentialsFile is empty (notifications disabled).
func NewFCMSender(ctx context.Context, credentialsFile string, perSecond int, logger *slog.Logger) (*FCMSender, error) {
	if credentialsFile == "" {
		return nil, nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	if perSecond < 1 {
		perSecond = 1
	}
	return &FCMSender{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:  logger,
	}, nil
}

// SendMulti sends msg to tokens, split into FCM-sized batches. Per-token
// failures are reported, not retried.
func (s *FCMSender) SendMulti(ctx context.Context, tokens []string, msg Message) (Report, error) {
	var report Report
	if s == nil {
		return report, nil
	}
	if len(tokens) == 0 {
		return report, fmt.Errorf("no tokens to send to")
	}

	for start := 0; start < len(tokens); start += fcmMulticastLimit {
		end := min(start+fcmMulticastLimit, len(tokens))
		batch := tokens[start:end]

		if err := s.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("push rate limit wait: %w", err)
		}

		resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
			Data:         msg.Data,
		})
		if err != nil {
			return report, fmt.Errorf("send multicast: %w", err)
		}

		report.Tokens += len(batch)
		report.Success += resp.SuccessCount
		report.Failure += resp.FailureCount
		for i, r := range resp.Responses {
			if r.Success {
				continue
			}
			report.Failed = append(report.Failed, batch[i])
			s.logger.Debug("FCM token failed", "error", r.Error)
		}
	}
	return report, nil
}

// LogPusher logs sends instead of delivering them. Used when FCM is not
// configured so the triggers still run end to end.
type LogPusher struct {
	Logger *slog.Logger
}

// SendMulti logs the multicast and reports every token as delivered.
func (p LogPusher) SendMulti(_ context.Context, tokens []string, msg Message) (Report, error) {
	p.Logger.Info("Push (FCM disabled)",
		"tokens", len(tokens), "title", msg.Title, "body", msg.Body)
	return Report{Tokens: len(tokens), Success: len(tokens)}, nil
}
