package notifications

import (
	"context"
	"log/slog"

	"github.com/gloriosas/wellness/internal/team"
)

// dispatch deduplicates tokens and sends one multicast. It never returns an
// error: a failed send is logged and counted, the triggering record is
// already stored.
func dispatch(ctx context.Context, pusher Pusher, logger *slog.Logger, site string, msg Message, tokens []string) Report {
	unique := Dedupe(tokens)
	if len(unique) == 0 {
		logger.Info("Nothing to send", "site", site)
		return Report{}
	}

	sendCtx, cancel := context.WithTimeout(ctx, pushSendTimeout)
	defer cancel()

	report, err := pusher.SendMulti(sendCtx, unique, msg)
	if err != nil {
		logger.Error("Push send failed",
			"site", site, "tokens", len(unique), "error", err)
		return Report{Tokens: len(unique), Failure: len(unique), Failed: unique}
	}

	logger.Info("Push dispatched",
		"site", site, "title", msg.Title,
		"tokens", len(unique), "success", report.Success, "failure", report.Failure)
	if report.Failure > 0 {
		logger.Warn("Some push deliveries failed",
			"site", site, "failure", report.Failure)
	}
	return report
}

// tokensOf collects every token of users, logging those who have none.
func tokensOf(users []team.User, logger *slog.Logger) []string {
	var tokens []string
	for _, u := range users {
		if !u.HasTokens() {
			logger.Debug("User has no push tokens", "user", u.Name, "role", u.Role)
			continue
		}
		tokens = append(tokens, u.Tokens...)
	}
	return tokens
}
