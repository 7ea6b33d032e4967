package discovery

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/concierge/internal/invite"
	"github.com/Veraticus/concierge/internal/model"
)

// Inviter sends a partner invite and returns its link.
type Inviter interface {
	Send(ctx context.Context, r invite.Request) (string, error)
}

// OutreachDispatcher invites the top high-priority candidates.
type OutreachDispatcher struct {
	inviter Inviter
	logger  *slog.Logger
}

// NewOutreachDispatcher creates a dispatcher.
func NewOutreachDispatcher(inviter Inviter, logger *slog.Logger) *OutreachDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutreachDispatcher{inviter: inviter, logger: logger}
}

// eligibleForOutreach returns the first three high-priority candidates that can be contacted.
func eligibleForOutreach(suggestions []model.CandidateSuggestion) []model.CandidateSuggestion {
	var out []model.CandidateSuggestion
	for _, s := range suggestions {
		if s.Priority != model.PriorityHigh {
			continue
		}
		if s.ValidatedEmail == "" && s.Website == "" {
			continue
		}
		out = append(out, s)
		if len(out) == maxOutreach {
			break
		}
	}
	return out
}

// Dispatch invites eligible candidates concurrently. Each result reports its own
// outcome; results are in candidate order.
func (d *OutreachDispatcher) Dispatch(ctx context.Context, suggestions []model.CandidateSuggestion) []model.OutreachResult {
	targets := eligibleForOutreach(suggestions)
	results := make([]model.OutreachResult, len(targets))

	var g errgroup.Group
	for i, s := range targets {
		g.Go(func() error {
			results[i] = d.dispatchOne(ctx, s)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (d *OutreachDispatcher) dispatchOne(ctx context.Context, s model.CandidateSuggestion) model.OutreachResult {
	result := model.OutreachResult{Company: s.CompanyName}

	email := s.ValidatedEmail
	if email == "" {
		email, _ = InferEmail(s.Website, s.CompanyName)
	}
	result.Email = email

	if !IsValidEmail(email) {
		result.Error = "no valid email"
		outreachAttemptsTotal.WithLabelValues("skipped").Inc()
		return result
	}
	if d.inviter == nil {
		result.Error = "outreach not configured"
		outreachAttemptsTotal.WithLabelValues("skipped").Inc()
		return result
	}

	link, err := d.inviter.Send(ctx, invite.Request{
		CompanyName:  s.CompanyName,
		Category:     string(s.Category),
		ContactEmail: email,
		Website:      s.Website,
		Notes:        s.MatchReason,
	})
	if err != nil {
		d.logger.Warn("partner invite failed",
			"company", s.CompanyName,
			"email", email,
			"error", err)
		result.Error = err.Error()
		outreachAttemptsTotal.WithLabelValues("failure").Inc()
		return result
	}

	d.logger.Info("partner invited",
		"company", s.CompanyName,
		"email", email)
	result.Success = true
	result.InviteLink = link
	outreachAttemptsTotal.WithLabelValues("success").Inc()
	return result
}
