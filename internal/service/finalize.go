package service

import (
	"context"

	"github.com/Shivanand-hulikatti/supper-club/internal/apperr"
	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/notify"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// FinalizeResult is the outcome of closing a poll on a chosen date.
type FinalizeResult struct {
	Event        *model.Event       `json:"event"`
	ProposedDate model.ProposedDate `json:"proposedDate"`
	Tally        model.DateTally    `json:"tally"`
}

// Finalize fixes the event date to the selected proposed date and reopens
// the event for reservations. It succeeds at most once per poll: a second
// call sees the poll FINALIZED and fails with PollNotActive.
func (s *PollService) Finalize(ctx context.Context, eventID, hostID string, req model.FinalizePollRequest) (_ *FinalizeResult, err error) {
	ctx, span := tracer.Start(ctx, "PollService.Finalize")
	defer func() { finish(span, err) }()
	span.SetAttributes(
		attribute.String("event.id", eventID),
		attribute.String("proposed_date.id", req.SelectedProposedDateID),
	)

	if req.HostID != "" && req.HostID != hostID {
		return nil, apperr.New(apperr.CodeForbidden, "hostId does not match the signed-in user")
	}

	var (
		result     FinalizeResult
		respondent []model.AvailabilityResponse
	)
	err = s.deps.Store.WithEventLock(ctx, eventID, func(tx repository.EventTx) error {
		e := tx.Event()
		if !e.HostedBy(hostID) {
			return apperr.New(apperr.CodeForbidden, "only the host can finalize the poll")
		}
		if e.PollStatus != model.PollActive {
			return apperr.ErrPollNotActive
		}

		dates, err := tx.ListProposedDates(ctx)
		if err != nil {
			return err
		}
		var (
			chosen model.ProposedDate
			found  bool
		)
		for _, d := range dates {
			if d.ID == req.SelectedProposedDateID {
				chosen, found = d, true
				break
			}
		}
		if !found {
			return apperr.ErrInvalidProposedDate
		}
		at, err := chosen.StartsAt(s.deps.Location)
		if err != nil {
			return err
		}

		responses, err := tx.ListResponses(ctx)
		if err != nil {
			return err
		}
		tally := model.DateTally{ProposedDateID: chosen.ID}
		for _, r := range responses {
			if r.ProposedDateID == chosen.ID {
				tally.Add(r)
			}
		}

		if err := tx.FinalizePoll(ctx, at.UTC()); err != nil {
			return err
		}
		result = FinalizeResult{Event: tx.Event().Clone(), ProposedDate: chosen, Tally: tally}
		respondent = responses
		return nil
	})
	if err != nil {
		return nil, translate(err, "event not found")
	}

	notes := finalizeNotices(result.Event, respondent)
	s.deps.Notifier.Dispatch(ctx, notes...)

	s.deps.Log.Info("poll finalized",
		zap.String("event_id", eventID),
		zap.String("proposed_date_id", result.ProposedDate.ID),
		zap.Int("available", result.Tally.Available),
		zap.Int("notified", len(notes)),
	)
	return &result, nil
}

// finalizeNotices builds one notification per respondent that left an
// email address.
func finalizeNotices(event *model.Event, responses []model.AvailabilityResponse) []notify.Notification {
	seen := make(map[string]struct{})
	var out []notify.Notification
	for _, r := range responses {
		if r.GuestEmail == "" {
			continue
		}
		if _, ok := seen[r.ResponderKey]; ok {
			continue
		}
		seen[r.ResponderKey] = struct{}{}
		out = append(out, notify.Notification{
			Kind:       notify.PollFinalized,
			EventID:    event.ID,
			EventTitle: event.Title,
			EventDate:  event.Date,
			UserID:     r.UserID,
			Email:      r.GuestEmail,
			Name:       r.GuestName,
		})
	}
	return out
}

// Recommend picks the best date among options, which must already be in
// chronological order. The best date has the most firm (available and not
// tentative) answers; ties go to the most total answers, then to the
// earliest date. It returns "" when nobody has responded.
func Recommend(options []DateOption) string {
	var (
		best  *DateOption
		total int
	)
	for i := range options {
		o := &options[i]
		total += o.Tally.Total
		if best == nil ||
			o.Tally.Available > best.Tally.Available ||
			(o.Tally.Available == best.Tally.Available && o.Tally.Total > best.Tally.Total) {
			best = o
		}
	}
	if best == nil || total == 0 {
		return ""
	}
	return best.ID
}
