package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/supper-club/internal/apperr"
	"github.com/Shivanand-hulikatti/supper-club/internal/dategroup"
	"github.com/Shivanand-hulikatti/supper-club/internal/model"
	"github.com/Shivanand-hulikatti/supper-club/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// PollService runs availability polls: creating them, collecting
// responses and presenting the results. Finalizing lives in finalize.go.
type PollService struct {
	deps Deps
}

// NewPollService constructs a PollService.
func NewPollService(deps Deps) *PollService {
	return &PollService{deps: deps.withDefaults()}
}

// PollCreated is returned after a poll is opened.
type PollCreated struct {
	Event         *model.Event         `json:"event"`
	ProposedDates []model.ProposedDate `json:"proposedDates"`
}

// DateOption is a proposed date with its response tally.
type DateOption struct {
	model.ProposedDate
	Tally model.DateTally `json:"tally"`
}

// PollView is the read model of a poll.
type PollView struct {
	Event          *model.Event                 `json:"event"`
	Locale         string                       `json:"locale"`
	DeadlinePassed bool                         `json:"deadlinePassed"`
	Days           []dategroup.Day[DateOption]  `json:"days"`
	Responses      []model.AvailabilityResponse `json:"responses"`
	Respondents    int                          `json:"respondents"`
	Recommended    string                       `json:"recommendedProposedDateId,omitempty"`
}

// CreatePoll switches a dated-or-undated event into poll mode with the
// given candidate dates. An event can be polled once.
func (s *PollService) CreatePoll(ctx context.Context, eventID, hostID string, req model.CreatePollRequest) (_ *PollCreated, err error) {
	ctx, span := tracer.Start(ctx, "PollService.CreatePoll")
	defer func() { finish(span, err) }()
	span.SetAttributes(attribute.String("event.id", eventID), attribute.Int("proposed.count", len(req.ProposedDates)))

	now := s.deps.Now().UTC()
	dates, err := s.proposedDates(req.ProposedDates, now)
	if err != nil {
		return nil, err
	}
	if !req.PollDeadline.After(now) {
		return nil, apperr.New(apperr.CodeInvalidInput, "pollDeadline must be in the future")
	}

	var created PollCreated
	err = s.deps.Store.WithEventLock(ctx, eventID, func(tx repository.EventTx) error {
		e := tx.Event()
		if !e.HostedBy(hostID) {
			return apperr.New(apperr.CodeForbidden, "only the host can create a poll")
		}
		if e.PollEnabled {
			return apperr.New(apperr.CodePollAlreadyEnabled, "this event already has a poll")
		}
		if e.Status == model.EventCancelled || e.Status == model.EventCompleted {
			return apperr.New(apperr.CodeEventNotBookable, "event is "+strings.ToLower(string(e.Status)))
		}
		n, err := tx.ActiveReservationCount(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.New(apperr.CodeEventHasReservations, "cannot poll an event that already has reservations")
		}

		for i := range dates {
			dates[i].EventID = e.ID
		}
		if err := tx.EnablePoll(ctx, dates, req.PollDeadline.UTC()); err != nil {
			return err
		}
		created.Event = tx.Event().Clone()
		created.ProposedDates = dates
		return nil
	})
	if err != nil {
		return nil, translate(err, "event not found")
	}

	s.deps.Log.Info("poll created",
		zap.String("event_id", eventID),
		zap.Int("proposed_dates", len(dates)),
		zap.Time("deadline", req.PollDeadline),
	)
	return &created, nil
}

// proposedDates validates poll candidates: at least two, pairwise distinct,
// each in the future in the configured timezone.
func (s *PollService) proposedDates(in []model.ProposedDateInput, now time.Time) ([]model.ProposedDate, error) {
	if len(in) < 2 {
		return nil, apperr.New(apperr.CodeInvalidInput, "at least two proposed dates are required")
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]model.ProposedDate, 0, len(in))
	for _, d := range in {
		pd := model.ProposedDate{
			ID:        repository.NewID(),
			Date:      strings.TrimSpace(d.Date),
			Time:      strings.TrimSpace(d.Time),
			CreatedAt: now,
		}
		at, err := pd.StartsAt(s.deps.Location)
		if err != nil {
			return nil, apperr.New(apperr.CodeInvalidInput,
				fmt.Sprintf("proposed date %q %q is not a valid YYYY-MM-DD HH:MM", d.Date, d.Time))
		}
		if !at.After(now) {
			return nil, apperr.New(apperr.CodeInvalidInput, "proposed dates must be in the future")
		}
		key := pd.Date + " " + pd.Time
		if _, dup := seen[key]; dup {
			return nil, apperr.New(apperr.CodeInvalidInput, "proposed dates must be distinct")
		}
		seen[key] = struct{}{}
		out = append(out, pd)
	}
	return out, nil
}

// SubmitResponse records id's availability, replacing anything id
// submitted before. The poll state and deadline are checked before the
// payload so a late submission is always reported as late.
func (s *PollService) SubmitResponse(ctx context.Context, eventID string, id model.Identity, req model.SubmitResponsesRequest) (_ []model.AvailabilityResponse, err error) {
	ctx, span := tracer.Start(ctx, "PollService.SubmitResponse")
	defer func() { finish(span, err) }()
	span.SetAttributes(attribute.String("event.id", eventID))

	id, err = resolveIdentity(id, req.GuestInfo)
	if err != nil {
		return nil, err
	}

	now := s.deps.Now().UTC()
	var saved []model.AvailabilityResponse
	err = s.deps.Store.WithEventLock(ctx, eventID, func(tx repository.EventTx) error {
		e := tx.Event()
		if e.PollStatus != model.PollActive {
			return apperr.ErrPollNotActive
		}
		if e.PollDeadline != nil && now.After(*e.PollDeadline) {
			return apperr.ErrDeadlinePassed
		}

		if len(req.Responses) == 0 {
			return apperr.New(apperr.CodeInvalidInput, "at least one response is required")
		}
		dates, err := tx.ListProposedDates(ctx)
		if err != nil {
			return err
		}
		known := make(map[string]struct{}, len(dates))
		for _, d := range dates {
			known[d.ID] = struct{}{}
		}

		seen := make(map[string]struct{}, len(req.Responses))
		rs := make([]model.AvailabilityResponse, 0, len(req.Responses))
		for _, in := range req.Responses {
			if _, ok := known[in.ProposedDateID]; !ok {
				return apperr.ErrInvalidProposedDate
			}
			if _, dup := seen[in.ProposedDateID]; dup {
				return apperr.New(apperr.CodeInvalidInput, "each proposed date may be answered once per submission")
			}
			seen[in.ProposedDateID] = struct{}{}
			rs = append(rs, model.AvailabilityResponse{
				ID:             repository.NewID(),
				EventID:        e.ID,
				ProposedDateID: in.ProposedDateID,
				ResponderKey:   id.Key(),
				UserID:         id.UserID,
				GuestEmail:     model.NormalizeEmail(id.Email),
				GuestName:      strings.TrimSpace(id.Name),
				Available:      in.Available,
				Tentative:      in.Tentative,
				CreatedAt:      now,
			})
		}

		if err := tx.ReplaceResponses(ctx, id.Key(), rs); err != nil {
			return err
		}
		saved = rs
		return nil
	})
	if err != nil {
		return nil, translate(err, "event not found")
	}

	s.deps.Log.Info("poll response recorded",
		zap.String("event_id", eventID),
		zap.Bool("guest", id.IsGuest()),
		zap.Int("answers", len(saved)),
	)
	return saved, nil
}

// GetPoll returns the poll for eventID with dates grouped by day and
// labelled for locale. Respondent contact details are shown to the host
// only.
func (s *PollService) GetPoll(ctx context.Context, eventID string, viewer model.Identity, locale language.Tag) (*PollView, error) {
	event, err := s.deps.Store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, translate(err, "event not found")
	}
	if !event.PollEnabled {
		return nil, apperr.New(apperr.CodeNotFound, "this event has no poll")
	}

	dates, err := s.deps.Store.ListProposedDates(ctx, eventID)
	if err != nil {
		return nil, translate(err, "event not found")
	}
	responses, err := s.deps.Store.ListResponses(ctx, eventID)
	if err != nil {
		return nil, translate(err, "event not found")
	}

	formatter := dategroup.NewFormatter(locale)
	days, err := groupOptions(dates, responses, formatter)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	respondents := make(map[string]struct{})
	for _, r := range responses {
		respondents[r.ResponderKey] = struct{}{}
	}
	if !event.HostedBy(viewer.UserID) {
		for i := range responses {
			responses[i] = responses[i].Public()
		}
	}

	now := s.deps.Now().UTC()
	return &PollView{
		Event:  event,
		Locale: formatter.Tag().String(),
		DeadlinePassed: event.PollStatus == model.PollActive &&
			event.PollDeadline != nil && now.After(*event.PollDeadline),
		Days:        days,
		Responses:   responses,
		Respondents: len(respondents),
		Recommended: Recommend(dategroup.Flatten(days)),
	}, nil
}

// groupOptions tallies responses per proposed date and groups the result
// chronologically.
func groupOptions(dates []model.ProposedDate, responses []model.AvailabilityResponse, f *dategroup.Formatter) ([]dategroup.Day[DateOption], error) {
	tallies := make(map[string]*model.DateTally, len(dates))
	options := make([]DateOption, len(dates))
	for i, d := range dates {
		options[i] = DateOption{ProposedDate: d, Tally: model.DateTally{ProposedDateID: d.ID}}
		tallies[d.ID] = &options[i].Tally
	}
	for _, r := range responses {
		if t, ok := tallies[r.ProposedDateID]; ok {
			t.Add(r)
		}
	}
	return dategroup.Group(options, func(o DateOption) (string, string) {
		return o.Date, o.Time
	}, f)
}
