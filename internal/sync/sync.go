// Package sync implements the incremental synchronization run: acquire a
// usable token, page through activities created after the stored watermark,
// upsert each one, enrich newly inserted runs with their splits, and advance
// the cursor only when the whole run succeeded.
package sync

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jbaldivieso/coach/internal/client"
	"github.com/jbaldivieso/coach/internal/credentials"
	"github.com/jbaldivieso/coach/internal/model"
	"github.com/jbaldivieso/coach/internal/store"
	"github.com/jbaldivieso/coach/internal/strava"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const defaultPerPage = 200

// TokenSource produces a usable access token, refreshing it if needed.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Options tune a sync run.
type Options struct {
	// FetchSplits enables the per-run detail fetch for running activities.
	FetchSplits bool
	// PerPage caps the listing page size. Zero means the API maximum.
	PerPage int
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Summary reports what a run did. On failure it describes the partial
// progress made before the run aborted.
type Summary struct {
	Pages          int
	Fetched        int
	New            int
	Skipped        int
	Splits         int
	Watermark      time.Time
	RunStart       time.Time
	CursorAdvanced bool
}

type Syncer struct {
	store  *store.Store
	tokens TokenSource
	log    logrus.FieldLogger
	opts   Options
}

func New(st *store.Store, tokens TokenSource, log logrus.FieldLogger, opts Options) *Syncer {
	if opts.PerPage <= 0 {
		opts.PerPage = defaultPerPage
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Syncer{store: st, tokens: tokens, log: log, opts: opts}
}

// Run performs one sync. The watermark is fixed for the whole run and the
// cursor is written exactly once, at the end, with the instant the run
// started, so an aborted run leaves the next one to re-fetch the same window
// and re-upsert already-present records as no-ops.
func (s *Syncer) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	watermark, ok, err := s.store.Cursor()
	if err != nil {
		return sum, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if !ok {
		watermark = defaultWatermark(s.opts.Now())
		s.log.WithField("watermark", watermark).Info("no cursor found, starting initial sync")
	} else {
		s.log.WithField("watermark", watermark).Info("starting incremental sync")
	}
	sum.Watermark = watermark
	sum.RunStart = s.opts.Now().UTC().Truncate(time.Second)

	token, err := s.tokens.Token(ctx)
	if err != nil {
		if errors.Is(err, credentials.ErrRefreshFailed) {
			return sum, fmt.Errorf("%w: %v", ErrCredential, err)
		}
		return sum, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	api, err := newAPIClient(ctx, token)
	if err != nil {
		return sum, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	pages := strava.NewPages(api, watermark.Unix(), s.opts.PerPage)
	for {
		batch, err := pages.Next(ctx)
		if err != nil {
			return sum, fmt.Errorf("%w: page %d: %v", ErrUpstream, sum.Pages+1, err)
		}
		if batch == nil {
			break
		}
		sum.Pages++

		for i := range batch {
			if err := s.process(ctx, api, &batch[i], sum); err != nil {
				return sum, err
			}
		}
	}

	if err := s.store.SetCursor(sum.RunStart); err != nil {
		return sum, fmt.Errorf("%w: %v", ErrStore, err)
	}
	sum.CursorAdvanced = true

	s.log.WithFields(logrus.Fields{
		"fetched": sum.Fetched,
		"new":     sum.New,
		"splits":  sum.Splits,
		"cursor":  sum.RunStart,
	}).Info("sync complete")

	return sum, nil
}

// process upserts one fetched record and, for a newly inserted run, fetches
// and persists its splits. Detail failures are logged and swallowed:
// enrichment is best-effort and the parent activity is kept regardless.
func (s *Syncer) process(ctx context.Context, api *client.Client, raw *strava.SummaryActivity, sum *Summary) error {
	sum.Fetched++

	activity, err := mapActivity(raw)
	if err != nil {
		sum.Skipped++
		s.log.WithError(err).WithField("strava_id", raw.ID).Warn("skipping malformed activity")
		return nil
	}

	id, inserted, err := s.store.UpsertActivity(activity)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if !inserted {
		return nil
	}
	sum.New++

	if !s.opts.FetchSplits || !strava.IsRun(raw.Sport()) {
		return nil
	}

	detail, err := strava.GetActivityDetail(ctx, api, raw.ID)
	if err != nil {
		s.log.WithError(err).WithField("strava_id", raw.ID).Warn("detail fetch failed, keeping activity without splits")
		return nil
	}

	n, err := s.store.InsertSplits(id, mapSplits(detail.SplitsMetric))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	sum.Splits += n

	return nil
}

// defaultWatermark is the window start for a first ever run: the beginning
// of the current calendar year.
func defaultWatermark(now time.Time) time.Time {
	return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

func newAPIClient(ctx context.Context, token string) (*client.Client, error) {
	u, err := url.Parse(strava.BaseURL)
	if err != nil {
		return nil, err
	}

	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	hc.Timeout = 30 * time.Second
	return client.NewClient(u, hc), nil
}

// mapActivity converts a remote payload to a database row. A record missing
// its id, name or start instant is malformed and reported for skipping.
func mapActivity(raw *strava.SummaryActivity) (*model.Activity, error) {
	if raw.ID == 0 {
		return nil, errors.New("missing activity id")
	}
	if raw.Name == "" {
		return nil, errors.New("missing activity name")
	}
	if raw.StartDateLocal.IsZero() {
		return nil, errors.New("missing start date")
	}

	return &model.Activity{
		StravaID:           raw.ID,
		Name:               raw.Name,
		StartDateLocal:     raw.StartDateLocal,
		SportType:          raw.Sport(),
		WorkoutType:        raw.WorkoutType,
		Distance:           raw.Distance,
		MovingTime:         raw.MovingTime,
		ElapsedTime:        raw.ElapsedTime,
		TotalElevationGain: raw.TotalElevationGain,
		ElevHigh:           raw.ElevHigh,
		ElevLow:            raw.ElevLow,
		AverageSpeed:       raw.AverageSpeed,
		MaxSpeed:           raw.MaxSpeed,
		HasHeartrate:       raw.HasHeartrate,
		AverageHeartrate:   raw.AverageHeartrate,
		MaxHeartrate:       raw.MaxHeartrate,
		SufferScore:        raw.SufferScore,
		Calories:           raw.Calories,
		PerceivedExertion:  raw.PerceivedExertion,
		DeviceName:         raw.DeviceName,
		Trainer:            raw.Trainer,
		Commute:            raw.Commute,
		Description:        raw.Description,
	}, nil
}

func mapSplits(raw []strava.Split) []model.ActivitySplit {
	splits := make([]model.ActivitySplit, 0, len(raw))
	for _, sp := range raw {
		splits = append(splits, model.ActivitySplit{
			SplitNumber:               sp.Split,
			SplitType:                 "metric",
			Distance:                  sp.Distance,
			ElapsedTime:               sp.ElapsedTime,
			MovingTime:                sp.MovingTime,
			ElevationDifference:       sp.ElevationDifference,
			AverageSpeed:              sp.AverageSpeed,
			AverageGradeAdjustedSpeed: sp.AverageGradeAdjustedSpeed,
			AverageHeartrate:          sp.AverageHeartrate,
			PaceZone:                  sp.PaceZone,
		})
	}
	return splits
}
