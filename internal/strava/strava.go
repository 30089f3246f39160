// Package strava implements the read-side of the Strava API used by the sync
// engine: the athlete probe, the paginated activity listing and the per-activity
// detail fetch.
package strava

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jbaldivieso/coach/internal/client"
	"golang.org/x/oauth2"
)

var BaseURL = "https://www.strava.com/api/v3"

// NewOauthConfig returns the oauth2 config for the Strava token and authorize
// endpoints. The client id and secret come from the credential file, not the
// environment, so the config is built per call rather than held in a package var.
func NewOauthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://www.strava.com/oauth/authorize",
			TokenURL: "https://www.strava.com/oauth/token",
		},
		RedirectURL: "http://localhost",
		Scopes:      []string{"activity:read_all,profile:read_all"},
	}
}

// Athlete holds the few athlete fields we care about. Fetching it is the
// cheapest authenticated call the API offers, so it doubles as the token probe.
type Athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// SummaryActivity holds only the data we want from a Strava activity listing.
// Fields absent on manual entries (heart rate, effort) are pointers so their
// absence survives unmarshaling.
type SummaryActivity struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	StartDateLocal     time.Time `json:"start_date_local"`
	SportType          string    `json:"sport_type"`
	Type               string    `json:"type"`
	WorkoutType        *int      `json:"workout_type"`
	Distance           float64   `json:"distance"`
	MovingTime         int64     `json:"moving_time"`
	ElapsedTime        int64     `json:"elapsed_time"`
	TotalElevationGain float64   `json:"total_elevation_gain"`
	ElevHigh           *float64  `json:"elev_high"`
	ElevLow            *float64  `json:"elev_low"`
	AverageSpeed       float64   `json:"average_speed"`
	MaxSpeed           float64   `json:"max_speed"`
	HasHeartrate       bool      `json:"has_heartrate"`
	AverageHeartrate   *float64  `json:"average_heartrate"`
	MaxHeartrate       *float64  `json:"max_heartrate"`
	SufferScore        *float64  `json:"suffer_score"`
	Calories           *float64  `json:"calories"`
	PerceivedExertion  *float64  `json:"perceived_exertion"`
	DeviceName         string    `json:"device_name"`
	Trainer            bool      `json:"trainer"`
	Commute            bool      `json:"commute"`
	Description        string    `json:"description"`
}

// Sport returns the sport label, falling back to the legacy type field for
// activities recorded before Strava introduced sport_type.
func (a *SummaryActivity) Sport() string {
	if a.SportType != "" {
		return a.SportType
	}
	return a.Type
}

// DetailedActivity is a SummaryActivity plus the split collections only the
// detail endpoint returns.
type DetailedActivity struct {
	SummaryActivity
	SplitsMetric []Split `json:"splits_metric"`
}

// Split is one per-kilometre split of a run.
type Split struct {
	Split                     int      `json:"split"`
	Distance                  float64  `json:"distance"`
	ElapsedTime               int64    `json:"elapsed_time"`
	MovingTime                int64    `json:"moving_time"`
	ElevationDifference       *float64 `json:"elevation_difference"`
	AverageSpeed              float64  `json:"average_speed"`
	AverageGradeAdjustedSpeed *float64 `json:"average_grade_adjusted_speed"`
	AverageHeartrate          *float64 `json:"average_heartrate"`
	PaceZone                  *int     `json:"pace_zone"`
}

// IsRun reports whether a sport label is a foot-running activity. This is a
// deliberate literal substring match: "Run", "TrailRun" and "VirtualRun" all
// qualify because they contain "run", and nothing broader is inferred.
func IsRun(sport string) bool {
	return strings.Contains(strings.ToLower(sport), "run")
}

// GetAthlete fetches the authenticated athlete.
func GetAthlete(ctx context.Context, c *client.Client) (*Athlete, error) {
	var a Athlete
	req, err := c.NewRequest(ctx, http.MethodGet, "/api/v3/athlete", nil)
	if err != nil {
		return nil, fmt.Errorf("creating get athlete request: %w", err)
	}

	resp, err := c.Do(req, &a)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("getting athlete: %w", err)
	}

	return &a, nil
}

// ListActivities fetches a single page of the athlete's activities created
// strictly after the given unix timestamp.
func ListActivities(ctx context.Context, c *client.Client, page, perPage int, after int64) ([]SummaryActivity, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("after", strconv.FormatInt(after, 10))

	var activities []SummaryActivity
	req, err := c.NewRequest(ctx, http.MethodGet, "/api/v3/athlete/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating list activities request: %w", err)
	}

	resp, err := c.Do(req, &activities)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("listing activities page %d: %w", page, err)
	}

	return activities, nil
}

// GetActivityDetail fetches a single activity with its split collections.
func GetActivityDetail(ctx context.Context, c *client.Client, id int64) (*DetailedActivity, error) {
	var a DetailedActivity
	req, err := c.NewRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v3/activities/%d", id), nil)
	if err != nil {
		return nil, fmt.Errorf("creating get activity request: %w", err)
	}

	resp, err := c.Do(req, &a)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("getting activity %d: %w", id, err)
	}

	return &a, nil
}
