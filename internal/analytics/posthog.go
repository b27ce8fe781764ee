// Package analytics reads traffic summaries from the PostHog API for the
// admin dashboard. Every failure degrades to an empty result.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/diewo77/client-ledger/internal/cache"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const (
	cacheTTL       = 5 * time.Minute
	requestTimeout = 10 * time.Second

	pageviewsTotal = `[{"id":"$pageview","math":"total"}]`
	pageviewsDAU   = `[{"id":"$pageview","math":"dau"}]`
)

var projectIDRe = regexp.MustCompile(`^[0-9]+$`)

// ErrInvalidProject is returned for project ids that are not numeric.
var ErrInvalidProject = errors.New("invalid project id")

// Summary is a seven-day traffic series of one project.
type Summary struct {
	Dates          []string  `json:"dates"`
	Pageviews      []float64 `json:"pageviews"`
	UniqueUsers    []float64 `json:"uniqueUsers"`
	TotalPageviews float64   `json:"totalPageviews"`
	TotalUsers     float64   `json:"totalUsers"`
}

func emptySummary() Summary {
	return Summary{Dates: []string{}, Pageviews: []float64{}, UniqueUsers: []float64{}}
}

// ProjectSummary is the last-24h activity of one project.
type ProjectSummary struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ActiveUsers float64 `json:"activeUsers"`
	TotalEvents int64   `json:"totalEvents"`
}

// Client queries PostHog with a personal API key.
type Client struct {
	host      string
	apiKey    string
	http      *http.Client
	log       logrus.FieldLogger
	summaries *cache.TTL[string, Summary]
	projects  *cache.TTL[string, []ProjectSummary]
}

// NewClient creates a client for host (e.g. https://us.posthog.com).
func NewClient(host, apiKey string, log logrus.FieldLogger) *Client {
	return &Client{
		host:      host,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: requestTimeout},
		log:       log,
		summaries: cache.New[string, Summary](cacheTTL),
		projects:  cache.New[string, []ProjectSummary](cacheTTL),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool { return c.apiKey != "" }

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if !c.Configured() {
		return nil, errors.New("posthog api key not configured")
	}
	u := c.host + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posthog %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("posthog %s: read: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("posthog %s: status %d", path, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("posthog %s: invalid json", path)
	}
	return body, nil
}

func trendQuery(events, dateFrom string) url.Values {
	return url.Values{
		"events":    {events},
		"display":   {"ActionsLineGraph"},
		"date_from": {dateFrom},
	}
}

func floats(r gjson.Result) []float64 {
	out := []float64{}
	r.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.Float())
		return true
	})
	return out
}

func sum(xs []float64) float64 {
	var t float64
	for _, x := range xs {
		t += x
	}
	return t
}

// Summary returns seven days of pageviews and unique users of projectID.
func (c *Client) Summary(ctx context.Context, projectID string) (Summary, error) {
	if !projectIDRe.MatchString(projectID) {
		return emptySummary(), ErrInvalidProject
	}
	s, err := c.summaries.GetOrLoad(ctx, projectID, func(ctx context.Context) (Summary, error) {
		return c.loadSummary(ctx, projectID)
	})
	if err != nil {
		c.log.WithError(err).WithField("project", projectID).Warn("analytics summary unavailable")
		return emptySummary(), nil
	}
	return s, nil
}

func (c *Client) loadSummary(ctx context.Context, projectID string) (Summary, error) {
	path := "/api/projects/" + projectID + "/insights/trend/"
	var pv, uu []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		pv, err = c.get(gctx, path, trendQuery(pageviewsTotal, "-7d"))
		return err
	})
	g.Go(func() (err error) {
		uu, err = c.get(gctx, path, trendQuery(pageviewsDAU, "-7d"))
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	s := emptySummary()
	gjson.GetBytes(pv, "result.0.labels").ForEach(func(_, v gjson.Result) bool {
		s.Dates = append(s.Dates, v.String())
		return true
	})
	s.Pageviews = floats(gjson.GetBytes(pv, "result.0.data"))
	s.UniqueUsers = floats(gjson.GetBytes(uu, "result.0.data"))
	s.TotalPageviews = sum(s.Pageviews)
	s.TotalUsers = sum(s.UniqueUsers)
	return s, nil
}

// Projects lists every project with its last-24h daily active users. The
// per-project trends are fetched in parallel; a failed trend counts as zero.
func (c *Client) Projects(ctx context.Context) []ProjectSummary {
	p, err := c.projects.GetOrLoad(ctx, "all", c.loadProjects)
	if err != nil {
		c.log.WithError(err).Warn("analytics projects unavailable")
		return []ProjectSummary{}
	}
	return p
}

func (c *Client) loadProjects(ctx context.Context) ([]ProjectSummary, error) {
	body, err := c.get(ctx, "/api/projects/", nil)
	if err != nil {
		return nil, err
	}
	results := gjson.GetBytes(body, "results").Array()
	out := make([]ProjectSummary, len(results))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, r := range results {
		out[i] = ProjectSummary{ID: r.Get("id").Int(), Name: r.Get("name").String()}
		g.Go(func() error {
			path := fmt.Sprintf("/api/projects/%d/insights/trend/", out[i].ID)
			trend, err := c.get(gctx, path, url.Values{"events": {pageviewsDAU}, "date_from": {"-1d"}})
			if err != nil {
				c.log.WithError(err).WithField("project", out[i].ID).Debug("project trend unavailable")
				return nil
			}
			out[i].ActiveUsers = gjson.GetBytes(trend, "result.0.count").Float()
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}
