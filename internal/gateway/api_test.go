package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmoTheDev/prreview-agent/internal/config"
	"github.com/CosmoTheDev/prreview-agent/internal/posting"
	"github.com/CosmoTheDev/prreview-agent/internal/review"
	"github.com/CosmoTheDev/prreview-agent/models"
)

type stubProvider struct {
	prs     map[int]models.PullRequest
	changes map[int][]models.Change
	votes   []int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) ListPullRequests(ctx context.Context, repo models.Repository, status string) ([]models.PullRequest, error) {
	out := make([]models.PullRequest, 0, len(s.prs))
	for _, pr := range s.prs {
		out = append(out, pr)
	}
	return out, nil
}

func (s *stubProvider) PullRequestsNeedingReview(ctx context.Context, repo models.Repository) ([]models.PullRequest, error) {
	return s.ListPullRequests(ctx, repo, "active")
}

func (s *stubProvider) GetPullRequest(ctx context.Context, repo models.Repository, prID int) (*models.PullRequest, error) {
	pr, ok := s.prs[prID]
	if !ok {
		return nil, fmt.Errorf("pull request %d not found", prID)
	}
	return &pr, nil
}

func (s *stubProvider) GetChanges(ctx context.Context, repo models.Repository, prID int) ([]models.Change, error) {
	return s.changes[prID], nil
}

func (s *stubProvider) PostComment(ctx context.Context, repo models.Repository, prID int, c models.ConsolidatedComment) error {
	return nil
}

func (s *stubProvider) PostSummary(ctx context.Context, repo models.Repository, prID int, markdown string) error {
	return nil
}

func (s *stubProvider) SetVote(ctx context.Context, repo models.Repository, prID int, vote int) error {
	s.votes = append(s.votes, vote)
	return nil
}

func (s *stubProvider) AuthToken() string { return "" }

type stubAgent struct{ response string }

func (s *stubAgent) Name() string                         { return "stub" }
func (s *stubAgent) IsAvailable(ctx context.Context) bool { return true }
func (s *stubAgent) Review(ctx context.Context, prompt string) (string, error) {
	return s.response, nil
}

func testGateway(provider *stubProvider) *Gateway {
	cfg := &config.Config{}
	cfg.Hosting.Provider = "azure"
	cfg.Hosting.Azure.Org = "acme"
	cfg.Hosting.Azure.Project = "platform"
	agent := &stubAgent{response: `{"approved": true, "severity": "minor", "summary": "Fine"}`}
	engine := review.NewEngine(cfg, provider, agent, posting.NewOrchestrator(provider, posting.NewLedger()))
	return New(cfg, provider, engine, nil)
}

func doRequest(t *testing.T, gw *Gateway, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	buildHandler(gw).ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	gw := testGateway(&stubProvider{})

	rec := doRequest(t, gw, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleStatus(t *testing.T) {
	gw := testGateway(&stubProvider{})

	rec := doRequest(t, gw, http.MethodGet, "/api/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "stub", body["provider"])
	assert.EqualValues(t, 0, body["reviews_run"])
}

func TestHandleGetPR(t *testing.T) {
	provider := &stubProvider{prs: map[int]models.PullRequest{12: {ID: 12, Title: "Add caching"}}}
	gw := testGateway(provider)

	rec := doRequest(t, gw, http.MethodGet, "/api/prs/12", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var pr models.PullRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pr))
	assert.Equal(t, "Add caching", pr.Title)
}

func TestHandleGetPRNotFound(t *testing.T) {
	gw := testGateway(&stubProvider{prs: map[int]models.PullRequest{}})

	rec := doRequest(t, gw, http.MethodGet, "/api/prs/99", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleReviewDryRun(t *testing.T) {
	provider := &stubProvider{
		prs: map[int]models.PullRequest{12: {ID: 12, Title: "Add caching"}},
		changes: map[int][]models.Change{12: {{
			Path:       "src/cache.go",
			ChangeType: models.ChangeAdd,
			NewContent: "package cache\n",
		}}},
	}
	gw := testGateway(provider)

	rec := doRequest(t, gw, http.MethodPost, "/api/review", `{"pull_request": 12, "dry_run": true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var res review.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 10, res.Vote)
	assert.Empty(t, provider.votes, "dry run must not vote")
}

func TestHandleReviewPublishes(t *testing.T) {
	provider := &stubProvider{
		prs: map[int]models.PullRequest{12: {ID: 12, Title: "Add caching"}},
		changes: map[int][]models.Change{12: {{
			Path:       "src/cache.go",
			ChangeType: models.ChangeAdd,
			NewContent: "package cache\n",
		}}},
	}
	gw := testGateway(provider)

	rec := doRequest(t, gw, http.MethodPost, "/api/review", `{"pull_request": 12}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, provider.votes, 1)
	assert.Equal(t, 10, provider.votes[0])
}

func TestHandleReviewRequiresPR(t *testing.T) {
	gw := testGateway(&stubProvider{})

	rec := doRequest(t, gw, http.MethodPost, "/api/review", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRejectValidatesReason(t *testing.T) {
	provider := &stubProvider{prs: map[int]models.PullRequest{12: {ID: 12}}}
	gw := testGateway(provider)

	rec := doRequest(t, gw, http.MethodPost, "/api/prs/12/reject", `{"reason": "bad"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, provider.votes)
}

func TestHandleHistoryUnconfigured(t *testing.T) {
	gw := testGateway(&stubProvider{})

	rec := doRequest(t, gw, http.MethodGet, "/api/history", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
