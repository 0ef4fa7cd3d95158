package gateway

import (
	"net/http"
	"strings"
	"time"

	"github.com/CosmoTheDev/prreview-agent/internal/review"
	"github.com/CosmoTheDev/prreview-agent/models"
)

// buildHandler wires all REST routes onto a new ServeMux.
// Uses Go 1.22+ method-prefixed patterns ("GET /path", "POST /path").
func buildHandler(gw *Gateway) http.Handler {
	mux := http.NewServeMux()

	// Health / status
	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.HandleFunc("GET /api/status", gw.handleStatus)

	// Pull requests
	mux.HandleFunc("GET /api/prs", gw.handleListPRs)
	mux.HandleFunc("GET /api/prs/needing-review", gw.handleNeedingReview)
	mux.HandleFunc("GET /api/prs/{id}", gw.handleGetPR)
	mux.HandleFunc("GET /api/prs/{id}/changes", gw.handleGetChanges)
	mux.HandleFunc("GET /api/prs/{id}/analysis", gw.handleAnalysis)

	// Review operations
	mux.HandleFunc("POST /api/review", gw.handleReview)
	mux.HandleFunc("POST /api/review/all", gw.handleReviewAll)
	mux.HandleFunc("POST /api/prs/{id}/approve", gw.handleApprove)
	mux.HandleFunc("POST /api/prs/{id}/reject", gw.handleReject)

	// Review history (read-only)
	mux.HandleFunc("GET /api/history", gw.handleHistory)

	return mux
}

func (gw *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	gw.mu.Lock()
	uptime := time.Since(gw.startedAt)
	gw.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(uptime.Seconds()),
	})
}

func (gw *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	status := map[string]any{
		"provider":       gw.provider.Name(),
		"started_at":     gw.startedAt.UTC().Format(time.RFC3339),
		"reviews_run":    gw.reviewsRun,
		"reviews_failed": gw.reviewsFailed,
	}
	if !gw.lastReviewAt.IsZero() {
		status["last_review_at"] = gw.lastReviewAt.UTC().Format(time.RFC3339)
	}
	if gw.lastReviewError != "" {
		status["last_review_error"] = gw.lastReviewError
	}
	writeJSON(w, http.StatusOK, status)
}

func (gw *Gateway) handleListPRs(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "active"
	}
	prs, err := gw.provider.ListPullRequests(r.Context(), gw.repoFromRequest(r), status)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pull_requests": prs, "count": len(prs)})
}

func (gw *Gateway) handleNeedingReview(w http.ResponseWriter, r *http.Request) {
	prs, err := gw.provider.PullRequestsNeedingReview(r.Context(), gw.repoFromRequest(r))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pull_requests": prs, "count": len(prs)})
}

func (gw *Gateway) handleGetPR(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pr, err := gw.provider.GetPullRequest(r.Context(), gw.repoFromRequest(r), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

// changeSummary is the content-free projection served by the changes
// endpoint; full file content stays inside the pipeline.
type changeSummary struct {
	Path       string            `json:"path"`
	ChangeType models.ChangeType `json:"change_type"`
	IsTestFile bool              `json:"is_test_file"`
	NewBytes   int               `json:"new_bytes"`
}

func (gw *Gateway) handleGetChanges(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	changes, err := gw.provider.GetChanges(r.Context(), gw.repoFromRequest(r), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	out := make([]changeSummary, 0, len(changes))
	for _, c := range changes {
		out = append(out, changeSummary{
			Path:       c.Path,
			ChangeType: c.ChangeType,
			IsTestFile: c.IsTestFile,
			NewBytes:   len(c.NewContent),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"changes": out, "count": len(out)})
}

func (gw *Gateway) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	insp, err := gw.engine.Inspect(r.Context(), gw.repoFromRequest(r), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if r.URL.Query().Get("prompt") != "true" {
		insp.Prompt = ""
	}
	writeJSON(w, http.StatusOK, insp)
}

type reviewRequest struct {
	Repository  string `json:"repository,omitempty"`
	PullRequest int    `json:"pull_request"`
	DryRun      bool   `json:"dry_run,omitempty"`
}

func (gw *Gateway) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PullRequest <= 0 {
		writeError(w, http.StatusBadRequest, "pull_request is required")
		return
	}
	repo := gw.repoFromRequest(r)
	if req.Repository != "" {
		repo.Name = req.Repository
	}

	var (
		res *review.Result
		err error
	)
	if req.DryRun {
		res, err = gw.engine.Preview(r.Context(), repo, req.PullRequest)
	} else {
		res, err = gw.engine.ReviewPR(r.Context(), repo, req.PullRequest)
		gw.recordRun(err)
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type reviewAllRequest struct {
	Repository string `json:"repository,omitempty"`
}

func (gw *Gateway) handleReviewAll(w http.ResponseWriter, r *http.Request) {
	var req reviewAllRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	repo := gw.repoFromRequest(r)
	if req.Repository != "" {
		repo.Name = req.Repository
	}

	results, err := gw.engine.ReviewAll(r.Context(), repo)
	gw.recordRun(err)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results, "count": len(results)})
}

type approveRequest struct {
	Comment string `json:"comment,omitempty"`
}

func (gw *Gateway) handleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req approveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pr, err := gw.engine.Approve(r.Context(), gw.repoFromRequest(r), id, req.Comment)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"approved": true, "pull_request": pr})
}

type rejectRequest struct {
	Reason         string `json:"reason"`
	RequireChanges bool   `json:"require_changes,omitempty"`
}

func (gw *Gateway) handleReject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req rejectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pr, err := gw.engine.Reject(r.Context(), gw.repoFromRequest(r), id, req.Reason, req.RequireChanges)
	if err != nil {
		status := http.StatusBadGateway
		if strings.Contains(err.Error(), "detailed reason") {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rejected": true, "pull_request": pr})
}

func (gw *Gateway) handleHistory(w http.ResponseWriter, r *http.Request) {
	if gw.store == nil {
		writeError(w, http.StatusServiceUnavailable, "history store not configured")
		return
	}
	limit := queryInt(r, "limit", "page_size", 50)
	records, err := gw.store.List(r.Context(), r.URL.Query().Get("repository"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": records, "count": len(records)})
}
