package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/versemark/versemark/internal/common"
	"github.com/versemark/versemark/internal/models"
)

// HTTPAdapter talks JSON to the Versemark annotation API.
type HTTPAdapter struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ Adapter = (*HTTPAdapter)(nil)

type leveledSlog struct {
	inner *slog.Logger
}

// Intermediate retry failures are expected; log them at WARN, not ERROR.
func (l leveledSlog) Error(msg string, keysAndValues ...any) { l.inner.Warn(msg, keysAndValues...) }
func (l leveledSlog) Warn(msg string, keysAndValues ...any)  { l.inner.Warn(msg, keysAndValues...) }
func (l leveledSlog) Info(msg string, keysAndValues ...any)  { l.inner.Info(msg, keysAndValues...) }
func (l leveledSlog) Debug(msg string, keysAndValues ...any) { l.inner.Debug(msg, keysAndValues...) }

// retryPolicy retries connection errors and 5xx, but never 4xx: client
// errors are terminal rejections the sync engine must see.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// NewHTTPAdapter builds the adapter with a retrying HTTP client. Transient
// blips are absorbed in-call; anything that still fails is surfaced to the
// caller for a later sync pass.
func NewHTTPAdapter(baseURL, token string, logger *slog.Logger) *HTTPAdapter {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 3 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledSlog{inner: logger.With("subsystem", "remote")})
	retryClient.CheckRetry = retryPolicy

	client := retryClient.StandardClient()
	client.Timeout = 15 * time.Second

	return &HTTPAdapter{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: client,
	}
}

func (a *HTTPAdapter) doJSON(ctx context.Context, method, path string, reqBody, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.token)
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeError maps an HTTP status to the failure taxonomy: 408/429 and 5xx
// stay transient, any other 4xx is a terminal rejection.
func decodeError(resp *http.Response) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	msg := resp.Status
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr); err == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%s: %w", msg, common.ErrRemoteRejected)
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("remote busy (%d): %s", resp.StatusCode, msg)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%s: %w", msg, common.ErrRemoteRejected)
	default:
		return fmt.Errorf("remote error (%d): %s", resp.StatusCode, msg)
	}
}

func (a *HTTPAdapter) CreateRecord(ctx context.Context, rec *models.AnnotationRecord) (*CreateResult, error) {
	var res CreateResult
	if err := a.doJSON(ctx, http.MethodPost, "/v1/annotations", rec, &res); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return &res, nil
}

func (a *HTTPAdapter) UpdateRecord(ctx context.Context, rec *models.AnnotationRecord) (*UpdateResult, error) {
	var res UpdateResult
	path := "/v1/annotations/" + url.PathEscape(rec.ID)
	if err := a.doJSON(ctx, http.MethodPut, path, rec, &res); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	return &res, nil
}

func (a *HTTPAdapter) SoftDeleteRecord(ctx context.Context, id string) error {
	path := "/v1/annotations/" + url.PathEscape(id)
	if err := a.doJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("soft delete record: %w", err)
	}
	return nil
}

func (a *HTTPAdapter) ReplaceCrossReferences(ctx context.Context, id string, refs []models.CrossReference) error {
	path := "/v1/annotations/" + url.PathEscape(id) + "/refs"
	if refs == nil {
		refs = []models.CrossReference{}
	}
	if err := a.doJSON(ctx, http.MethodPut, path, refs, nil); err != nil {
		return fmt.Errorf("replace cross references: %w", err)
	}
	return nil
}

func (a *HTTPAdapter) FetchChapter(ctx context.Context, translation, book string, chapter int) ([]models.AnnotationRecord, error) {
	q := url.Values{}
	q.Set("translation", translation)
	q.Set("book", book)
	q.Set("chapter", strconv.Itoa(chapter))

	var res struct {
		Annotations []models.AnnotationRecord `json:"annotations"`
	}
	if err := a.doJSON(ctx, http.MethodGet, "/v1/annotations?"+q.Encode(), nil, &res); err != nil {
		return nil, fmt.Errorf("fetch chapter: %w", err)
	}

	// Authoritative records are synced by definition.
	for i := range res.Annotations {
		res.Annotations[i].SyncStatus = models.StatusSynced
	}
	return res.Annotations, nil
}

func (a *HTTPAdapter) Ping(ctx context.Context) error {
	return a.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}
