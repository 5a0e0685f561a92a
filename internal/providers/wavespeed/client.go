package wavespeed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"contentgen/internal/domain"
	"contentgen/internal/infra"
)

const (
	defaultBaseURL   = "https://api.wavespeed.ai/api/v3"
	defaultImagePath = "bytedance/seedream-v3"
	defaultVideoPath = "wavespeed-ai/wan-2.2/t2v-480p-ultra-fast"

	maxDetailLen = 512
)

// AssetWriter persists downloaded media. It is satisfied by storage.FileStore.
type AssetWriter interface {
	WriteFile(ctx context.Context, dir, name string, data []byte) (string, error)
	WriteText(ctx context.Context, dir, name, text string) (string, error)
}

// Options configures the WaveSpeed client.
type Options struct {
	APIKey         string
	BaseURL        string
	ImageModelPath string
	VideoModelPath string
	HTTPClient     *http.Client
	Writer         AssetWriter
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client submits render jobs to WaveSpeed and polls them to completion.
type Client struct {
	apiKey     string
	baseURL    string
	imagePath  string
	videoPath  string
	httpClient *http.Client
	writer     AssetWriter
	logger     *infra.Logger
}

// ImageRequest describes a still image render.
type ImageRequest struct {
	Prompt string
	Width  int
	Height int
}

// VideoRequest describes a text-to-video render.
type VideoRequest struct {
	Prompt      string
	AspectRatio string
	Duration    int
	CameraFixed bool
}

// AwaitOptions controls polling and where a completed image is written.
// Dir empty means the result URL is returned without downloading.
type AwaitOptions struct {
	Policy   PollPolicy
	Dir      string
	FileName string
}

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		ID      string   `json:"id"`
		Status  string   `json:"status"`
		Outputs []string `json:"outputs"`
		Error   string   `json:"error"`
	} `json:"data"`
}

// NewClient constructs a client with defaults applied.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	imagePath := strings.Trim(opts.ImageModelPath, "/")
	if imagePath == "" {
		imagePath = defaultImagePath
	}
	videoPath := strings.Trim(opts.VideoModelPath, "/")
	if videoPath == "" {
		videoPath = defaultVideoPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		imagePath:  imagePath,
		videoPath:  videoPath,
		httpClient: httpClient,
		writer:     opts.Writer,
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// SubmitImage queues an image render and returns the created job.
func (c *Client) SubmitImage(ctx context.Context, req ImageRequest) (*domain.GenerationJob, error) {
	width, height := req.Width, req.Height
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	payload := map[string]any{
		"prompt":               strings.TrimSpace(req.Prompt),
		"size":                 fmt.Sprintf("%d*%d", width, height),
		"guidance_scale":       2.5,
		"seed":                 -1,
		"enable_base64_output": false,
		"enable_sync_mode":     false,
	}
	return c.submit(ctx, domain.JobKindImage, c.imagePath, payload)
}

// SubmitVideo queues a video render and returns the created job.
func (c *Client) SubmitVideo(ctx context.Context, req VideoRequest) (*domain.GenerationJob, error) {
	aspect := strings.TrimSpace(req.AspectRatio)
	if aspect == "" {
		aspect = DefaultVideoAspect
	}
	duration := req.Duration
	if duration <= 0 {
		duration = DefaultVideoDuration
	}
	payload := map[string]any{
		"prompt":       strings.TrimSpace(req.Prompt),
		"aspect_ratio": aspect,
		"duration":     duration,
		"camera_fixed": req.CameraFixed,
		"seed":         -1,
	}
	return c.submit(ctx, domain.JobKindVideo, c.videoPath, payload)
}

func (c *Client) submit(ctx context.Context, kind domain.JobKind, modelPath string, payload map[string]any) (*domain.GenerationJob, error) {
	op := "wavespeed: submit " + string(kind)
	if prompt, _ := payload["prompt"].(string); prompt == "" {
		return nil, domain.NewValidationError(op, "prompt is required")
	}
	if !c.HasCredentials() {
		return nil, &domain.JobError{Kind: domain.ErrSubmission, Op: op, Detail: "api key is required"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &domain.JobError{Kind: domain.ErrSubmission, Op: op, Detail: "encode request", Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+modelPath, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.JobError{Kind: domain.ErrSubmission, Op: op, Detail: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logFailure(kind, "", domain.ErrSubmission, err)
		return nil, &domain.JobError{Kind: domain.ErrSubmission, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.JobError{Kind: domain.ErrSubmission, Op: op, StatusCode: resp.StatusCode, Detail: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		jobErr := &domain.JobError{Kind: domain.ErrSubmission, Op: op, StatusCode: resp.StatusCode, Detail: excerpt(raw)}
		c.logFailure(kind, "", domain.ErrSubmission, jobErr)
		return nil, jobErr
	}

	var decoded envelope
	if err := json.Unmarshal(raw, &decoded); err != nil {
		jobErr := &domain.JobError{Kind: domain.ErrProtocol, Op: op, StatusCode: resp.StatusCode, Detail: "decode response", Err: err}
		c.logFailure(kind, "", domain.ErrProtocol, jobErr)
		return nil, jobErr
	}
	jobID := strings.TrimSpace(decoded.Data.ID)
	if jobID == "" {
		jobErr := &domain.JobError{Kind: domain.ErrProtocol, Op: op, StatusCode: resp.StatusCode, Detail: "response has no job id"}
		c.logFailure(kind, "", domain.ErrProtocol, jobErr)
		return nil, jobErr
	}

	job := &domain.GenerationJob{
		ID:          jobID,
		Kind:        kind,
		Request:     payload,
		Status:      domain.JobStatusQueued,
		SubmittedAt: time.Now().UTC(),
	}
	c.logger.Info().
		Str("job_id", jobID).
		Str("kind", string(kind)).
		Msg("wavespeed: job submitted")
	return job, nil
}

// AwaitCompletion polls the job until it reaches a terminal state or the
// policy budget runs out. Poll failures are retried within the budget.
func (c *Client) AwaitCompletion(ctx context.Context, job *domain.GenerationJob, opts AwaitOptions) (*domain.MediaResult, error) {
	if job == nil || strings.TrimSpace(job.ID) == "" {
		return nil, domain.NewValidationError("wavespeed: await", "job id is required")
	}
	policy := opts.Policy.normalized()
	op := "wavespeed: await " + string(job.Kind)
	started := time.Now()

	for attempt := 1; ; attempt++ {
		status, err := c.poll(ctx, job.ID)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			c.logger.Warn().
				Err(err).
				Str("job_id", job.ID).
				Int("attempt", attempt).
				Msg("wavespeed: poll failed, retrying")
		default:
			job.Status = domain.ParseJobStatus(status.Status)
			switch job.Status {
			case domain.JobStatusCompleted:
				return c.complete(ctx, job, status.Outputs, opts)
			case domain.JobStatusFailed:
				detail := strings.TrimSpace(status.Error)
				if detail == "" {
					detail = "unknown error"
				}
				job.Error = detail
				c.logFailure(job.Kind, job.ID, domain.ErrGeneration, errors.New(detail))
				return nil, &domain.JobError{Kind: domain.ErrGeneration, Op: op, JobID: job.ID, Detail: detail}
			}
		}

		if policy.MaxAttempts > 0 && attempt >= policy.MaxAttempts {
			return nil, c.timeout(job, op, fmt.Sprintf("no terminal status after %d polls", attempt))
		}
		wait := policy.delay(attempt)
		if policy.Timeout > 0 && time.Since(started)+wait > policy.Timeout {
			return nil, c.timeout(job, op, fmt.Sprintf("no terminal status within %s", policy.Timeout))
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) timeout(job *domain.GenerationJob, op, detail string) error {
	job.Error = detail
	c.logFailure(job.Kind, job.ID, domain.ErrTimeout, errors.New(detail))
	return &domain.JobError{Kind: domain.ErrTimeout, Op: op, JobID: job.ID, Detail: detail}
}

type pollStatus struct {
	Status  string
	Outputs []string
	Error   string
}

func (c *Client) poll(ctx context.Context, jobID string) (*pollStatus, error) {
	endpoint := c.baseURL + "/predictions/" + url.PathEscape(jobID) + "/result"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("wavespeed: build poll request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wavespeed: poll request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wavespeed: read poll response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wavespeed: poll status %d: %s", resp.StatusCode, excerpt(raw))
	}
	var decoded envelope
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("wavespeed: decode poll response: %w", err)
	}
	return &pollStatus{
		Status:  decoded.Data.Status,
		Outputs: decoded.Data.Outputs,
		Error:   decoded.Data.Error,
	}, nil
}

func (c *Client) complete(ctx context.Context, job *domain.GenerationJob, outputs []string, opts AwaitOptions) (*domain.MediaResult, error) {
	op := "wavespeed: retrieve " + string(job.Kind)
	remote := firstOutputURL(outputs)
	if remote == "" {
		c.logFailure(job.Kind, job.ID, domain.ErrProtocol, errors.New("no outputs"))
		return nil, &domain.JobError{Kind: domain.ErrProtocol, Op: op, JobID: job.ID, Detail: "completed job has no outputs"}
	}
	result := &domain.MediaResult{RemoteURL: remote}
	job.Result = result

	if job.Kind != domain.JobKindImage || opts.Dir == "" || c.writer == nil {
		c.logger.Info().Str("job_id", job.ID).Str("url", remote).Msg("wavespeed: job completed")
		return result, nil
	}

	name := strings.TrimSpace(opts.FileName)
	if name == "" {
		name = job.ID + ".jpg"
	}
	data, err := c.download(ctx, remote)
	if err != nil {
		c.logFailure(job.Kind, job.ID, domain.ErrRetrieval, err)
		return nil, &domain.JobError{Kind: domain.ErrRetrieval, Op: op, JobID: job.ID, Err: err}
	}
	localPath, err := c.writer.WriteFile(ctx, opts.Dir, name, data)
	if err != nil {
		return nil, &domain.JobError{Kind: domain.ErrRetrieval, Op: op, JobID: job.ID, Detail: "persist media", Err: err}
	}
	if _, err := c.writer.WriteText(ctx, opts.Dir, sidecarName(name), remote+"\n"); err != nil {
		return nil, &domain.JobError{Kind: domain.ErrRetrieval, Op: op, JobID: job.ID, Detail: "persist source url", Err: err}
	}
	result.LocalPath = localPath
	c.logger.Info().
		Str("job_id", job.ID).
		Str("path", localPath).
		Int("bytes", len(data)).
		Msg("wavespeed: image downloaded")
	return result, nil
}

func (c *Client) download(ctx context.Context, mediaURL string) ([]byte, error) {
	parsed, err := url.Parse(mediaURL)
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("wavespeed: invalid media url: %s", mediaURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("wavespeed: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wavespeed: download media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("wavespeed: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wavespeed: read media: %w", err)
	}
	return data, nil
}

func (c *Client) logFailure(kind domain.JobKind, jobID string, errKind error, err error) {
	c.logger.Error().
		Err(err).
		Str("kind", string(kind)).
		Str("job_id", jobID).
		Str("error_kind", domain.KindOf(errKind)).
		Msg("wavespeed: job failed")
}

// sidecarName maps "post_image.jpg" to "post_image_url.txt".
func sidecarName(fileName string) string {
	base := strings.TrimSuffix(fileName, path.Ext(fileName))
	return base + "_url.txt"
}

func firstOutputURL(outputs []string) string {
	for _, o := range outputs {
		if u := strings.TrimSpace(o); u != "" {
			return u
		}
	}
	return ""
}

func excerpt(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > maxDetailLen {
		s = s[:maxDetailLen] + "..."
	}
	return s
}
