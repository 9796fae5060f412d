package download

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/Sternrassler/gbif-client/pkg/catalog"
	"github.com/Sternrassler/gbif-client/pkg/client"
	"github.com/Sternrassler/gbif-client/pkg/enum"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	gbifDownloadSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbif_download_submissions_total",
		Help: "Total download submissions by result",
	}, []string{"result"})

	gbifDownloadPollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gbif_download_polls_total",
		Help: "Total download status polls by observed status",
	}, []string{"status"})
)

const (
	requestEndpoint = "/occurrence/download/request"
	statusEndpoint  = "/occurrence/download"
	userEndpoint    = "/occurrence/download/user"

	// DefaultFormat is the archive format requested when none is given.
	DefaultFormat = "SIMPLE_CSV"

	// DefaultPollInterval is used when AwaitCompletion gets a non-positive interval.
	DefaultPollInterval = 10 * time.Second
)

// API is the subset of *client.Client the controller uses.
type API interface {
	GetJSON(ctx context.Context, endpoint string, query url.Values, v any) error
	Send(ctx context.Context, call client.Call) ([]byte, error)
	Stream(ctx context.Context, rawURL string) (*http.Response, error)
	Retry(ctx context.Context, op string, fn func(context.Context) error) error
}

// SubmitOptions tunes a download request.
type SubmitOptions struct {
	// Kind is the record kind to export. Only occurrence downloads exist;
	// the zero value means occurrence.
	Kind catalog.Kind

	// Format is an enum.DownloadFormat value. Defaults to DefaultFormat.
	Format string

	// NotificationAddresses receive an e-mail when the job finishes. When
	// empty and the credentials carry an Email, that address is used.
	NotificationAddresses []string

	SendNotification bool
}

// Controller drives download jobs. It keeps no per-job state; every status
// comes from the server.
type Controller struct {
	api       API
	validator *enum.Validator
	logger    zerolog.Logger
	now       func() time.Time
}

// NewController creates a Controller. A nil validator uses enum.Default.
func NewController(api API, validator *enum.Validator) *Controller {
	if validator == nil {
		validator = enum.Default()
	}
	return &Controller{
		api:       api,
		validator: validator,
		logger:    log.With().Str("component", "download").Logger(),
		now:       time.Now,
	}
}

type submitRequest struct {
	Creator               string    `json:"creator"`
	NotificationAddresses []string  `json:"notificationAddresses,omitempty"`
	SendNotification      bool      `json:"sendNotification"`
	Format                string    `json:"format"`
	Predicate             Predicate `json:"predicate"`
}

// Submit validates and submits a download request and returns the pending
// job. Credentials and the predicate are checked before any request is made.
// Submissions are not retried.
func (c *Controller) Submit(ctx context.Context, predicate Predicate, creds Credentials, opts SubmitOptions) (*Job, error) {
	if err := creds.Validate(); err != nil {
		gbifDownloadSubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	if opts.Kind != "" && opts.Kind != catalog.KindOccurrence {
		gbifDownloadSubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, &InvalidPredicateError{Path: "kind", Reason: "downloads are only available for occurrence records, not " + string(opts.Kind)}
	}

	format := opts.Format
	if format == "" {
		format = DefaultFormat
	}
	canonical, err := c.validator.Validate(enum.DownloadFormat, format)
	if err != nil {
		gbifDownloadSubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	format = canonical.(string)

	predicate, err = predicate.Normalize(c.validator)
	if err != nil {
		gbifDownloadSubmissionsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	notify := opts.NotificationAddresses
	if len(notify) == 0 && creds.Email != "" {
		notify = []string{creds.Email}
	}

	body, err := json.Marshal(submitRequest{
		Creator:               creds.Username,
		NotificationAddresses: notify,
		SendNotification:      opts.SendNotification && len(notify) > 0,
		Format:                format,
		Predicate:             predicate,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode download request")
	}

	resp, err := c.api.Send(ctx, client.Call{
		Method:      http.MethodPost,
		Endpoint:    requestEndpoint,
		Body:        body,
		ContentType: "application/json",
		Username:    creds.Username,
		Password:    creds.Password,
	})
	if err != nil {
		gbifDownloadSubmissionsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	key := strings.Trim(strings.TrimSpace(string(resp)), `"`)
	if key == "" {
		gbifDownloadSubmissionsTotal.WithLabelValues("failed").Inc()
		return nil, &client.DecodeError{Endpoint: requestEndpoint, Err: errors.New("empty download key")}
	}
	gbifDownloadSubmissionsTotal.WithLabelValues("accepted").Inc()

	c.logger.Info().
		Str("download_key", key).
		Str("format", format).
		Msg("Download submitted")

	return &Job{
		Key:       key,
		Status:    StatusPending,
		CreatedAt: c.now(),
		Format:    format,
	}, nil
}

type jobResponse struct {
	Key          string `json:"key"`
	DOI          string `json:"doi"`
	Status       string `json:"status"`
	Created      string `json:"created"`
	Modified     string `json:"modified"`
	DownloadLink string `json:"downloadLink"`
	Size         int64  `json:"size"`
	TotalRecords int64  `json:"totalRecords"`
	Request      struct {
		Format string `json:"format"`
	} `json:"request"`
}

func (r jobResponse) toJob() (*Job, error) {
	status, err := ParseServiceStatus(r.Status)
	if err != nil {
		return nil, err
	}
	job := &Job{
		Key:           r.Key,
		Status:        status,
		ServiceStatus: r.Status,
		CreatedAt:     parseServiceTime(r.Created),
		ModifiedAt:    parseServiceTime(r.Modified),
		Size:          r.Size,
		TotalRecords:  r.TotalRecords,
		Format:        r.Request.Format,
		DOI:           r.DOI,
	}
	if status == StatusSucceeded {
		job.ArtifactURL = r.DownloadLink
	}
	return job, nil
}

// Poll reads the job's current status. Transient failures are retried with
// the client's retry policy. An unknown key yields a *client.NotFoundError.
func (c *Controller) Poll(ctx context.Context, key string) (*Job, error) {
	if key == "" {
		return nil, errors.New("download key is required")
	}
	endpoint := statusEndpoint + "/" + url.PathEscape(key)

	var resp jobResponse
	err := c.api.Retry(ctx, "download poll", func(ctx context.Context) error {
		resp = jobResponse{}
		return c.api.GetJSON(ctx, endpoint, nil, &resp)
	})
	if err != nil {
		var nf *client.NotFoundError
		if errors.As(err, &nf) && nf.Resource == "" {
			nf.Resource = "download " + key
		}
		return nil, err
	}

	job, err := resp.toJob()
	if err != nil {
		return nil, &client.DecodeError{Endpoint: endpoint, Err: err}
	}
	if job.Key == "" {
		job.Key = key
	}
	gbifDownloadPollsTotal.WithLabelValues(string(job.Status)).Inc()

	c.logger.Debug().
		Str("download_key", key).
		Str("status", string(job.Status)).
		Str("service_status", job.ServiceStatus).
		Msg("Polled download")

	return job, nil
}

// AwaitCompletion polls every interval until the job is terminal. After
// timeout it returns a *TimeoutError carrying the last observed status; the
// job itself is not cancelled. Poll errors end the wait immediately.
func (c *Controller) AwaitCompletion(ctx context.Context, key string, interval, timeout time.Duration) (*Job, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	start := c.now()
	deadline := start.Add(timeout)

	for {
		job, err := c.Poll(ctx, key)
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			c.logger.Info().
				Str("download_key", key).
				Str("status", string(job.Status)).
				Dur("waited", c.now().Sub(start)).
				Msg("Download finished")
			return job, nil
		}

		remaining := deadline.Sub(c.now())
		if remaining <= 0 {
			c.logger.Warn().
				Str("download_key", key).
				Str("status", string(job.Status)).
				Dur("timeout", timeout).
				Msg("Gave up waiting for download")
			return nil, &TimeoutError{Key: key, LastStatus: job.Status, After: timeout}
		}

		wait := interval
		if wait > remaining {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.WithStack(ctx.Err())
		case <-timer.C:
		}
	}
}

// Cancel cancels a pending or running job and returns the job as the server
// reports it afterwards. A terminal job yields an *InvalidTransitionError
// and is left untouched.
func (c *Controller) Cancel(ctx context.Context, key string, creds Credentials) (*Job, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	job, err := c.Poll(ctx, key)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return nil, &InvalidTransitionError{Key: key, Op: "cancel", From: job.Status, To: StatusCancelled}
	}

	if _, err := c.api.Send(ctx, client.Call{
		Method:   http.MethodDelete,
		Endpoint: requestEndpoint + "/" + url.PathEscape(key),
		Username: creds.Username,
		Password: creds.Password,
	}); err != nil {
		return nil, err
	}

	c.logger.Info().Str("download_key", key).Str("from", string(job.Status)).Msg("Download cancellation requested")

	return c.Poll(ctx, key)
}

// Fetch streams the archive of a succeeded job into w and returns the bytes
// written. progress, when non-nil, is called as data arrives with the total
// size or -1 when unknown.
func (c *Controller) Fetch(ctx context.Context, job *Job, w io.Writer, progress func(written, total int64)) (int64, error) {
	if job == nil {
		return 0, errors.New("job is required")
	}
	if job.Status != StatusSucceeded {
		return 0, &InvalidTransitionError{Key: job.Key, Op: "fetch the archive of", From: job.Status}
	}

	link := job.ArtifactURL
	if link == "" {
		link = requestEndpoint + "/" + url.PathEscape(job.Key) + ".zip"
	}

	resp, err := c.api.Stream(ctx, link)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	total := resp.ContentLength
	if total < 0 && job.Size > 0 {
		total = job.Size
	}

	dst := w
	if progress != nil {
		dst = &progressWriter{w: w, total: total, report: progress}
	}
	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return n, &client.TransportError{Class: client.ErrorClassNetwork, Endpoint: link, Err: err}
	}

	c.logger.Info().
		Str("download_key", job.Key).
		Int64("bytes", n).
		Msg("Download archive fetched")
	return n, nil
}

// List returns the user's download jobs, newest first as the service orders
// them, up to limit.
func (c *Controller) List(ctx context.Context, creds Credentials, limit int) ([]*Job, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	endpoint := userEndpoint + "/" + url.PathEscape(creds.Username)

	body, err := c.api.Send(ctx, client.Call{
		Method:   http.MethodGet,
		Endpoint: endpoint,
		Query:    url.Values{"limit": {strconv.Itoa(limit)}, "offset": {"0"}},
		Username: creds.Username,
		Password: creds.Password,
	})
	if err != nil {
		return nil, err
	}

	var page struct {
		Results []jobResponse `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &client.DecodeError{Endpoint: endpoint, Err: err}
	}

	jobs := make([]*Job, 0, len(page.Results))
	for _, r := range page.Results {
		job, err := r.toJob()
		if err != nil {
			return nil, &client.DecodeError{Endpoint: endpoint, Err: err}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

type progressWriter struct {
	w       io.Writer
	written int64
	total   int64
	report  func(written, total int64)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	p.report(p.written, p.total)
	return n, err
}
