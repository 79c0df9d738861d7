package trigger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quantmind-br/sri-ingest/internal/domain"
	"github.com/quantmind-br/sri-ingest/internal/utils"
)

// RunNowPath is the Jobs API endpoint that starts a job run
const RunNowPath = "/api/2.1/jobs/run-now"

// DatabricksOptions configures the Databricks trigger
type DatabricksOptions struct {
	Host  string
	Token string
	JobID int64
	// NewToken generates idempotency tokens; defaults to uuid.NewString
	NewToken func() string
	Logger   *utils.Logger
}

// Databricks starts a job through the Jobs API
type Databricks struct {
	fetcher  domain.Fetcher
	opts     DatabricksOptions
	newToken func() string
	logger   *utils.Logger
}

type runNowRequest struct {
	JobID            int64  `json:"job_id"`
	IdempotencyToken string `json:"idempotency_token"`
}

type runNowResponse struct {
	RunID       int64 `json:"run_id"`
	NumberInJob int64 `json:"number_in_job"`
}

// NewDatabricks creates a Databricks trigger. Retries are whatever the
// fetcher is configured with; every attempt carries the same idempotency
// token so the job starts at most once.
func NewDatabricks(fetcher domain.Fetcher, opts DatabricksOptions) (*Databricks, error) {
	if strings.TrimSpace(opts.Host) == "" || opts.Token == "" || opts.JobID <= 0 {
		return nil, ErrNotConfigured
	}
	newToken := opts.NewToken
	if newToken == nil {
		newToken = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Databricks{fetcher: fetcher, opts: opts, newToken: newToken, logger: logger.WithComponent("trigger")}, nil
}

// Name returns "databricks"
func (d *Databricks) Name() string { return "databricks" }

// Endpoint returns the run-now URL
func (d *Databricks) Endpoint() string {
	host := strings.TrimRight(d.opts.Host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return host + RunNowPath
}

// Fire requests one run of the configured job
func (d *Databricks) Fire(ctx context.Context) (*Result, error) {
	token := d.newToken()
	body, err := json.Marshal(runNowRequest{JobID: d.opts.JobID, IdempotencyToken: token})
	if err != nil {
		return nil, err
	}

	log := d.logger.WithURL(d.Endpoint())
	log.Debug().Int64("job_id", d.opts.JobID).Str("idempotency_token", token).Msg("Requesting job run")

	resp, err := d.fetcher.Post(ctx, d.Endpoint(), map[string]string{
		"Authorization": "Bearer " + d.opts.Token,
		"Content-Type":  "application/json",
		"Accept":        "application/json",
	}, body)
	if err != nil {
		return nil, fmt.Errorf("databricks run-now for job %d: %w", d.opts.JobID, err)
	}

	var out runNowResponse
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return nil, fmt.Errorf("failed to parse run-now response: %w", err)
		}
	}

	log.Debug().Int64("run_id", out.RunID).Msg("Job run accepted")
	return &Result{
		RunID:   out.RunID,
		Message: fmt.Sprintf("databricks job %d started (run %d)", d.opts.JobID, out.RunID),
	}, nil
}
