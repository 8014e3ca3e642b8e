// Package legacy reads jobs from the previous SQL Server deployment so they
// can be imported into the back office.
package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fieldops/backoffice-api/internal/config"
	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultPingTimeout    = 5 * time.Second
)

// jobsQuery pages through the legacy job table by its identity column.
// Status is stored as free text: older rows hold the Vietnamese label,
// newer ones its ASCII transliteration.
const jobsQuery = `
SELECT TOP (@p2)
	j.JobId, j.JobCode, c.CompanyName, ISNULL(c.Phone, ''), ISNULL(c.Address, ''),
	j.JobType, j.Status, j.ScheduledStart, j.ScheduledEnd,
	ISNULL(u.Email, ''), ISNULL(j.Notes, '')
FROM dbo.Jobs j
JOIN dbo.Customers c ON c.CustomerId = j.CustomerId
LEFT JOIN dbo.Users u ON u.UserId = j.TechnicianId
WHERE j.JobId > @p1
ORDER BY j.JobId`

// JobRecord is one row of the legacy job table
type JobRecord struct {
	LegacyID        int64
	JobCode         string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	JobType         string
	Status          string
	ScheduledStart  time.Time
	ScheduledEnd    time.Time
	TechnicianEmail string
	Notes           string
}

// Client is a read-only connection to the legacy database
type Client struct {
	db           *sql.DB
	logger       *zap.Logger
	queryTimeout time.Duration
}

// NewClient connects with retry. It returns nil, nil when the import source
// is disabled.
func NewClient(cfg *config.LegacyConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Legacy import source disabled")
		return nil, nil
	}
	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf("legacy source enabled but url, user or password is missing")
	}

	connStr := buildConnectionString(cfg)

	var (
		db  *sql.DB
		err error
	)
	backoff := defaultInitialBackoff
	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		db, err = sql.Open("sqlserver", connStr)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), defaultPingTimeout)
			err = db.PingContext(ctx)
			cancel()
			if err == nil {
				logger.Info("Legacy database connection established", zap.Int("attempts_taken", attempt))
				return &Client{db: db, logger: logger, queryTimeout: cfg.QueryTimeoutDuration()}, nil
			}
			_ = db.Close()
		}

		logger.Warn("Legacy database connection failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
		)
		if attempt < defaultMaxRetries {
			time.Sleep(backoff)
			backoff = min(backoff*2, defaultMaxBackoff)
		}
	}
	return nil, fmt.Errorf("failed to connect to legacy database after %d attempts: %w", defaultMaxRetries, err)
}

// buildConnectionString turns "host:port/database" into a sqlserver URL
func buildConnectionString(cfg *config.LegacyConfig) string {
	hostPort, database, _ := strings.Cut(cfg.URL, "/")
	host, port, found := strings.Cut(hostPort, ":")
	if !found {
		port = "1433"
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("connection timeout", "30")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", host, port),
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Close releases the connection pool
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// FetchJobs returns up to limit jobs with an id greater than afterID, in id order
func (c *Client) FetchJobs(ctx context.Context, afterID int64, limit int) ([]JobRecord, error) {
	if _, ok := ctx.Deadline(); !ok && c.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, jobsQuery, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("legacy job query failed: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		var rec JobRecord
		if err := rows.Scan(
			&rec.LegacyID, &rec.JobCode, &rec.CustomerName, &rec.CustomerPhone, &rec.CustomerAddress,
			&rec.JobType, &rec.Status, &rec.ScheduledStart, &rec.ScheduledEnd,
			&rec.TechnicianEmail, &rec.Notes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan legacy job: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating legacy jobs: %w", err)
	}

	c.logger.Debug("fetched legacy jobs",
		zap.Int64("after_id", afterID),
		zap.Int("rows", len(records)),
		zap.Duration("duration", time.Since(start)))
	return records, nil
}
