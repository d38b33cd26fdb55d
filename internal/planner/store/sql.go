package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/kart-io/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/tripplanner/internal/model"
	storeopts "github.com/kart-io/tripplanner/pkg/options/store"
	"github.com/kart-io/tripplanner/pkg/utils/json"
)

// jobRecord is the table row of a job. Request and result are JSON text.
type jobRecord struct {
	ID        string    `gorm:"column:id;primaryKey;size:64"`
	Status    string    `gorm:"column:status;size:16;index"`
	Request   string    `gorm:"column:request;type:text"`
	Result    string    `gorm:"column:result;type:text"`
	Error     string    `gorm:"column:error;type:text"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (jobRecord) TableName() string {
	return "planning_jobs"
}

func toRecord(job *model.Job) (*jobRecord, error) {
	req, err := json.MarshalString(job.Request)
	if err != nil {
		return nil, err
	}
	rec := &jobRecord{
		ID:        job.ID,
		Status:    string(job.Status),
		Request:   req,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if job.Result != nil {
		if rec.Result, err = json.MarshalString(job.Result); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (r *jobRecord) toJob() (*model.Job, error) {
	job := &model.Job{
		ID:        r.ID,
		Status:    model.JobStatus(r.Status),
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(r.Request), &job.Request); err != nil {
		return nil, fmt.Errorf("decode job request: %w", err)
	}
	if r.Result != "" {
		job.Result = &model.PlanningState{}
		if err := json.Unmarshal([]byte(r.Result), job.Result); err != nil {
			return nil, fmt.Errorf("decode job result: %w", err)
		}
	}
	return job, nil
}

type sqlStore struct {
	db *gorm.DB
}

// OpenSQLStore connects to the database selected by opts.Driver and
// migrates the jobs table.
func OpenSQLStore(ctx context.Context, opts *storeopts.Options) (JobStore, error) {
	var (
		dialector   gorm.Dialector
		maxIdle     int
		maxOpen     int
		maxLifetime time.Duration
	)
	switch opts.Driver {
	case storeopts.DriverMySQL:
		dialector = mysql.Open(opts.MySQL.DSN())
		maxIdle, maxOpen, maxLifetime = opts.MySQL.MaxIdleConnections, opts.MySQL.MaxOpenConnections, opts.MySQL.MaxConnectionLifeTime
	case storeopts.DriverPostgres:
		dialector = postgres.Open(opts.Postgres.DSN())
		maxIdle, maxOpen, maxLifetime = opts.Postgres.MaxIdleConnections, opts.Postgres.MaxOpenConnections, opts.Postgres.MaxConnectionLifeTime
	case storeopts.DriverSQLite:
		dialector = sqlite.Open(opts.SQLitePath)
		// SQLite serializes writers; one connection also keeps ":memory:" shared.
		maxIdle, maxOpen = 1, 1
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(gormlogger.Warn, 200*time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if maxIdle > 0 {
		sqlDB.SetMaxIdleConns(maxIdle)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if maxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(maxLifetime)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", opts.Driver, err)
	}

	return NewSQLStore(ctx, db)
}

// NewSQLStore wraps an open gorm connection and migrates the jobs table.
func NewSQLStore(ctx context.Context, db *gorm.DB) (JobStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&jobRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate jobs table: %w", err)
	}
	logger.Infow("Job store migrated", "dialect", db.Dialector.Name())
	return &sqlStore{db: db}, nil
}

// Create stores a new job.
func (s *sqlStore) Create(ctx context.Context, job *model.Job) error {
	rec, err := toRecord(job)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(rec).Error
}

// Update replaces a stored job.
func (s *sqlStore) Update(ctx context.Context, job *model.Job) error {
	rec, err := toRecord(job)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&jobRecord{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
		"status":     rec.Status,
		"result":     rec.Result,
		"error":      rec.Error,
		"updated_at": rec.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Get retrieves a job by id.
func (s *sqlStore) Get(ctx context.Context, id string) (*model.Job, error) {
	var rec jobRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec.toJob()
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
