package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sessionRow struct {
	ID             string `gorm:"primaryKey"`
	StartedAt      time.Time
	EndedAt        time.Time `gorm:"index"`
	ElapsedSeconds int
	Detections     int
	BestPose       string
	BestAccuracy   int
}

func (sessionRow) TableName() string { return "live_sessions" }

type analysisRow struct {
	ID          string `gorm:"primaryKey"`
	WorkspaceID string `gorm:"index"`
	FileName    string
	Kind        string
	PoseName    string
	Accuracy    int
	Feedback    []string  `gorm:"serializer:json"`
	AnalyzedAt  time.Time `gorm:"index"`
}

func (analysisRow) TableName() string { return "upload_analyses" }

// Postgres persists history through gorm.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects and migrates the history tables.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&sessionRow{}, &analysisRow{}); err != nil {
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) RecordSession(ctx context.Context, s SessionSummary) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := sessionRow(s)
	return p.db.WithContext(ctx).Create(&row).Error
}

func (p *Postgres) RecordAnalysis(ctx context.Context, a AnalysisRecord) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	row := analysisRow(a)
	return p.db.WithContext(ctx).Create(&row).Error
}

func (p *Postgres) Sessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	var rows []sessionRow
	err := p.db.WithContext(ctx).Order("ended_at DESC").Limit(normalizeLimit(limit)).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]SessionSummary, len(rows))
	for i, r := range rows {
		out[i] = SessionSummary(r)
	}
	return out, nil
}

func (p *Postgres) Analyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	var rows []analysisRow
	err := p.db.WithContext(ctx).Order("analyzed_at DESC").Limit(normalizeLimit(limit)).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]AnalysisRecord, len(rows))
	for i, r := range rows {
		out[i] = AnalysisRecord(r)
	}
	return out, nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
