// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/blogicum-go/internal/store"
)

// Scheduler handles periodic maintenance like event log pruning.
type Scheduler struct {
	db             *sql.DB
	cron           *cron.Cron
	logger         *slog.Logger
	eventRetention time.Duration
}

// New creates a new scheduler instance.
// eventRetentionDays controls how long event log entries are kept.
func New(db *sql.DB, logger *slog.Logger, eventRetentionDays int) *Scheduler {
	return &Scheduler{
		db:             db,
		cron:           cron.New(),
		logger:         logger,
		eventRetention: time.Duration(eventRetentionDays) * 24 * time.Hour,
	}
}

// Start begins the scheduler with a nightly event log pruning job.
func (s *Scheduler) Start() error {
	// Run daily at 03:00
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		if err := s.pruneEvents(); err != nil {
			s.logger.Error("failed to prune event log", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// pruneEvents deletes event log entries older than the retention window.
func (s *Scheduler) pruneEvents() error {
	if s.eventRetention <= 0 {
		return nil
	}

	ctx := context.Background()
	queries := store.New(s.db)

	now := time.Now()
	cutoff := now.Add(-s.eventRetention)

	deleted, err := queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if deleted == 0 {
		return nil
	}

	s.logger.Info("pruned event log", "deleted", deleted, "cutoff", cutoff)

	metadata := map[string]interface{}{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	}
	metadataJSON, _ := json.Marshal(metadata)

	_, err = queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     store.EventLevelInfo,
		Category:  store.EventCategorySystem,
		Message:   "Event log pruned by scheduler",
		UserID:    sql.NullInt64{}, // System action, no user
		Metadata:  string(metadataJSON),
		CreatedAt: now,
	})
	if err != nil {
		s.logger.Warn("failed to log pruning event", "error", err)
	}

	return nil
}
