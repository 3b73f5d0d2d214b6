package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services/filestore"
	"gorm.io/gorm"
)

const (
	jobCleanupTokenBlacklist = "cleanup_token_blacklist"
	jobSweepOrphanUploads    = "sweep_orphan_uploads"
	jobPruneCronLogs         = "prune_cron_logs"

	// OrphanGracePeriod protects uploads whose record is still being written.
	OrphanGracePeriod = time.Hour

	cronLogRetention = 30 * 24 * time.Hour
)

// CleanupTokenBlacklist deletes blacklist rows whose token has expired
func (m *CronManager) CleanupTokenBlacklist(run *model.CronJobLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := m.blacklist.CleanupExpiredTokens(ctx)
	if err != nil {
		m.logJobError(run, fmt.Errorf("failed to clean up blacklist: %w", err))
		return
	}

	m.logJobComplete(run, fmt.Sprintf("Removed %d expired tokens", n), map[string]interface{}{"removed": n})
}

// SweepOrphanUploads removes stored blobs older than OrphanGracePeriod that
// no StoredFile row refers to
func (m *CronManager) SweepOrphanUploads(run *model.CronJobLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	removed, err := SweepOrphans(ctx, m.db, m.files, time.Now().Add(-OrphanGracePeriod))
	if err != nil {
		m.logJobError(run, err)
		return
	}

	total := 0
	for _, n := range removed {
		total += n
	}
	metadata := make(map[string]interface{}, len(removed))
	for kind, n := range removed {
		metadata[kind] = n
	}
	m.logJobComplete(run, fmt.Sprintf("Removed %d orphaned uploads", total), metadata)
}

// SweepOrphans deletes, per kind, the blobs modified before cutoff that have
// no StoredFile row. It returns the number removed per kind.
func SweepOrphans(ctx context.Context, db *gorm.DB, files *filestore.Service, cutoff time.Time) (map[string]int, error) {
	removed := make(map[string]int, len(filestore.Kinds))

	for _, kind := range filestore.Kinds {
		objects, err := files.List(ctx, kind)
		if err != nil {
			return removed, fmt.Errorf("list %s uploads: %w", kind, err)
		}

		var candidates []string
		for _, obj := range objects {
			if obj.ModTime.Before(cutoff) {
				candidates = append(candidates, obj.Name)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		var known []string
		if err := db.WithContext(ctx).Model(&model.StoredFile{}).
			Where("stored_name IN ?", candidates).
			Pluck("stored_name", &known).Error; err != nil {
			return removed, fmt.Errorf("look up %s records: %w", kind, err)
		}
		referenced := make(map[string]bool, len(known))
		for _, name := range known {
			referenced[name] = true
		}

		for _, name := range candidates {
			if referenced[name] {
				continue
			}
			if err := files.Remove(ctx, kind, name); err != nil {
				return removed, fmt.Errorf("remove %s/%s: %w", kind, name, err)
			}
			removed[kind]++
		}
	}

	return removed, nil
}

// PruneCronLogs deletes job logs past the retention window
func (m *CronManager) PruneCronLogs(run *model.CronJobLog) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result := m.db.WithContext(ctx).
		Where("started_at < ?", time.Now().Add(-cronLogRetention)).
		Delete(&model.CronJobLog{})
	if result.Error != nil {
		m.logJobError(run, fmt.Errorf("failed to prune cron logs: %w", result.Error))
		return
	}

	m.logJobComplete(run, fmt.Sprintf("Pruned %d job logs", result.RowsAffected), map[string]interface{}{"pruned": result.RowsAffected})
}
