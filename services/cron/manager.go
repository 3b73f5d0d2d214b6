package cron

import (
	"encoding/json"
	"time"

	"github.com/d-valsamis/student-portal/model"
	"github.com/d-valsamis/student-portal/services/filestore"
	"github.com/d-valsamis/student-portal/utils/auth"
	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	files     *filestore.Service
	blacklist *auth.BlacklistService
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, files *filestore.Service) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:      c,
		db:        db,
		files:     files,
		blacklist: auth.NewBlacklistService(db),
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Info("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Info("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	log.Info("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Info("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	jobs := []struct {
		schedule string
		name     string
		run      func(run *model.CronJobLog)
	}{
		// Every hour: drop revoked tokens that have expired anyway
		{"0 0 * * * *", jobCleanupTokenBlacklist, m.CleanupTokenBlacklist},
		// Every 30 minutes: remove uploads no record points at
		{"0 */30 * * * *", jobSweepOrphanUploads, m.SweepOrphanUploads},
		// Daily at 2 AM: prune old job logs
		{"0 0 2 * * *", jobPruneCronLogs, m.PruneCronLogs},
	}

	for _, job := range jobs {
		job := job
		if _, err := m.cron.AddFunc(job.schedule, func() {
			job.run(m.logJobStart(job.name))
		}); err != nil {
			return err
		}
	}

	log.Info("All cron jobs registered successfully")
	return nil
}

// logJobStart records the start of a cron job and returns its log row
func (m *CronManager) logJobStart(jobName string) *model.CronJobLog {
	log.Infof("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))

	run := &model.CronJobLog{
		JobName:   jobName,
		Status:    "running",
		StartedAt: time.Now(),
		Metadata:  datatypes.JSON("{}"),
	}
	if err := m.db.Create(run).Error; err != nil {
		log.Warnf("[CRON] Failed to record start of %s: %v", jobName, err)
	}
	return run
}

// logJobComplete records successful completion of a cron job
func (m *CronManager) logJobComplete(run *model.CronJobLog, message string, metadata map[string]interface{}) {
	log.Infof("[CRON] Completed job: %s - %s", run.JobName, message)
	m.finish(run, map[string]interface{}{
		"status":   "completed",
		"message":  message,
		"metadata": encodeMetadata(metadata),
	})
}

// logJobError records a cron job failure
func (m *CronManager) logJobError(run *model.CronJobLog, err error) {
	log.Errorf("[CRON] Error in job: %s - %v", run.JobName, err)
	m.finish(run, map[string]interface{}{
		"status":    "failed",
		"error_msg": err.Error(),
	})
}

func (m *CronManager) finish(run *model.CronJobLog, updates map[string]interface{}) {
	if run.ID == 0 {
		return
	}
	now := time.Now()
	updates["completed_at"] = now
	updates["duration"] = now.Sub(run.StartedAt).Milliseconds()

	if err := m.db.Model(run).Updates(updates).Error; err != nil {
		log.Warnf("[CRON] Failed to record result of %s: %v", run.JobName, err)
	}
}

func encodeMetadata(metadata map[string]interface{}) datatypes.JSON {
	if len(metadata) == 0 {
		return datatypes.JSON("{}")
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}
