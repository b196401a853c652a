package maintenance

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// CheckpointJob truncates the WAL and refreshes query planner statistics.
// The ledger database runs in WAL mode; without periodic checkpoints the
// log file grows unbounded on write-heavy days.
type CheckpointJob struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCheckpointJob creates a new checkpoint job
func NewCheckpointJob(db *sql.DB, log zerolog.Logger) *CheckpointJob {
	return &CheckpointJob{
		db:  db,
		log: log.With().Str("job", "db-checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *CheckpointJob) Name() string {
	return "db-checkpoint"
}

// Run performs the checkpoint
func (j *CheckpointJob) Run() error {
	if _, err := j.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	if _, err := j.db.Exec("PRAGMA optimize"); err != nil {
		return fmt.Errorf("failed to optimize database: %w", err)
	}

	j.log.Debug().Msg("Database checkpoint complete")
	return nil
}
