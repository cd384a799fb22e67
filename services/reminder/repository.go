package reminder

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Claim inserts r unless a reminder for the same tenant, reference and
// threshold already exists. It reports whether this caller owns the send.
func (l *Ledger) Claim(ctx context.Context, r *Reminder) (bool, error) {
	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(r)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release drops a claim whose notification failed so the next scan retries.
func (l *Ledger) Release(ctx context.Context, id string) error {
	return l.db.WithContext(ctx).Where("id = ?", id).Delete(&Reminder{}).Error
}

func (l *Ledger) CreateJob(ctx context.Context, job *ScanJob) error {
	return l.db.WithContext(ctx).Create(job).Error
}

func (l *Ledger) UpdateJob(ctx context.Context, job *ScanJob) error {
	return l.db.WithContext(ctx).Save(job).Error
}
