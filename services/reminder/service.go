package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"entitlement-controlplane/pkg/config"
	"entitlement-controlplane/pkg/errutil"
	"entitlement-controlplane/pkg/featureflags"
	"entitlement-controlplane/pkg/rediskey"
	"entitlement-controlplane/services/license"
	"entitlement-controlplane/services/notification"
	"entitlement-controlplane/services/tenant"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	TriggerScheduler = "scheduler"
	TriggerHTTP      = "http"
	TriggerCLI       = "cli"

	scanLockTTL = 30 * time.Minute
)

var ErrScanInProgress = errors.New("reminder scan already running")

var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type ScanResult struct {
	JobID        string `json:"job_id"`
	TotalChecked int    `json:"total_checked"`
	Sent         int    `json:"sent"`
	Failed       int    `json:"failed"`
	Skipped      int    `json:"skipped"`
}

type ExpiringLicense struct {
	LicenseID       string    `json:"license_id"`
	TenantID        string    `json:"tenant_id"`
	TenantName      string    `json:"tenant_name"`
	TenantStatus    string    `json:"tenant_status"`
	LicenseKeyID    string    `json:"license_key_id"`
	KeyCode         string    `json:"key_code"`
	ActivatedAt     time.Time `json:"activated_at"`
	ExpiresAt       time.Time `json:"expires_at"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
}

type candidate struct {
	tenantID    string
	tenantName  string
	kind        notification.ReminderKind
	referenceID string
	expiresAt   time.Time
}

type counters struct {
	sent, failed, skipped atomic.Int64
}

type Service struct {
	node     *snowflake.Node
	ledger   *Ledger
	licenses *license.Store
	tenants  *tenant.Store
	notifier notification.Notifier
	flags    featureflags.FeatureFlag
	redis    *redis.Client
	policy   config.Licensing
	now      func() time.Time
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Config   *config.Config
	Notifier notification.Notifier
	Flags    featureflags.FeatureFlag `optional:"true"`
	Redis    *redis.Client            `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		node:     p.Node,
		ledger:   NewLedger(p.DB),
		licenses: license.NewStore(p.DB),
		tenants:  tenant.NewStore(p.DB),
		notifier: p.Notifier,
		flags:    p.Flags,
		redis:    p.Redis,
		policy:   p.Config.Licensing,
		now:      time.Now,
	}
}

// Run sends due expiry reminders for active licenses and running trials. A
// failure for one tenant is counted and the scan moves on; the returned error
// is reserved for failures that prevent the scan from starting.
func (s *Service) Run(ctx context.Context, trigger string) (*ScanResult, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("trigger", trigger),
	)

	start := time.Now()
	defer func() { scanDuration.Observe(time.Since(start).Seconds()) }()

	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now().UTC()
	meta, _ := json.Marshal(map[string]any{
		"thresholds":  s.policy.ReminderThresholds,
		"window_days": s.policy.ReminderWindowDays,
	})
	job := &ScanJob{
		ID:        s.node.Generate().String(),
		Trigger:   trigger,
		Status:    JobRunning,
		StartedAt: &now,
		Metadata:  meta,
	}
	if err := s.ledger.CreateJob(ctx, job); err != nil {
		zapLog.Error("failed to record reminder job", zap.Error(err))
		return nil, errutil.Internal("failed to start reminder scan", err)
	}

	candidates, err := s.candidates(ctx, now)
	if err != nil {
		zapLog.Error("failed to load reminder candidates", zap.Error(err))
		s.finish(ctx, job, nil, err)
		return nil, errutil.Internal("failed to load reminder candidates", err)
	}

	c := &counters{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.policy.ScanConcurrency))
	for _, cand := range candidates {
		g.Go(func() error {
			s.process(gctx, cand, now, c)
			return nil
		})
	}
	_ = g.Wait()

	result := &ScanResult{
		JobID:        job.ID,
		TotalChecked: len(candidates),
		Sent:         int(c.sent.Load()),
		Failed:       int(c.failed.Load()),
		Skipped:      int(c.skipped.Load()),
	}
	s.finish(ctx, job, result, nil)

	zapLog.Info("reminder scan finished",
		zap.String("job_id", job.ID),
		zap.Int("total_checked", result.TotalChecked),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

func (s *Service) candidates(ctx context.Context, now time.Time) ([]candidate, error) {
	windowEnd := now.Add(s.policy.ReminderWindow())

	rows, err := s.licenses.ListExpiringWithTenant(ctx, now, windowEnd)
	if err != nil {
		return nil, err
	}
	trials, err := s.tenants.ListTrialing(ctx, now, windowEnd)
	if err != nil {
		return nil, err
	}

	out := make([]candidate, 0, len(rows)+len(trials))
	for _, r := range rows {
		out = append(out, candidate{
			tenantID:    r.TenantID,
			tenantName:  r.TenantName,
			kind:        notification.ReminderKindLicense,
			referenceID: r.LicenseID,
			expiresAt:   r.ExpiresAt,
		})
	}
	for _, t := range trials {
		out = append(out, candidate{
			tenantID:    t.ID,
			tenantName:  t.Name,
			kind:        notification.ReminderKindTrial,
			referenceID: TrialReference,
			expiresAt:   t.TrialEndsAt,
		})
	}
	return out, nil
}

func (s *Service) process(ctx context.Context, c candidate, now time.Time, n *counters) {
	zapLog := zap.L().With(
		zap.String("tenant_id", c.tenantID),
		zap.String("kind", c.kind.String()),
		zap.String("reference_id", c.referenceID),
	)

	days := daysUntil(c.expiresAt, now)
	if !s.isThreshold(days) {
		return
	}

	if s.flags != nil {
		enabled, err := s.flags.Enabled(ctx, c.tenantID, featureflags.LicenseExpiryReminders)
		if err != nil {
			zapLog.Warn("feature flag lookup failed, sending anyway", zap.Error(err))
		}
		if !enabled {
			n.skipped.Add(1)
			remindersTotal.WithLabelValues(c.kind.String(), "disabled").Inc()
			return
		}
	}

	claim := &Reminder{
		ID:           s.node.Generate().String(),
		TenantID:     c.tenantID,
		ReferenceID:  c.referenceID,
		ThresholdDay: days,
		Kind:         c.kind,
		ExpiresAt:    c.expiresAt,
		SentAt:       now,
	}
	claimed, err := s.ledger.Claim(ctx, claim)
	if err != nil {
		zapLog.Error("failed to claim reminder", zap.Int("threshold_day", days), zap.Error(err))
		n.failed.Add(1)
		remindersTotal.WithLabelValues(c.kind.String(), "failed").Inc()
		return
	}
	if !claimed {
		n.skipped.Add(1)
		remindersTotal.WithLabelValues(c.kind.String(), "duplicate").Inc()
		return
	}

	if err := s.notifier.SendExpiryReminder(ctx, notification.ExpiryReminder{
		TenantID:        c.tenantID,
		TenantName:      c.tenantName,
		Kind:            c.kind,
		ReferenceID:     c.referenceID,
		ThresholdDay:    days,
		DaysUntilExpiry: days,
		ExpiresAt:       c.expiresAt,
	}); err != nil {
		zapLog.Error("failed to send expiry reminder", zap.Int("threshold_day", days), zap.Error(err))
		if rerr := s.ledger.Release(context.WithoutCancel(ctx), claim.ID); rerr != nil {
			zapLog.Error("failed to release reminder claim", zap.Error(rerr))
		}
		n.failed.Add(1)
		remindersTotal.WithLabelValues(c.kind.String(), "failed").Inc()
		return
	}

	n.sent.Add(1)
	remindersTotal.WithLabelValues(c.kind.String(), "sent").Inc()
	zapLog.Info("expiry reminder sent", zap.Int("threshold_day", days))
}

func (s *Service) finish(ctx context.Context, job *ScanJob, res *ScanResult, runErr error) {
	completed := s.now().UTC()
	job.CompletedAt = &completed
	if runErr != nil {
		job.Status = JobFailed
		job.ErrorMsg = runErr.Error()
	} else {
		job.Status = JobSuccess
		job.TotalChecked = res.TotalChecked
		job.Sent = res.Sent
		job.Failed = res.Failed
		job.Skipped = res.Skipped
	}
	if err := s.ledger.UpdateJob(context.WithoutCancel(ctx), job); err != nil {
		zap.L().Error("failed to update reminder job", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (s *Service) isThreshold(days int) bool {
	for _, t := range s.policy.ReminderThresholds {
		if t == days {
			return true
		}
	}
	return false
}

// lock takes the cross-process scan lock when Redis is configured.
func (s *Service) lock(ctx context.Context) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}

	token := s.node.Generate().String()
	ok, err := s.redis.SetNX(ctx, rediskey.ReminderScanLockKey, token, scanLockTTL).Result()
	if err != nil {
		zap.L().Error("failed to acquire reminder scan lock", zap.Error(err))
		return nil, errutil.ServiceUnavailable("reminder scan lock unavailable", err)
	}
	if !ok {
		return nil, errutil.Conflict("reminder scan already running", ErrScanInProgress)
	}

	return func() {
		if err := releaseLock.Run(context.WithoutCancel(ctx), s.redis, []string{rediskey.ReminderScanLockKey}, token).Err(); err != nil {
			zap.L().Warn("failed to release reminder scan lock", zap.Error(err))
		}
	}, nil
}

// ListExpiringLicenses is a read-only view of active licenses expiring within
// withinDays, soonest first. Days are counted the way CheckAccess counts them.
func (s *Service) ListExpiringLicenses(ctx context.Context, withinDays int) ([]ExpiringLicense, error) {
	if withinDays == 0 {
		withinDays = s.policy.ReminderWindowDays
	}
	if withinDays < 1 || withinDays > 365 {
		return nil, errutil.ValidationFailed("invalid window", nil,
			errutil.WithDetails(errutil.Detail{Field: "within_days", Message: "must be between 1 and 365"}))
	}

	now := s.now().UTC()
	rows, err := s.licenses.ListExpiringWithTenant(ctx, now, now.Add(time.Duration(withinDays)*24*time.Hour))
	if err != nil {
		zap.L().Error("failed to list expiring licenses", zap.Error(err))
		return nil, errutil.Internal("failed to list expiring licenses", err)
	}

	out := make([]ExpiringLicense, 0, len(rows))
	for _, r := range rows {
		out = append(out, ExpiringLicense{
			LicenseID:       r.LicenseID,
			TenantID:        r.TenantID,
			TenantName:      r.TenantName,
			TenantStatus:    r.TenantStatus,
			LicenseKeyID:    r.LicenseKeyID,
			KeyCode:         r.KeyCode,
			ActivatedAt:     r.ActivatedAt,
			ExpiresAt:       r.ExpiresAt,
			DaysUntilExpiry: license.DaysRemaining(r.ExpiresAt, now),
		})
	}
	return out, nil
}

// daysUntil counts whole days left, rounding down, to pick reminder thresholds.
func daysUntil(expiresAt, now time.Time) int {
	return int(expiresAt.Sub(now) / (24 * time.Hour))
}
