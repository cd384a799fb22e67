package taskname

const (
	// License tasks
	LicenseReminderScan = "license:reminder:scan"

	// Notification tasks, consumed by the delivery worker
	NotificationLicenseReminder = "notification:license:reminder"
	NotificationTenantSuspended = "notification:tenant:suspended"
)

// Queues polled by the entitlement worker.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// QueueNotifications belongs to the delivery worker. The entitlement worker
// must never poll it, or it would fail notification tasks it has no handler for.
const QueueNotifications = "notifications"
