package rediskey

import "fmt"

// Key conventions shared by the API and the worker.
const (
	ReminderScanLockKey   = "license:reminder:scan:lock"
	ReminderScanDayPrefix = "license:reminder:scan:day"
)

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildReminderScanDayKey returns "license:reminder:scan:day:{yyyymmdd}"
func BuildReminderScanDayKey(day string) string {
	return NamespaceKey(ReminderScanDayPrefix, day)
}
