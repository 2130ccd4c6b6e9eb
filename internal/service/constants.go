package service

const (
	// Load summary windows
	ChartWeeks          = 12
	RecentSessionsLimit = 10
	TrendHistoryDays    = 90

	// Sync state keys
	LastSyncKey = "last_activity_sync"
)
