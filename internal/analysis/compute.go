package analysis

import (
	"time"

	"fitinsight/internal/store"
)

// ComputeSessionLoad calculates the persisted load record for a single session
func ComputeSessionLoad(session store.Session, t AthleteThresholds, now time.Time) store.SessionLoad {
	r := ComputeLoad(session, t)
	return store.SessionLoad{
		SessionID:      session.ID,
		TRIMP:          r.TRIMP,
		TSS:            r.TSS,
		NormalizedLoad: r.NormalizedLoad,
		Source:         string(r.Source),
		ComputedAt:     now,
	}
}

// DailyLoads groups stored session loads into one entry per local session day
func DailyLoads(sessions []store.Session, loads []store.SessionLoad) []DailyLoad {
	n := len(sessions)
	if len(loads) < n {
		n = len(loads)
	}
	daily := make([]DailyLoad, 0, n)
	for i := 0; i < n; i++ {
		daily = append(daily, DailyLoad{
			Date: Day(sessions[i].LocalStart()),
			Load: loads[i].NormalizedLoad,
		})
	}
	return daily
}
