package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// redemptions counts workflow outcomes by terminal state.
var redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "campuslink_redemptions_total",
	Help: "Attendance code redemption attempts by outcome.",
}, []string{"outcome"})

const (
	outcomeCommitted = "committed"
	outcomeNotFound  = "rejected_not_found"
	outcomeInactive  = "rejected_inactive"
	outcomeExpired   = "rejected_expired"
	outcomeDuplicate = "rejected_duplicate"
	outcomeFailed    = "failed"
)
