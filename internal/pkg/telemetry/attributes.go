package telemetry

// Span attribute keys shared across services.
const (
	AttrPlayerID  = "hunt.player_id"
	AttrLevelID   = "hunt.level_id"
	AttrSessionID = "hunt.session_id"
	AttrReason    = "hunt.failure_reason"
)
