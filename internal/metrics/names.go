package metrics

const (
	SyncRequestsH = "The total number of time requests sent"
	SyncRequestsN = "alarmclock_sync_requests"
	SyncsH        = "The total number of time replies applied to the clock"
	SyncsN        = "alarmclock_syncs"
	TransitionsH  = "The total number of mode transitions, by target mode"
	TransitionsN  = "alarmclock_mode_transitions"
	AlarmsFiredH  = "The total number of alarms fired"
	AlarmsFiredN  = "alarmclock_alarms_fired"
	AlarmsSetH    = "The total number of alarm time changes made in edit mode"
	AlarmsSetN    = "alarmclock_alarms_set"
	PublishErrsH  = "The total number of MQTT publish failures"
	PublishErrsN  = "alarmclock_publish_errors"

	ModeH      = "Current device mode (1 for the active mode label)"
	ModeN      = "alarmclock_mode"
	SyncedH    = "Whether the clock has been synced at least once"
	SyncedN    = "alarmclock_synced"
	StalenessH = "Milliseconds since the last successful time sync"
	StalenessN = "alarmclock_sync_staleness_ms"
	VibrateH   = "Whether the vibration motor is on"
	VibrateN   = "alarmclock_vibrate"
)
