package types

// SchedulerStatus is the aggregate state of the gateway's cron scheduler.
type SchedulerStatus struct {
	Enabled      bool   `json:"enabled"`
	Jobs         int    `json:"jobs"`
	NextWakeAtMs *int64 `json:"nextWakeAtMs,omitempty"`
}

// ChannelMeta carries the display label of a delivery channel.
type ChannelMeta struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label,omitempty" yaml:"label"`
}
