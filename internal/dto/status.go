package dto

type StatusDTO struct {
	App      AppStatusDTO      `json:"app"`
	Storage  StorageStatusDTO  `json:"storage"`
	Tracking TrackingStatusDTO `json:"tracking"`
	Events   EventsStatusDTO   `json:"events"`
}

type AppStatusDTO struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	StartedAt string `json:"started_at"`
	UptimeSec int64  `json:"uptime_sec"`
	SafeMode  bool   `json:"safe_mode"`
	LogLevel  string `json:"log_level"`
}

type StorageStatusDTO struct {
	DBPath         string `json:"db_path"`
	SchemaVersion  int    `json:"schema_version"`
	SafeModeReason string `json:"safe_mode_reason,omitempty"`
}

type TrackingStatusDTO struct {
	SessionGapSec int  `json:"session_gap_sec"`
	FocusOnly     bool `json:"focus_only"`
}

type EventsStatusDTO struct {
	Subscribers int    `json:"subscribers"`
	Dropped     uint64 `json:"dropped"`
}
