package domain

import "time"

// ComponentStatus is the health of one dependency
type ComponentStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// SystemStats are headline counts shown on the status page
type SystemStats struct {
	Users          int64 `json:"users"`
	Farms          int64 `json:"farms"`
	Fields         int64 `json:"fields"`
	ActiveSessions int64 `json:"activeSessions"`
	Crops          int64 `json:"crops"`
}

// SystemStatus is the /api/v1/system/status payload
type SystemStatus struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentStatus `json:"components"`
	Stats      *SystemStats               `json:"stats,omitempty"`
	CheckedAt  time.Time                  `json:"checkedAt"`
}
