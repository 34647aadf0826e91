package handlers

import "github.com/fb0sh/gout/internal/stats"

// StatusResponse is the /health payload.
type StatusResponse struct {
	Status string `json:"status"`
}

// MemoryStats mirrors the fields gopsutil exposes for system memory.
type MemoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	FreeMB      float64 `json:"free_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// CPUStats mirrors the fields gopsutil exposes for system CPU.
type CPUStats struct {
	NumCPU      int     `json:"num_cpu"`
	UsedPercent float64 `json:"used_percent"`
	IdlePercent float64 `json:"idle_percent"`
}

// StatsResponse is the /stats payload.
type StatsResponse struct {
	Uptime        string         `json:"uptime"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	CPU           CPUStats       `json:"cpu"`
	Memory        MemoryStats    `json:"memory"`
	Tunnels       stats.Snapshot `json:"tunnels"`
}
