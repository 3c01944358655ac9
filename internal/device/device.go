// Package device samples the state of the host the telemetry runs on. The
// values are attached to every navigation event as the phone state.
package device

import (
	"context"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// State is the host snapshot carried in the event payload.
type State struct {
	Created           string  `json:"created"`
	OperatingSystem   string  `json:"operatingSystem"`
	Platform          string  `json:"platform,omitempty"`
	PlatformVersion   string  `json:"platformVersion,omitempty"`
	Device            string  `json:"device,omitempty"`
	CPUCount          int     `json:"cpuCount"`
	MemoryUsedPercent float64 `json:"memoryUsedPercent"`
	BatteryLevel      int     `json:"batteryLevel"`
	BatteryPluggedIn  bool    `json:"batteryPluggedIn"`
	Connectivity      string  `json:"connectivity"`
	UptimeSeconds     uint64  `json:"uptimeSeconds"`
}

// Provider returns the current host state. Implementations must be safe for
// concurrent use and must not fail: missing values are left at defaults.
type Provider interface {
	PhoneState(ctx context.Context) State
}

// Static always returns the same state. Used in tests and when host
// sampling is disabled.
type Static State

func (s Static) PhoneState(context.Context) State {
	return State(s)
}

// HostProvider samples the host with gopsutil. Static facts (OS, platform,
// CPU count) are read once; memory and uptime are refreshed at most every
// refresh interval.
type HostProvider struct {
	refresh time.Duration

	once   sync.Once
	static State

	mu       sync.Mutex
	cached   State
	cachedAt time.Time
}

func NewHostProvider(refresh time.Duration) *HostProvider {
	if refresh <= 0 {
		refresh = 5 * time.Second
	}
	return &HostProvider{refresh: refresh}
}

func (p *HostProvider) PhoneState(ctx context.Context) State {
	p.once.Do(func() { p.static = readStatic(ctx) })

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if !p.cachedAt.IsZero() && now.Sub(p.cachedAt) < p.refresh {
		s := p.cached
		s.Created = formatCreated(now)
		return s
	}

	s := p.static
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemoryUsedPercent = vm.UsedPercent
	} else {
		log.Printf("[device] memory sample failed: %v", err)
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		s.UptimeSeconds = up
	}
	p.cached = s
	p.cachedAt = now

	s.Created = formatCreated(now)
	return s
}

func readStatic(ctx context.Context) State {
	s := State{
		OperatingSystem: runtime.GOOS,
		CPUCount:        runtime.NumCPU(),
		BatteryLevel:    -1,
		Connectivity:    "unknown",
	}
	if info, err := host.InfoWithContext(ctx); err == nil {
		s.Platform = info.Platform
		s.PlatformVersion = info.PlatformVersion
		s.Device = info.KernelArch
	} else {
		log.Printf("[device] host info failed: %v", err)
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		s.CPUCount = n
	}
	return s
}

func formatCreated(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000-0700")
}
