package system

import (
	"runtime"
	"sync"
	"time"

	"github.com/rescp17/liteshell/internal/util"
)

// Info is the host runtime snapshot reported to the UI.
type Info struct {
	OS         string      `json:"os"`
	Arch       string      `json:"arch"`
	NumCPU     int         `json:"cpus"`
	GoVersion  string      `json:"goVersion"`
	Goroutines int         `json:"goroutines"`
	Memory     MemoryStats `json:"memory"`
	GC         GCStats     `json:"gc"`
	Uptime     string      `json:"uptime"`
	Timestamp  time.Time   `json:"timestamp"`
}

// MemoryStats contains memory usage statistics
type MemoryStats struct {
	Alloc     uint64 `json:"alloc"`     // bytes allocated and still in use
	Sys       uint64 `json:"sys"`       // bytes obtained from system
	HeapInuse uint64 `json:"heapInuse"` // bytes in non-idle spans
	Display   string `json:"display"`
}

// GCStats contains garbage collection statistics
type GCStats struct {
	NumGC        uint32          `json:"numGC"`
	LastPause    time.Duration   `json:"lastPause"`
	PauseHistory []time.Duration `json:"pauseHistory"`
}

// Monitor samples the Go runtime. It is safe for concurrent use.
type Monitor struct {
	startTime time.Time

	mu           sync.Mutex
	lastGCNum    uint32
	pauseHistory []time.Duration
	maxHistory   int
}

// NewMonitor creates a monitor whose uptime starts now.
func NewMonitor() *Monitor {
	return &Monitor{
		startTime:    time.Now(),
		pauseHistory: make([]time.Duration, 0, 10),
		maxHistory:   10,
	}
}

// Info returns the current snapshot.
func (sm *Monitor) Info() Info {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	sm.mu.Lock()
	sm.updateGCHistory(&m)
	history := append([]time.Duration(nil), sm.pauseHistory...)
	sm.mu.Unlock()

	return Info{
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		NumCPU:     runtime.NumCPU(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		Memory: MemoryStats{
			Alloc:     m.Alloc,
			Sys:       m.Sys,
			HeapInuse: m.HeapInuse,
			Display:   util.FormatSize(m.Alloc) + " / " + util.FormatSize(m.Sys),
		},
		GC: GCStats{
			NumGC:        m.NumGC,
			LastPause:    lastPause(&m),
			PauseHistory: history,
		},
		Uptime:    sm.Uptime().Round(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// updateGCHistory appends pauses of GC cycles completed since the last sample.
func (sm *Monitor) updateGCHistory(m *runtime.MemStats) {
	if m.NumGC <= sm.lastGCNum {
		return
	}
	start := sm.lastGCNum
	// PauseNs is a 256 entry ring.
	if m.NumGC-start > 256 {
		start = m.NumGC - 256
	}
	for i := start; i < m.NumGC; i++ {
		sm.pauseHistory = append(sm.pauseHistory, time.Duration(m.PauseNs[(i+256)%256]))
		if len(sm.pauseHistory) > sm.maxHistory {
			sm.pauseHistory = sm.pauseHistory[1:]
		}
	}
	sm.lastGCNum = m.NumGC
}

func lastPause(m *runtime.MemStats) time.Duration {
	if m.NumGC == 0 {
		return 0
	}
	return time.Duration(m.PauseNs[(m.NumGC+255)%256])
}

// Uptime returns the time since the monitor was created.
func (sm *Monitor) Uptime() time.Duration {
	return time.Since(sm.startTime)
}
