// Package profiling captures CPU, heap, and execution-trace profiles
// for a single askdoc run.
package profiling

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
)

// Session holds the profiles running for the current process. Start it
// before the interactive session and stop it on the way out.
type Session struct {
	cpuFile   *os.File
	traceFile *os.File
	heapPath  string
}

// Start begins the requested profiles. Empty paths are skipped, so a
// zero-value request returns a Session that does nothing.
func Start(cpuPath, tracePath, heapPath string) (*Session, error) {
	s := &Session{heapPath: heapPath}

	if cpuPath != "" {
		f, err := os.Create(cpuPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create CPU profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to start CPU profile: %w", err)
		}
		s.cpuFile = f
	}

	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		if err := trace.Start(f); err != nil {
			_ = f.Close()
			s.stopCPU()
			return nil, fmt.Errorf("failed to start trace: %w", err)
		}
		s.traceFile = f
	}

	return s, nil
}

// Stop ends the running profiles and writes the heap snapshot if one
// was requested.
func (s *Session) Stop() error {
	s.stopCPU()

	if s.traceFile != nil {
		trace.Stop()
		_ = s.traceFile.Close()
		s.traceFile = nil
	}

	if s.heapPath != "" {
		if err := writeHeap(s.heapPath); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) stopCPU() {
	if s.cpuFile != nil {
		pprof.StopCPUProfile()
		_ = s.cpuFile.Close()
		s.cpuFile = nil
	}
}

// writeHeap writes a point-in-time heap snapshot. A GC pass first keeps
// dead objects out of the profile.
func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile file: %w", err)
	}
	defer func() { _ = f.Close() }()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	return nil
}
