// Package profilers sets up profiling for the command-line programs of the arena.
//
// If linked, it installs the profiler flags: -prof (HTTP pprof server), -cpu_profile and -mem_profile.
package profilers

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagProfiler   = flag.Int("prof", -1, "If set, runs the pprof HTTP server on localhost at the given port.")
	flagCPUProfile = flag.String("cpu_profile", "", "write cpu profile to `file`")
	flagMemProfile = flag.String("mem_profile", "", "write heap profile at exit to `file`")
)

// Profilers started by Setup.
type Profilers struct {
	ctx     context.Context
	cpuFile *os.File
	addr    string
}

// Setup starts the HTTP (flag -prof) and CPU profilers (flag -cpu_profile), if they were configured.
// You should follow with a deferred call to Profilers.OnQuit.
func Setup(ctx context.Context) (*Profilers, error) {
	p := &Profilers{ctx: ctx}
	if *flagProfiler >= 0 {
		p.addr = fmt.Sprintf("localhost:%d", *flagProfiler)
		klog.Infof("Starting profiler on http://%s/debug/pprof", p.addr)
		go func() {
			if err := http.ListenAndServe(p.addr, nil); err != nil {
				klog.Errorf("Profiler server failed: %v", err)
			}
		}()
	}
	if *flagCPUProfile != "" {
		f, err := os.Create(*flagCPUProfile)
		if err != nil {
			return nil, errors.Wrap(err, "could not create CPU profile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, errors.Wrap(err, "could not start CPU profile")
		}
		p.cpuFile = f
	}
	return p, nil
}

// OnQuit stops the CPU profile and writes the heap profile, if configured.
// If the HTTP profiler is running, it keeps the program alive until the context given to Setup
// is done, so the profiles can still be read.
func (p *Profilers) OnQuit() {
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			klog.Errorf("Failed to close CPU profile: %v", err)
		}
	}
	if *flagMemProfile != "" {
		if err := writeHeapProfile(*flagMemProfile); err != nil {
			klog.Errorf("%+v", err)
		}
	}
	if p.addr == "" || p.ctx.Err() != nil {
		return
	}
	fmt.Printf("- Program finished: kept alive with profiler opened at http://%s/debug/pprof\n", p.addr)
	fmt.Printf("- Interrupt (Ctrl+C) to exit\n")
	<-p.ctx.Done()
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create heap profile")
	}
	defer func() { _ = f.Close() }()
	runtime.GC()
	return errors.Wrap(pprof.WriteHeapProfile(f), "could not write heap profile")
}
