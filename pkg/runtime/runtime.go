package runtime

import (
	"runtime"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// OptimizeRuntime raises the open files limit so that many batches can be
// in flight at once.
func OptimizeRuntime() {
	var rLimit syscall.Rlimit
	e := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if e == nil && rLimit.Cur < 65536 {
		rLimit.Cur = 65536
		if rLimit.Max < rLimit.Cur {
			rLimit.Cur = rLimit.Max
		}
		log.Debugf("Setting RLimit to %d", rLimit.Cur)
		e = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
		if e != nil {
			log.Warnf("Could not set RLimit: %v", e)
		}
	}

	nuCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(nuCPU)
	log.Debugf("Running with %d CPUs", nuCPU)
}
