package recovery

import "github.com/shirou/gopsutil/v3/process"

// ProcessTable answers whether a pid currently belongs to a live process.
// The OS process table is re-queried fresh on every scan; pids are reused,
// so cached answers from a previous run would be wrong.
type ProcessTable interface {
	Alive(pid int) bool
}

// SystemProcessTable consults the real OS process table.
type SystemProcessTable struct{}

func (SystemProcessTable) Alive(pid int) bool {
	exists, err := process.PidExists(int32(pid))
	if err != nil {
		// treat lookup failures as "alive" so we never steal a recovery
		// file from a run we could not rule out
		return true
	}
	return exists
}
