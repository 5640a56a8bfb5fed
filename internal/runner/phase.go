package runner

// Phase is the lifecycle state of the orchestration loop.
type Phase string

const (
	// PhaseRunning: games are being requested and played.
	PhaseRunning Phase = "running"
	// PhaseDrainRequested: a stop was requested; an in-progress game may
	// finish, but no new game is started.
	PhaseDrainRequested Phase = "drain_requested"
	// PhaseStopped: all workers have exited. Terminal.
	PhaseStopped Phase = "stopped"
)
