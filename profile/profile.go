package profile

// Stopper ends a running profile.
type Stopper interface{ Stop() }

// Profiler describes one profiling session.
type Profiler struct {
	// Mode is one of [Modes]. An empty or unknown mode disables profiling.
	Mode string
	// Path is the output directory. Empty selects the working directory.
	Path string
	// Quiet suppresses the profiler's own log output.
	Quiet bool
}

// Start begins profiling and returns the handle that ends it. Stop is always
// safe to call, including when profiling is disabled.
func (p Profiler) Start() Stopper {
	if !Enabled || p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
