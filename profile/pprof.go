//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"

	_ "net/http/pprof" // register HTTP handlers
)

// Enabled reports whether the binary was built with profiling support.
const Enabled = true

// Modes returns the supported profiling modes in sorted order.
var Modes = sync.OnceValue(func() []string {
	return slices.Sorted(maps.Keys(modes))
})

var modes = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

// option accumulates pkg/profile settings.
type option func([]func(*profile.Profile)) []func(*profile.Profile)

func withMode(m string) option {
	return func(o []func(*profile.Profile)) []func(*profile.Profile) {
		if fn, ok := modes[m]; ok {
			o = append(o, fn)
		}

		return o
	}
}

func withPath(p string) option {
	return func(o []func(*profile.Profile)) []func(*profile.Profile) {
		if p != "" {
			o = append(o, profile.ProfilePath(p))
		}

		return o
	}
}

func withQuiet(q bool) option {
	return func(o []func(*profile.Profile)) []func(*profile.Profile) {
		if q {
			o = append(o, profile.Quiet)
		}

		return o
	}
}

func start(p Profiler) Stopper {
	mode := withMode(p.Mode)(nil)
	if len(mode) == 0 {
		return ignore{}
	}

	opts := mode
	for _, o := range []option{withPath(p.Path), withQuiet(p.Quiet)} {
		opts = o(opts)
	}

	return profile.Start(opts...)
}
