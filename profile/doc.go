// Package profile provides optional runtime profiling for the ipml command.
//
// Profiling is backed by [github.com/pkg/profile] and compiled in only with
// the "pprof" build tag. Without the tag, [Profiler.Start] returns a no-op
// and [Modes] is empty.
//
// A profile is started for the lifetime of a command:
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/ipml"}
//	defer p.Start().Stop()
//
// Profile files are named after the mode (cpu.pprof, mem.pprof, ...) and
// are read with go tool pprof:
//
//	go tool pprof -http=: /tmp/ipml/cpu.pprof
//
// The tagged build also imports [net/http/pprof], registering its handlers on
// the default HTTP mux.
package profile

// Tag is the build tag required to enable profiling.
const Tag = `pprof`
