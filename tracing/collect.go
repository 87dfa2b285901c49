package tracing

import "github.com/sarchlab/akitaio/sim"

// Trace attaches the tracer to every given port model.
func Trace(t *PayloadTracer, domains ...sim.Hookable) {
	for _, d := range domains {
		d.AcceptHook(t)
	}
}
