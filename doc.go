// Package scopedtrace captures scoped stack traces and merges them into a
// call tree.
//
// Use [Root] (or [Run]) to define the upper bound of an execution trace and
// [Leaf] to define its lower bounds, the points at which stacks are
// captured. A single root usually observes several leaves, so the result is
// a tree whose shared ancestry is collapsed:
//
//	func main() {
//		trace := scopedtrace.Run(context.Background(), func(ctx context.Context) {
//			foo(ctx)
//		})
//		fmt.Println(trace)
//	}
//
//	func foo(ctx context.Context) {
//		bar(ctx)
//		baz(ctx)
//	}
//
//	func bar(ctx context.Context) { scopedtrace.Leaf(ctx) }
//	func baz(ctx context.Context) { scopedtrace.Leaf(ctx) }
//
// prints something like:
//
//	╼ main.main.func1 at /src/main.go:10
//	  ├╼ main.foo at /src/main.go:15
//	  │  └╼ main.bar at /src/main.go:19
//	  └╼ main.foo at /src/main.go:16
//	     └╼ main.baz at /src/main.go:20
//
// # Context propagation
//
// The active root travels with the [context.Context] handed to the wrapped
// function. Leaves on other goroutines are captured only when those
// goroutines are given that context, or re-install the root's [Handle] with
// [WithHandle]. A [Leaf] on a context without an active root does nothing.
//
// # Fidelity
//
// Stack walking and symbol resolution never fail loudly. A walk that cannot
// proceed yields a shorter capture and a frame that cannot be resolved is
// displayed by its address. Symbols are resolved the first time a trace is
// rendered or inspected, not when stacks are captured.
package scopedtrace
