// Package dispatch runs handler invocations with panic recovery and timing.
//
// The Executor converts a panicking invocation into a Result instead of
// crashing the goroutine, except for panics the caller marks as fatal:
//
//	exec := dispatch.NewExecutor(
//	    dispatch.WithPanicHandler(func(v any, stack []byte) {
//	        log.Printf("panic in handler: %v\n%s", v, stack)
//	    }),
//	    dispatch.WithFatal(func(v any) bool {
//	        _, ok := v.(*MyDefect)
//	        return ok
//	    }),
//	)
//	result := exec.Execute(ctx, func(ctx context.Context) error {
//	    return work(ctx)
//	})
package dispatch
