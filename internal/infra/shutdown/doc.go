// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT, SIGTERM or cancellation of a parent context,
// then runs the registered hooks in reverse order under a shared timeout:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	err := h.WaitContext(ctx)
package shutdown
