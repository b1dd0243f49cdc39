// Package shutdown provides graceful shutdown for recordsvc-server.
//
// A Handler waits for SIGINT/SIGTERM (or for its context to end), then runs
// the registered hooks in reverse registration order under one timeout.
//
//	h := shutdown.NewHandler(30*time.Second)
//	h.OnShutdown("http server", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
