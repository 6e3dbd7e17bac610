// Package logging provides structured logging for Ganymede on top of
// log/slog.
//
// It adds a trace severity below debug (used by the gateway core for
// per-hop diagnostics), level and format parsing from configuration, and
// writer injection so tests can capture output.
//
// Basic usage:
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "debug",
//	    Format: "text",
//	})
//	if err != nil {
//	    return err
//	}
//	logger.Info("gateway starting", "address", addr)
package logging
