// Package logging provides structured logging for backport runs.
//
// This package wraps Go's log/slog to produce JSON-formatted logs that can be
// inspected after a run that ended in a conflict, an abort, or a failed git
// invocation. Logs are written to {repo}/.backport/debug.log by default and
// rotated by size.
//
// # Thread Safety
//
// [Logger] is safe for concurrent use; child loggers created via With*
// methods share the underlying writer. [RotatingWriter] serializes writes
// and rotation with a mutex.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/path/to/repo/.backport", "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	commitLogger := logger.WithCommit("abc123").WithBranch("7.x")
//	commitLogger.WithPhase("resolve").Info("conflicts detected", "files", 2)
//
// Use [NopLogger] in tests or when logging is disabled.
package logging
