// Package logger builds context-aware *slog.Logger instances behind a single
// factory, New, configured with functional options.
//
// Registered ContextExtractor callbacks run on every log call and append
// attributes pulled from the record's context, so values like the active
// tenant travel with the context instead of being threaded through every
// call site. Helper constructors in attr.go (Component, TenantID, JobID,
// Error, ...) keep attribute names consistent across packages.
//
// # Usage
//
//	import "github.com/sentinelhq/authsync/pkg/logger"
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Environment, "authsync"),
//	    logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "permissions confirmed",
//	    logger.Component("permsync"),
//	    logger.Version(snap.Version),
//	)
//
// # Configuration
//
//   - WithEnvironment / WithDevelopment / WithStaging / WithProduction –
//     per-environment defaults for format and level.
//   - WithFormat / WithTextFormatter / WithJSONFormatter – output format.
//   - WithLevel – minimum slog.Level.
//   - WithAttr – static attributes applied to every record.
//   - WithContextExtractors / WithContextValue – attributes from context.
//
// Error and Errors emit nothing for nil errors, so they can be passed
// unconditionally.
package logger
