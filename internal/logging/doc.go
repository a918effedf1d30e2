// Package logging provides structured logging for gitlabber.
//
// # Overview
//
// The package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Automatic context field injection (run.id, project.path)
//   - Secret redaction by field name and value pattern
//   - Level-aware sampling (errors never sampled)
//
// Logs are written to stderr so that stdout carries only printed trees.
//
// # Usage
//
//	cfg, err := logging.FromConfig(appCfg.Logging)
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRunID(ctx, logging.NewRunID())
//	ctx = logging.WithProjectPath(ctx, "org/teamA/svc1")
//	logger.Info(ctx, "project cloned", zap.Duration("duration", d))
//
// Output:
//
//	{
//	  "ts": "2025-11-24T10:15:30Z",
//	  "level": "info",
//	  "msg": "project cloned",
//	  "run.id": "6f1c...",
//	  "project.path": "org/teamA/svc1",
//	  "duration": "1.2s"
//	}
//
// # Redaction
//
// Fields whose key names a credential (token, password, ...) are replaced by
// "[REDACTED]". String values matching a token pattern, such as a GitLab
// personal access token or a URL with embedded credentials, are replaced by
// "[REDACTED:pattern]". Use Secret for config.Secret values.
//
// # Testing
//
//	logger := logging.NewTestLogger()
//	doWork(logger.Logger)
//	logger.AssertLogged(t, zapcore.InfoLevel, "project cloned")
//	logger.AssertNoSecrets(t)
package logging
