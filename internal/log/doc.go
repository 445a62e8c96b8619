// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (SMTP passwords, DSNs, cookies)
//   - Colorized console output through tint, JSON output for aggregation
//   - Configurable log levels with verbose mode support
//
// # Security Features
//
// The SecureHandler sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - SMTP credentials and database connection strings
//   - Secret values detected by pattern matching (bearer tokens, JWTs)
//   - Passwords embedded in connection URLs
//
// Even in verbose mode, sensitive values are masked so that logs can be
// shared without leaking mail or database credentials.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("opening store",
//	    "driver", "postgres",
//	    "dsn", "postgres://watch:pw@db/estatewatch", // masked
//	)
//
//	slog.SetDefault(logger)
package log
