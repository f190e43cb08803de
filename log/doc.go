// Package log is a small leveled logger built on [log/slog].
//
// A [Logger] is a value. Configuration is supplied with functional options
// when it is made and never changes afterwards; [Logger.Wrap] and
// [Logger.With] derive new loggers. The zero Logger discards all records,
// which lets klisp components accept an optional logger without nil checks.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON))
//	logger.Debug("published", log.Document(uri), log.Version(3))
//
// Attributes are always typed [slog.Attr] values. [Err], [Session],
// [Document] and [Version] build the attributes used across klisp.
//
// Five levels are defined, from [LevelTrace] to [LevelError]. Records can be
// encoded as text or JSON and, with [WithPretty], colorized for a terminal.
//
// The package-level functions log through a process-wide default that the
// CLI reconfigures with [Config] once flags are parsed.
package log
