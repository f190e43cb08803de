package log_test

import (
	"os"

	"github.com/ardnew/klisp/log"
)

func Example() {
	logger := log.Make(os.Stdout, log.WithTimeLayout("none"))

	logger.Info("session opened", log.Session("repl"))
	logger.Debug("not shown")

	// Output:
	// level=INFO msg="session opened" session=repl
}

func Example_json() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatJSON),
		log.WithLevel(log.LevelTrace),
		log.WithTimeLayout(""))

	logger.Trace("published", log.Document("a.kl"), log.Version(2))

	// Output:
	// {"level":"TRACE","msg":"published","doc":"a.kl","version":2}
}
