package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/log"
	"github.com/ardnew/klisp/pkg"
	"github.com/ardnew/klisp/profile"
)

// Init writes the configuration file from the current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// ignoredFlags are flag name prefixes never written to the config file.
var ignoredFlags = []string{"help", "version", profile.Tag}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if i.Force {
		flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	file, err := os.OpenFile(confPath, flag, 0o600)
	if err != nil {
		e := ErrWriteConfig.With(slog.String("file", confPath))
		if os.IsExist(err) {
			return e.With(slog.Bool("exists", true)).Wrap(ErrFileExists)
		}

		return e.Wrap(err)
	}
	defer file.Close()

	if err := writeConfig(file, ktx); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath))

	return nil
}

// writeConfig writes one definition per flag that has a value.
func writeConfig(w io.Writer, ktx *kong.Context) error {
	if _, err := fmt.Fprintf(w, "; %s configuration\n", pkg.Name); err != nil {
		return err
	}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignoredFlags, func(p string) bool {
			return strings.HasPrefix(flag.Name, p)
		}) {
			continue
		}

		v, ok := configValue(ktx.FlagValue(flag))
		if !ok {
			continue
		}

		if _, err := fmt.Fprintf(w, "(def %s %s)\n", flag.Name, lang.Quote(v)); err != nil {
			return err
		}
	}

	return nil
}

// configValue converts a flag value to klisp data. Empty strings and empty
// slices are left out so that the flag keeps its default.
func configValue(x any) (lang.Value, bool) {
	if x == nil {
		return nil, false
	}

	rv := reflect.ValueOf(x)

	switch rv.Kind() {
	case reflect.String:
		if rv.Len() == 0 {
			return nil, false
		}

		return lang.String(rv.String()), true

	case reflect.Slice:
		if rv.Len() == 0 {
			return nil, false
		}
	}

	return lang.FromNative(x), true
}
