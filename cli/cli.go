package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/klisp/cli/cmd"
	"github.com/ardnew/klisp/pkg"
)

// CLI is the top-level command-line interface for klisp.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Source   []string `help:"Source file(s) evaluated before any other input, or '-' for stdin." name:"source" short:"s" type:"existingfile"`
	DB       string   `default:"${db}" help:"Storage database file, or ':memory:' for none that persists." placeholder:"PATH"`
	MaxSteps int      `default:"0"     help:"Evaluation steps allowed per top-level form (0 is unlimited)."`

	Repl    cmd.Repl    `cmd:"" default:"withargs" help:"Start an interactive session (default)."`
	Eval    cmd.Eval    `cmd:""                    help:"Evaluate files and expressions."`
	Check   cmd.Check   `cmd:""                    help:"Report diagnostics without writing to storage."`
	Fmt     cmd.Fmt     `cmd:""                    help:"Format source or convert it to JSON or YAML."`
	LSP     cmd.LSP     `cmd:"" name:"lsp"         help:"Run the language server on stdin and stdout."`
	Init    cmd.Init    `cmd:""                    help:"Write the configuration file from the current flags."`
	Version cmd.Version `cmd:""                    help:"Print the version."`
}

// Run executes the klisp CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + configExt)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"db":                 cachePath(baseDB),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logger flags take effect before parsing, wherever they appear.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configPath(baseConfig+".json")),
		kong.Configuration(resolve(ctx), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSourceFiles(ctx, cli.Source)
	ctx = cmd.WithOptions(ctx, cmd.Options{
		DB:       cli.DB,
		MaxSteps: cli.MaxSteps,
		CacheDir: pkg.CacheDir(),
	})

	cli.Log.start(ctx)

	// No-op unless built with the pprof tag and a mode is selected.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
