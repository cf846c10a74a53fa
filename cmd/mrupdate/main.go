package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/google/subcommands"

	"github.com/tie/mrupdate/logging"
)

const programName = "mrupdate"

var logger = logging.New(os.Stderr, logging.Options{})

func main() {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.Bool("h", false, "alias for help")
	fs.Bool("help", false, "print usage")
	verbose := fs.Bool("v", false, "log debug messages")
	quiet := fs.Bool("q", false, "log warnings and errors only")
	configPath := fs.String("config", "", "config file path (default "+defaultConfig+" if present)")

	cdr := subcommands.NewCommander(fs, programName)
	cdr.Register(&CheckCommand{}, "")
	cdr.Register(&ApplyCommand{}, "")
	cdr.Register(&UpdateCommand{}, "")
	cdr.Register(&DownloadCommand{}, "")
	cdr.Register(&FormatCommand{}, "")
	cdr.Register(&CleanCommand{}, "")
	cdr.Register(cdr.HelpCommand(), "help")
	cdr.Register(cdr.FlagsCommand(), "help")
	cdr.Register(cdr.CommandsCommand(), "help")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	logger = logging.New(os.Stderr, logging.OptionsFromEnv(logging.Options{
		Verbose: *verbose,
		Quiet:   *quiet,
	}))

	s, ok := loadConfig(*configPath)
	if !ok {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := cdr.Execute(ctx, &s)
	stop()
	switch status {
	case subcommands.ExitFailure:
		os.Exit(1)
	case subcommands.ExitUsageError:
		os.Exit(2)
	}
}

// settingsArg returns the settings passed to Commander.Execute.
func settingsArg(args []interface{}) *settings {
	for _, arg := range args {
		if s, ok := arg.(*settings); ok {
			return s
		}
	}
	s := defaultSettings()
	return &s
}
