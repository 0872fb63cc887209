package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"simindstir/internal/diag"
	"simindstir/pkg/config"
)

const usage = `Usage: simindstir <command> [flags]

Commands:
  convert   convert SIMIND headers (.h00) to STIR headers (.hs)
  dew       dual energy window scatter correction
  tew       triple energy window scatter correction
  par       write an OSEM parameter file from a template
  noise     add Poisson noise to a projection dataset
  view      export projections and sinograms as images
  config    write a default configuration file

Run "simindstir <command> -h" for the flags of a command.
`

// command runs one subcommand with its own flags
type command func(env *environment, args []string) error

var commands = map[string]command{
	"convert": runConvert,
	"dew":     runDEW,
	"tew":     runTEW,
	"par":     runPar,
	"noise":   runNoise,
	"view":    runView,
	"config":  runConfig,
}

// environment carries what every subcommand shares
type environment struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "simindstir: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("no command given")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return cmd(&environment{stdout: stdout, stderr: stderr}, args[1:])
}

// newFlagSet returns a flag set with the shared -config flag
func newFlagSet(env *environment, name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	configPath := fs.String("config", "simindstir.yaml", "Configuration file (defaults apply when missing)")
	return fs, configPath
}

// setup loads the configuration and builds the logger once flags are parsed
func (env *environment) setup(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	env.cfg = cfg
	env.logger = diag.NewLogger(diag.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}, env.stderr)
	return nil
}
