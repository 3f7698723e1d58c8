package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	// Respect container CPU quotas so worker auto-sizing stays honest.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], DefaultEnv()))
}

// run dispatches to a subcommand and returns the process exit code.
// A flag-like first argument is treated as an implicit build, so
// "scad2web --scad model.scad" works without naming the command.
func run(ctx context.Context, args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[0], args[1:]
	if strings.HasPrefix(cmd, "-") {
		cmd, rest = "build", args
	}

	switch cmd {
	case "build":
		if err := runBuild(ctx, rest, env); err != nil {
			fmt.Fprintf(env.Stderr, "error: %v\n", err)
			return exitCodeFor(err)
		}
		return ExitSuccess
	case "doctor":
		return runDoctor(ctx, rest, env)
	case "version":
		fmt.Fprintf(env.Stdout, "scad2web %s\n", version)
		return ExitSuccess
	case "help", "--help", "-h":
		return runHelp(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "unknown command %q\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}
}
