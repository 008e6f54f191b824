package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cbe/config"
	"cbe/misc"
	"cbe/state"
)

// before loads configuration, opens debug report when asked to and builds
// program log. Bare invocation (help, version) leaves environment empty.
func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.NArg() == 0 {
		return ctx, nil
	}
	env := state.EnvFromContext(ctx)
	if err := setupEnv(env, cmd.String("config"), cmd.Bool("debug")); err != nil {
		return ctx, err
	}
	env.RedirectStdLog()

	env.Log.Debug("Session started",
		zap.Strings("args", os.Args),
		zap.String("ver", misc.GetVersion()),
		zap.String("runtime", runtime.Version()),
		zap.String("hash", misc.GetGitHash()))
	switch {
	case env.Rpt != nil:
		env.Log.Info("Collecting debug report", zap.String("location", env.Rpt.Name()))
	case cmd.String("config") == "":
		env.Log.Info("No configuration file, running with defaults")
	}
	return ctx, nil
}

func setupEnv(env *state.LocalEnv, configFile string, withReport bool) (err error) {
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if withReport {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return fmt.Errorf("unable to prepare debug report: %w", err)
		}
		if configFile != "" {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData("config/"+filepath.Base(configFile), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return fmt.Errorf("unable to prepare logs: %w", err)
	}
	return nil
}

// after finalizes debug report and cleans up after logging. Log is synced
// before report is closed, so errors from here on go to the caller only.
func after(ctx context.Context, cmd *cli.Command) error {
	env := state.EnvFromContext(ctx)
	if env.Log != nil {
		env.Log.Debug("Session ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}
	env.RestoreStdLog()

	var err error
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	if env.Cfg != nil {
		err = multierr.Append(err, dropEmptyPanicLog(env.Cfg.Logging.FileLogger.Destination))
	}
	return err
}

// dropEmptyPanicLog removes crash output file created next to program log
// when nothing was written there.
func dropEmptyPanicLog(logFile string) error {
	if logFile == "" {
		return nil
	}
	debug.SetCrashOutput(nil, debug.CrashOptions{})

	name := filepath.Join(filepath.Dir(logFile), misc.GetAppName()+"-panic.log")
	fi, err := os.Stat(name)
	if err != nil || fi.Size() > 0 {
		return nil
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unable to remove empty panic log '%s': %w", name, err)
	}
	return nil
}

// errLogged is set once failure has been reported through program log so
// main does not repeat it on stderr.
var errLogged bool

func onExitError(ctx context.Context, _ *cli.Command, err error) {
	if env := state.EnvFromContext(ctx); env.Log != nil {
		env.Log.Error("Session ended with error", zap.Error(err))
		errLogged = true
	}
}

func onUsageError(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func onUnknownCommand(ctx context.Context, _ *cli.Command, name string) {
	if env := state.EnvFromContext(ctx); env.Log != nil {
		env.Log.Warn("Unknown command, nothing to do", zap.String("command", name))
		return
	}
	fmt.Fprintf(os.Stderr, "Unknown command %q, nothing to do\n", name)
}
