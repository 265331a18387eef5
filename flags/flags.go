package flags

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "RITM_ACCEPTOR"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Plan = &cli.StringFlag{
		Name:     "plan",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("PLAN"),
		Usage:    "Path to the run plan file (eg. 'isolation_test.yaml')",
	}
	WorkDir = &cli.StringFlag{
		Name:    "workdir",
		Value:   ".",
		EnvVars: prefixEnvVars("WORKDIR"),
		Usage:   "Project root that the plan's relative paths resolve against",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   0,
		EnvVars: prefixEnvVars("TIMEOUT"),
		Usage:   "Override the plan's monitoring timeout (0 = use the plan's value)",
	}
	GracePeriod = &cli.DurationFlag{
		Name:    "grace-period",
		Value:   time.Second,
		EnvVars: prefixEnvVars("GRACE_PERIOD"),
		Usage:   "Wait after the graceful terminate signal before killing the emulator",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: prefixEnvVars("LOGDIR"),
		Usage:   "Directory to store per-run emulator output logs",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log.level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "The lowest log level that will be output",
	}
)

var requiredFlags = []cli.Flag{
	Plan,
}

var optionalFlags = []cli.Flag{
	WorkDir,
	Timeout,
	GracePeriod,
	RunInterval,
	LogDir,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
