package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"cbe/misc"
	"cbe/state"
)

func storeFlag() cli.Flag {
	return &cli.StringFlag{Name: "store", Aliases: []string{"s"}, Usage: "use sqlite database `FILE` instead of configured one"}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{Name: "format", Value: "json", Usage: "serialization `FORMAT` of blocks (json, ion)"}
}

func overwriteFlag() cli.Flag {
	return &cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "overwrite existing destination"}
}

// withArgsHelp appends description of positional arguments to standard
// command help.
func withArgsHelp(text string) string {
	return cli.CommandHelpTemplate + "\n" + text
}

func documentCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "render",
			Usage:     "Exports serialized document (JSON) as XHTML page",
			Action:    renderDocument,
			ArgsUsage: "SOURCE [DESTINATION]",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "title", Usage: "document `TITLE`, configured default if absent"},
				&cli.StringFlag{Name: "from-store", Usage: "render stored document `NAME` instead of SOURCE"},
				storeFlag(),
				overwriteFlag(),
			},
			CustomHelpTemplate: withArgsHelp(`SOURCE:
    JSON file with serialized blocks, not needed with --from-store

DESTINATION:
    file or existing directory, for directories file name is produced from
    output_name_template. Current working directory when absent
`),
		},
		{
			Name:      "replay",
			Usage:     "Applies scripted editing session (YAML) and outputs resulting document",
			Action:    replaySession,
			ArgsUsage: "SCRIPT [DESTINATION]",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "load", Usage: "start from stored document `NAME`"},
				&cli.StringFlag{Name: "save", Usage: "store result as `NAME`"},
				storeFlag(),
				formatFlag(),
				overwriteFlag(),
			},
			CustomHelpTemplate: withArgsHelp(`SCRIPT:
    YAML file with editing steps or zip bundle with script.yaml and the
    images it uploads

DESTINATION:
    file to write resulting document to, STDOUT when absent
`),
		},
	}
}

func storeCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "save",
			Usage:     "Stores serialized document (JSON) in database",
			Action:    saveDocument,
			ArgsUsage: "SOURCE NAME",
			Flags:     []cli.Flag{storeFlag()},
		},
		{
			Name:      "load",
			Usage:     "Outputs stored document",
			Action:    loadDocument,
			ArgsUsage: "NAME [DESTINATION]",
			Flags:     []cli.Flag{storeFlag(), formatFlag()},
		},
		{
			Name:   "list",
			Usage:  "Lists stored documents",
			Action: listDocuments,
			Flags:  []cli.Flag{storeFlag()},
		},
		{
			Name:      "delete",
			Usage:     "Removes stored document",
			Action:    deleteDocument,
			ArgsUsage: "NAME",
			Flags:     []cli.Flag{storeFlag()},
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:      "dumpconfig",
		Usage:     "Dumps either default or actual configuration (YAML)",
		Action:    dumpConfiguration,
		ArgsUsage: "DESTINATION",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
		},
		CustomHelpTemplate: withArgsHelp(`DESTINATION:
    file to write configuration to, STDOUT when absent

Actual configuration is default values with configuration file applied on
top. Use --default to see configuration embedded into the program.
`),
	}
}

func newApp() *cli.Command {
	commands := append(documentCommands(), storeCommands()...)
	commands = append(commands, configCommand())
	for _, c := range commands {
		c.OnUsageError = onUsageError
	}
	return &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "headless block based content editor",
		Version:         fmt.Sprintf("%s (%s) : %s", misc.GetVersion(), runtime.Version(), misc.GetGitHash()),
		HideHelpCommand: true,
		Before:          before,
		After:           after,
		OnUsageError:    onUsageError,
		ExitErrHandler:  onExitError,
		CommandNotFound: onUnknownCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log everything and collect debug report archive"},
		},
		Commands: commands,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	err := newApp().Run(ctx, os.Args)
	stop()
	if err != nil {
		if !errLogged {
			fmt.Fprintf(os.Stderr, "Session ended with error: %v\n", err)
		}
		os.Exit(1)
	}
}
