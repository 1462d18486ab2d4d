package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type ConfigCmd struct {
	flags *Flags
}

func NewConfigCmd(flags *Flags) *ConfigCmd {
	return &ConfigCmd{flags: flags}
}

func (cmd *ConfigCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "config",
		Usage:       "Print the effective configuration",
		UsageText:   "prfeed config",
		Description: "Prints the configuration after defaults and the config file are applied, as YAML.",
		Action:      cmd.run,
	})
	return app
}

func (cmd *ConfigCmd) run(_ context.Context, c *cli.Command) error {
	data, err := cmd.flags.Config.YAML()
	if err != nil {
		return fmt.Errorf("render config: %w", err)
	}
	_, err = c.Root().Writer.Write(data)
	return err
}
