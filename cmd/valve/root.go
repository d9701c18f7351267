package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zachwinter/valve/pkg/valve"
)

// defaultPort is the default control-plane port, matching the original
// implementation's well-known port for the valve daemon.
const defaultPort = 5576

// rootConfiguration stores configuration shared by every subcommand.
var rootConfiguration struct {
	// port is the control-plane TCP port.
	port int
	// version indicates whether to print version information and exit.
	version bool
}

var rootCommand = &cobra.Command{
	Use:   "valve",
	Short: "Valve watches repositories and matches filesystem changes against persona rules",
	Run: func(command *cobra.Command, arguments []string) {
		if rootConfiguration.version {
			fmt.Println(valve.Version)
			return
		}
		command.Help()
	},
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.IntVar(&rootConfiguration.port, "port", defaultPort, "control plane TCP port")

	rootCommand.Flags().BoolVarP(&rootConfiguration.version, "version", "v", false, "show version information")

	cobra.EnableCommandSorting = false
	cobra.MousetrapHelpText = ""

	rootCommand.AddCommand(
		runCommand,
		registerCommand,
		unregisterCommand,
		listCommand,
		installCommand,
		uninstallCommand,
		startCommand,
		stopCommand,
	)
}
