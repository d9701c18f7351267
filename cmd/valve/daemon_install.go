package main

import (
	"github.com/spf13/cobra"

	"github.com/zachwinter/valve/pkg/daemon"
	"github.com/zachwinter/valve/pkg/logging"
)

var installCommand = &cobra.Command{
	Use:   "install",
	Short: "Install valve as an OS service (out of core; inert template)",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return daemon.InstallService(logging.RootLogger)
	},
}

var uninstallCommand = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the installed valve OS service",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return daemon.UninstallService(logging.RootLogger)
	},
}

var startCommand = &cobra.Command{
	Use:   "start",
	Short: "Start the installed valve OS service",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return daemon.StartService(logging.RootLogger)
	},
}

var stopCommand = &cobra.Command{
	Use:   "stop",
	Short: "Stop the installed valve OS service",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return daemon.StopService(logging.RootLogger)
	},
}
