package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zachwinter/valve/pkg/control"
)

func registerMain(_ *cobra.Command, arguments []string) error {
	client, err := control.Dial(rootConfiguration.port)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Register(arguments[0]); err != nil {
		return err
	}

	fmt.Println("registered", arguments[0])
	return nil
}

var registerCommand = &cobra.Command{
	Use:   "register <path>",
	Short: "Register a repository with the running daemon",
	Args:  cobra.ExactArgs(1),
	RunE:  registerMain,
}
