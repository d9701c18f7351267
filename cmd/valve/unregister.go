package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zachwinter/valve/pkg/control"
)

func unregisterMain(_ *cobra.Command, arguments []string) error {
	client, err := control.Dial(rootConfiguration.port)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Unregister(arguments[0]); err != nil {
		return err
	}

	fmt.Println("unregistered", arguments[0])
	return nil
}

var unregisterCommand = &cobra.Command{
	Use:   "unregister <target>",
	Short: "Unregister a repository by id or path",
	Args:  cobra.ExactArgs(1),
	RunE:  unregisterMain,
}
