package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zachwinter/valve/pkg/control"
)

func listMain(_ *cobra.Command, _ []string) error {
	client, err := control.Dial(rootConfiguration.port)
	if err != nil {
		return err
	}
	defer client.Close()

	items, err := client.List()
	if err != nil {
		return err
	}

	if len(items) == 0 {
		fmt.Println("no codebases registered")
		return nil
	}
	for _, item := range items {
		fmt.Printf("%s\t%s\n", item[0], item[1])
	}
	return nil
}

var listCommand = &cobra.Command{
	Use:   "list",
	Short: "List registered repositories",
	Args:  cobra.NoArgs,
	RunE:  listMain,
}
