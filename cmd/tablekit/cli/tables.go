package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newTablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables <database>",
		Short: "List the tables of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(args[0])
		},
	}

	return cmd
}

func runTables(name string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	d, err := openDatabase(cfg, name, logger)
	if err != nil {
		return err
	}
	defer d.Disconnect()

	names, err := d.TableNames(context.Background())
	if err != nil {
		return err
	}
	for _, table := range names {
		fmt.Println(table)
	}
	return nil
}
