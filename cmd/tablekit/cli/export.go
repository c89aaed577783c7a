package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <database>",
		Short: "Export a database schema to a JSON file",
		Long: `Export introspects every table of the named database and writes the
schema document as indented JSON. The output path defaults to
<export.dir>/<database>.json from the configuration file.`,
		Example: `  tablekit export school
  tablekit export school --out schemas/school.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(args[0], out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path")

	return cmd
}

func runExport(name, out string) error {
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

	if out == "" {
		dir := cfg.Export.Dir
		if dir == "" {
			dir = "."
		}
		out = filepath.Join(dir, name+".json")
	}

	if err := d.SaveSchema(context.Background(), out); err != nil {
		return err
	}
	fmt.Printf("Schema for %q written to %s\n", name, out)
	return nil
}
