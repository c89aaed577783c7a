package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tablekit/tablekit/internal/db"
)

func newDescribeCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "describe <database> <table>",
		Short: "Show the columns and constraints of a table",
		Example: `  tablekit describe school Students
  tablekit describe school Students --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(args[0], args[1], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the table schema as JSON")

	return cmd
}

func runDescribe(dbName, tableName string, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	d, err := openDatabase(cfg, dbName, logger)
	if err != nil {
		return err
	}
	defer d.Disconnect()

	t, err := d.Table(context.Background(), tableName)
	if err != nil {
		return err
	}

	if jsonOutput {
		info := t.Info()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "    ")
		return enc.Encode(info.Doc())
	}

	printTable(t)
	return nil
}

func printTable(t *db.Table) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tTYPE\tNULL\tKEY\tDEFAULT\tREFERENCES")
	for _, c := range t.Columns() {
		typ := string(c.Type())
		if length, ok := c.Length(); ok {
			typ = fmt.Sprintf("%s(%d)", typ, length)
		}

		null := "NO"
		if c.Nullable() {
			null = "YES"
		}

		key := ""
		switch {
		case c.PrimaryKey():
			key = "PRI"
		case c.Unique():
			key = "UNI"
		}

		def := ""
		if v, ok := c.Default(); ok {
			def = v
		}

		ref := ""
		if fk := c.ForeignKey(); fk != nil {
			ref = fmt.Sprintf("%s(%s)", fk.Table, fk.Column)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.Name(), typ, null, key, def, ref)
	}
	w.Flush()

	if uniques := t.UniqueConstraints(); len(uniques) > 0 {
		fmt.Println()
		for _, u := range uniques {
			fmt.Printf("UNIQUE %s (%s)\n", u.Name, strings.Join(u.Columns, ", "))
		}
	}
}
