// Package cli implements the tablekit command tree.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tablekit",
		Short: "Inspect and manage relational database schemas",
		Long: `Tablekit connects to SQL databases, introspects their tables, columns,
foreign keys, and unique constraints, and exports the schema as a JSON
document. It can also serve the schemas of configured databases over a
read-only HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tablekit.yaml)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newTablesCmd())
	cmd.AddCommand(newDescribeCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tablekit")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.tablekit")
	}

	viper.SetEnvPrefix("TABLEKIT")
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
