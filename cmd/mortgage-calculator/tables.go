package main

import (
	"fmt"
	"strings"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newTablesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Work with rate table documents",
	}

	var path string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check that a rate table document loads and compiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := ratetables.LoadFile(path)
			if err != nil {
				a.logger.Error("rate tables are invalid",
					zap.String("op", "main.tablesValidate"),
					zap.String("path", path),
					zap.Error(err),
				)
				return err
			}

			names := make([]string, 0, len(tables.LoanTypesConfigured()))
			for _, lt := range tables.LoanTypesConfigured() {
				names = append(names, lt.String())
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "rate tables %s are valid: loan types %s\n",
				tables.Version, strings.Join(names, ", "))
			return err
		},
	}
	validate.Flags().StringVar(&path, "tables", constants.DefaultTablesFile, "path to a YAML or JSON rate table document")

	cmd.AddCommand(validate)
	return cmd
}
