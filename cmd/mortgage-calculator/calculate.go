package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/iwvelando/mortgage-calculator/internal/mortgage"
	"github.com/iwvelando/mortgage-calculator/pkg/output"
	"github.com/iwvelando/mortgage-calculator/pkg/ratetables"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newCalculateCommand(a *app) *cobra.Command {
	var requestPath string
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Price a home purchase",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, requestPath, "main.calculate", func(calc *mortgage.Calculator, values map[string]interface{}) (interface{}, error) {
				in, err := mortgage.ParsePurchaseRequest(values)
				if err != nil {
					return nil, err
				}
				return calc.Calculate(in)
			})
		},
	}
	cmd.Flags().StringVar(&requestPath, "request", "", "YAML or JSON request file, or - for stdin")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func newRefinanceCommand(a *app) *cobra.Command {
	var requestPath string
	cmd := &cobra.Command{
		Use:   "refinance",
		Short: "Price a refinance of an existing loan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, requestPath, "main.refinance", func(calc *mortgage.Calculator, values map[string]interface{}) (interface{}, error) {
				in, err := mortgage.ParseRefinanceRequest(values)
				if err != nil {
					return nil, err
				}
				return calc.Refinance(in)
			})
		},
	}
	cmd.Flags().StringVar(&requestPath, "request", "", "YAML or JSON request file, or - for stdin")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func (a *app) run(cmd *cobra.Command, requestPath, op string, compute func(*mortgage.Calculator, map[string]interface{}) (interface{}, error)) error {
	values, err := readRequest(cmd.InOrStdin(), requestPath)
	if err != nil {
		return err
	}

	calc, err := a.calculator()
	if err != nil {
		return err
	}

	result, err := compute(calc, values)
	if err != nil {
		if errors.Is(err, mortgage.ErrValidation) {
			for _, fe := range mortgage.ValidationErrors(err) {
				a.logger.Warn("invalid request field",
					zap.String("op", op),
					zap.String("field", fe.Field),
					zap.String("error", fe.Message),
				)
			}
		}
		return err
	}

	return output.Write(cmd.OutOrStdout(), a.outputFormat, result)
}

// calculator publishes the configured tables, or the built-in ones, into a
// fresh store.
func (a *app) calculator() (*mortgage.Calculator, error) {
	tables := ratetables.NewStore(a.logger)
	if a.conf.Tables.Path != "" {
		if _, err := tables.LoadFile(a.conf.Tables.Path); err != nil {
			return nil, err
		}
	} else if _, err := tables.Replace(ratetables.Default(), "builtin"); err != nil {
		return nil, err
	}
	return mortgage.NewCalculator(tables, a.logger), nil
}

// readRequest decodes a flat request document. JSON is accepted as a subset
// of YAML.
func readRequest(stdin io.Reader, path string) (map[string]interface{}, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading request %s, %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("request %s is empty", path)
	}

	var values map[string]interface{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("error decoding request %s, %w", path, err)
	}
	if values == nil {
		values = make(map[string]interface{})
	}
	return values, nil
}
