package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openbb/platform-core/internal/dispatch"
	"github.com/openbb/platform-core/internal/openbberr"
)

var (
	runProvider     string
	runParams       []string
	runEmptyIsOK    bool
	runOutputFormat string
)

var runCmd = &cobra.Command{
	Use:   "run <route>",
	Short: "Dispatch one operation and print the result envelope",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route := args[0]

		p, err := buildPlatform()
		if err != nil {
			return err
		}

		command, ok := p.Commands.Get(route)
		if !ok {
			err := openbberr.New(openbberr.KindUnknownModel, "no operation at %q", route)
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(openbberr.ExitCode(err))
		}

		params := map[string]any{}
		for _, kv := range runParams {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				fmt.Fprintf(os.Stderr, "invalid --param %q, expected key=value\n", kv)
				os.Exit(openbberr.ExitInvalidArguments)
			}
			params[k] = v
		}

		opts := dispatch.Options{Provider: runProvider}
		if runEmptyIsOK {
			f := false
			opts.EmptyAsError = &f
		}

		env, err := p.Dispatcher.Dispatch(cmd.Context(), command.Model, params, opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(openbberr.ExitCode(err))
		}

		switch runOutputFormat {
		case "csv":
			out, err := env.ToCSV()
			if err != nil {
				return err
			}
			fmt.Print(out)
		case "llm":
			fmt.Print(env.ToLLM())
		default:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(env); err != nil {
				return err
			}
		}

		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runProvider, "provider", "", "provider hint (default: route default, then credentials)")
	runCmd.Flags().StringArrayVar(&runParams, "param", nil, "query parameter as key=value (repeatable)")
	runCmd.Flags().BoolVar(&runEmptyIsOK, "allow-empty", false, "return an empty envelope instead of failing on empty data")
	runCmd.Flags().StringVar(&runOutputFormat, "output", "json", "output format: json, csv, llm")
	rootCmd.AddCommand(runCmd)
}
