package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeployCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update the stack and print its outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			_, b, _, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			outputs, err := b.deployer.Deploy(cmd.Context())
			if err != nil {
				return err
			}
			return printOutputs(cmd.OutOrStdout(), outputs, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")
	return cmd
}

func newDestroyCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "destroy",
		Short: "Delete every resource in the stack and remove the stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, b, _, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			if err := b.deployer.Destroy(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stack %s destroyed\n", cfg.StackName)
			return nil
		},
	}
}

func newOutputsCmd(opts *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "Print the outputs of the deployed stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			_, b, _, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			outputs, err := b.deployer.Outputs(cmd.Context())
			if err != nil {
				return err
			}
			return printOutputs(cmd.OutOrStdout(), outputs, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")
	return cmd
}
