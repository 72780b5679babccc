package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newTemplateCmd wires device-template-apply (spec.md §6:
// "device-template-apply{devname, template, variables[]} -> returns ok").
// --var may be repeated; each is a key=value pair passed to text/template
// as the rendering variables map.
func newTemplateCmd() *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   "template-apply <devname-pattern> <template-file>",
		Short: "Render a text/template file and push it as a candidate edit to matching devices",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("template-apply: %w", err)
			}
			variables, err := parseVars(vars)
			if err != nil {
				return err
			}
			if err := a.ctrl.DeviceTemplateApply(context.Background(), args[0], string(body), variables); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&vars, "var", nil, "template variable as key=value (repeatable)")
	return cmd
}

func parseVars(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("template-apply: --var %q is not key=value", p)
		}
		out[k] = v
	}
	return out, nil
}
