package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/stevemurr/gwconsole/records"
	"github.com/stevemurr/gwconsole/schema"
)

const mask = "********"

func newListsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show the hosted lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			slot, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer slot.Close()

			keys, err := slot.Keys(ctx)
			if err != nil {
				return fmt.Errorf("list slots: %w", err)
			}
			configured := make(map[string]bool)

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"List", "Title", "Records"})
			for _, name := range a.cfg.ListNames() {
				l, err := a.openList(ctx, slot, name)
				if err != nil {
					return err
				}
				configured[name] = true
				t.AppendRow(table.Row{name, l.Schema().Title, l.Len()})
			}
			t.Render()

			var orphaned []string
			for _, key := range keys {
				if !configured[key] {
					orphaned = append(orphaned, key)
				}
			}
			if len(orphaned) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Stored but not configured: %s\n", strings.Join(orphaned, ", "))
			}
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var (
		format string
		reveal bool
	)

	cmd := &cobra.Command{
		Use:   "show <list>",
		Short: "Show the records of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			slot, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer slot.Close()

			l, err := a.openList(ctx, slot, args[0])
			if err != nil {
				return err
			}

			switch format {
			case "json":
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(l.View())
			case "table":
				renderRecords(cmd, l, reveal)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show passwords and secrets in the table")
	return cmd
}

func renderRecords(cmd *cobra.Command, l *records.List, reveal bool) {
	fields := l.Schema().Fields

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.SetTitle(l.Schema().Title)

	header := table.Row{"#"}
	for _, f := range fields {
		header = append(header, f.Label)
	}
	t.AppendHeader(header)

	for _, row := range l.View().Rows {
		out := table.Row{row.Index}
		for _, f := range fields {
			out = append(out, cell(f, row.Record[f.Name], reveal))
		}
		t.AppendRow(out)
	}
	t.Render()
}

func cell(f schema.Field, v any, reveal bool) string {
	if v == nil {
		return ""
	}
	if schema.Secret(f) && !reveal {
		if s, ok := v.(string); ok && s == "" {
			return ""
		}
		return mask
	}
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(x)
	}
}

// parseAssignments splits field=value arguments.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q (want field=value)", arg)
		}
		out[name] = value
	}
	return out, nil
}

// parseIndex converts a 1-based display index to a position.
func parseIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid index %q (want a number from 1)", arg)
	}
	return n - 1, nil
}

// runEditor opens an editor on target, applies the assignments and saves.
// Field errors are printed one per line before the error is returned.
func runEditor(cmd *cobra.Command, l *records.List, target int, assignments []string) (int, error) {
	values, err := parseAssignments(assignments)
	if err != nil {
		return -1, err
	}
	if err := l.OpenEditor(target); err != nil {
		return -1, err
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := l.SetField(name, values[name]); err != nil {
			return -1, fmt.Errorf("%w (fields: %s)", err, strings.Join(l.Schema().Names(), ", "))
		}
	}

	pos, err := l.Save(cmd.Context())
	var verr *records.ValidationError
	if errors.As(err, &verr) {
		for _, f := range l.Schema().Fields {
			if msg, ok := verr.Fields[f.Name]; ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f.Name, msg)
			}
		}
	}
	return pos, err
}

func newAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <list> field=value...",
		Short: "Add a record to a list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			slot, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer slot.Close()

			l, err := a.openList(ctx, slot, args[0])
			if err != nil {
				return err
			}
			pos, err := runEditor(cmd, l, records.NewRecord, args[1:])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added record #%d to %s\n", pos+1, l.Name())
			return nil
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <list> <index> field=value...",
		Short: "Change fields of a record",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parseIndex(args[1])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			slot, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer slot.Close()

			l, err := a.openList(ctx, slot, args[0])
			if err != nil {
				return err
			}
			if _, err := runEditor(cmd, l, pos, args[2:]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated record #%d of %s\n", pos+1, l.Name())
			return nil
		},
	}
}

func confirm(cmd *cobra.Command, message string) (bool, error) {
	fmt.Fprint(cmd.ErrOrStderr(), message)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false, err
	}
	return strings.TrimSpace(strings.ToLower(answer)) == "y", nil
}

func newDeleteCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <list> <index>...",
		Short: "Delete records by index",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			positions := make(map[int]bool, len(args)-1)
			for _, arg := range args[1:] {
				pos, err := parseIndex(arg)
				if err != nil {
					return err
				}
				positions[pos] = true
			}

			ctx := cmd.Context()
			slot, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer slot.Close()

			l, err := a.openList(ctx, slot, args[0])
			if err != nil {
				return err
			}
			for pos := range positions {
				if err := l.Toggle(pos); err != nil {
					return fmt.Errorf("record #%d: %w", pos+1, err)
				}
			}

			if !force {
				ok, err := confirm(cmd, fmt.Sprintf("Delete %d record(s) from %s? (y/N) ", len(positions), l.Name()))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Deletion cancelled")
					return nil
				}
			}

			if err := l.Dispatch(ctx, records.Delete); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s) from %s\n", len(positions), l.Name())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear <list>",
		Short: "Remove every record of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			slot, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer slot.Close()

			l, err := a.openList(ctx, slot, args[0])
			if err != nil {
				return err
			}

			if !force {
				ok, err := confirm(cmd, fmt.Sprintf("Remove all %d record(s) from %s? (y/N) ", l.Len(), l.Name()))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Clear cancelled")
					return nil
				}
			}

			if err := l.Dispatch(ctx, records.ClearAll); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", l.Name())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}
