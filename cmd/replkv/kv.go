package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"crdtkv/internal/db"
)

func openDB() (*db.DB, error) {
	return db.Open(dataPath)
}

// ─── set ──────────────────────────────────────────────────────────────────────

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <table> <row> <field> <value>",
		Short: "Write one field of one row",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer d.Close()

			return d.SetCell(args[0], args[1], args[2], decodeArg(args[3]))
		},
	}
}

// ─── setrow ───────────────────────────────────────────────────────────────────

func setRowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setrow <table> <row> <json-object>",
		Short: "Write every field of a row from a JSON object",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var values map[string]any
			if err := json.Unmarshal([]byte(args[2]), &values); err != nil {
				return fmt.Errorf("replkv: value must be a JSON object: %w", err)
			}

			d, err := openDB()
			if err != nil {
				return err
			}
			defer d.Close()

			return d.SetRow(args[0], args[1], values)
		},
	}
}

// ─── get ──────────────────────────────────────────────────────────────────────

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <table> <row>",
		Short: "Print the live fields of one row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer d.Close()

			fields, err := d.Get(args[0], args[1])
			if err != nil {
				return err
			}
			if fields == nil {
				fmt.Printf("%s/%s: not found\n", args[0], args[1])
				return nil
			}
			prettyPrint(fields)
			return nil
		},
	}
}

// ─── delete ───────────────────────────────────────────────────────────────────

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <row>",
		Short: "Tombstone a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.DeleteRow(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("deleted %s/%s\n", args[0], args[1])
			return nil
		},
	}
}

// ─── rows ─────────────────────────────────────────────────────────────────────

func rowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rows <table>",
		Short: "List every row of a table that still has live fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := openDB()
			if err != nil {
				return err
			}
			defer d.Close()

			rows, err := d.GetAllRows(args[0])
			if err != nil {
				return err
			}
			prettyPrint(rows)
			return nil
		},
	}
}

// decodeArg lets set accept either a JSON literal (42, "x", true, {..}) or
// a bare string, so `replkv set t r n hello` doesn't require callers to
// quote every plain string argument.
func decodeArg(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func prettyPrint(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(data))
}
