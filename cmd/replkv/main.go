// cmd/replkv is the CLI entry-point for one replica, built with Cobra.
//
// Usage:
//
//	replkv set mytable row1 name "Ada"          --data /var/replkv/a.db
//	replkv setrow mytable row1 '{"name":"Ada"}' --data /var/replkv/a.db
//	replkv get mytable row1                     --data /var/replkv/a.db
//	replkv delete mytable row1                  --data /var/replkv/a.db
//	replkv rows mytable                          --data /var/replkv/a.db
//	replkv sync --server http://localhost:8090  --data /var/replkv/a.db
//
// Every subcommand opens its own bbolt file at --data and closes it before
// returning — there is no long-running server here, only a replica's local
// state and, for sync, one round trip to a sequencer.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"crdtkv/internal/rlog"
)

var (
	dataPath string
	timeout  time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "replkv",
		Short: "CLI for a single replkv replica",
	}

	root.PersistentFlags().StringVar(&dataPath, "data", "replkv.db", "path to this replica's bbolt data file")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "sync HTTP request timeout")

	root.AddCommand(setCmd(), setRowCmd(), getCmd(), deleteCmd(), rowsCmd(), syncCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rlog.Init(rlog.Config{Level: rlog.InfoLevel})
}
