package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"crdtkv/internal/rlog"
	"crdtkv/internal/storage"
	"crdtkv/internal/syncengine"
	"crdtkv/internal/transport"
)

func syncCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle against a sequencing server",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := storage.Open(dataPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			tp := transport.New(server, timeout)
			eng := syncengine.New(repo, tp)

			if err := eng.RunCycle(context.Background()); err != nil {
				return err
			}
			rlog.Logger.Info().Msg("sync cycle complete")
			fmt.Println("sync complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8090", "sync server base URL")
	return cmd
}
