package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-flctl/monitor"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulated device over a serial port",
		Long: `Serve the simulated device over the serial port given with --port, so
another flashctl (or any monitor client) can drive it as if it were a
target. State persists through --sim-state when the server stops.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.port == "" {
				return fmt.Errorf("serve needs --port")
			}
			sim, err := a.openSim()
			if err != nil {
				return err
			}
			port, err := a.openPort()
			if err != nil {
				return err
			}

			a.logger.Info("serving simulator", "port", a.port, "baud", a.baud)
			srv := monitor.NewServer(sim, monitor.WithLogger(a.logger))

			// closing the port is the only way to unblock a pending read
			stop := context.AfterFunc(cmd.Context(), func() { port.Close() })
			err = srv.Serve(cmd.Context(), port)
			if !stop() {
				a.link = nil
				return nil
			}
			return err
		},
	}
}
