package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/moffa90/go-flctl/flash"
	"github.com/moffa90/go-flctl/flashsim"
	"github.com/moffa90/go-flctl/flctl"
	"github.com/moffa90/go-flctl/image"
	"github.com/moffa90/go-flctl/monitor"
)

// settings holds the global flags.
type settings struct {
	port     string
	baud     int
	simState string
	timeout  time.Duration
	execBank string
	verbose  bool
}

// app holds the settings and the target shared by every command of a run,
// including the commands of a script.
type app struct {
	settings

	logOut io.Writer
	logger *cliLogger

	sim    *flashsim.Sim
	link   io.Closer
	engine *flash.Engine
}

// run executes one flashctl command line.
func run(ctx context.Context, args []string, stdout, logOut io.Writer) error {
	a := &app{logOut: logOut}
	root := newRootCmd(a, &a.settings)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(logOut)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

// newRootCmd builds the command tree. Global flags are parsed into dst;
// script lines pass a scratch value and reject any that are set.
func newRootCmd(a *app, dst *settings) *cobra.Command {
	root := &cobra.Command{
		Use:           "flashctl",
		Short:         "Erase, program and read MSP432 main flash",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.logger == nil {
				a.logger = newLogger(a.logOut, a.verbose)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&dst.port, "port", "p", "", "serial port of a target running the monitor (default: simulator)")
	flags.IntVar(&dst.baud, "baud", 115200, "serial baud rate")
	flags.StringVar(&dst.simState, "sim-state", "", "Intel HEX file holding the simulator flash contents")
	flags.DurationVar(&dst.timeout, "timeout", 0, "controller flag timeout (0 waits forever)")
	flags.StringVar(&dst.execBank, "exec-bank", "0", "where the flashing code runs: 0, 1 or sram")
	flags.BoolVarP(&dst.verbose, "verbose", "v", false, "log every controller step")

	root.AddCommand(
		newEraseCmd(a),
		newWriteCmd(a),
		newFastWriteCmd(a),
		newReadCmd(a),
		newProgramCmd(a),
		newDumpCmd(a),
		newScriptCmd(a),
		newServeCmd(a),
	)
	return root
}

// execOption maps --exec-bank to an engine option.
func (a *app) execOption() (flash.Option, error) {
	switch a.execBank {
	case "0":
		return flash.WithExecBank(flctl.Bank0), nil
	case "1":
		return flash.WithExecBank(flctl.Bank1), nil
	case "sram":
		return flash.WithExecAddress(func() uint32 { return flctl.SRAMStart }), nil
	default:
		return nil, fmt.Errorf("invalid --exec-bank %q: want 0, 1 or sram", a.execBank)
	}
}

// open connects to the target once per run.
func (a *app) open() (*flash.Engine, error) {
	if a.engine != nil {
		return a.engine, nil
	}

	exec, err := a.execOption()
	if err != nil {
		return nil, err
	}

	var bus flash.Bus
	if a.port != "" {
		client, err := a.dial()
		if err != nil {
			return nil, err
		}
		bus = client
	} else {
		sim, err := a.openSim()
		if err != nil {
			return nil, err
		}
		bus = sim
	}

	a.engine = flash.New(bus,
		flash.WithLogger(a.logger),
		flash.WithWaitTimeout(a.timeout),
		exec,
	)
	return a.engine, nil
}

// dial opens the serial port and checks that a monitor answers.
func (a *app) dial() (*monitor.Client, error) {
	port, err := a.openPort()
	if err != nil {
		return nil, err
	}

	client := monitor.NewClient(port, monitor.WithLogger(a.logger))
	info, err := client.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping %s: %w", a.port, err)
	}
	a.logger.Info("target connected",
		"port", a.port,
		"monitor", fmt.Sprintf("%d.%d", info.Major, info.Minor),
	)
	return client, nil
}

func (a *app) openPort() (serial.Port, error) {
	port, err := serial.Open(a.port, &serial.Mode{BaudRate: a.baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.port, err)
	}
	a.link = port
	return port, nil
}

// openSim creates the simulator and loads --sim-state if the file exists.
func (a *app) openSim() (*flashsim.Sim, error) {
	if a.sim != nil {
		return a.sim, nil
	}

	sim := flashsim.New()
	if a.simState != "" {
		img, err := image.Parse(a.simState)
		switch {
		case errors.Is(err, os.ErrNotExist), errors.Is(err, image.ErrNoData):
			// no file yet, or a state saved with everything erased
		case err != nil:
			return nil, fmt.Errorf("load simulator state: %w", err)
		default:
			for _, blk := range img.Blocks() {
				if err := sim.Fill(blk.Addr, blk.Words); err != nil {
					return nil, fmt.Errorf("load simulator state: %w", err)
				}
			}
			a.logger.Debug("simulator state loaded", "file", a.simState, "bytes", img.Size())
		}
	}
	a.sim = sim
	return sim, nil
}

// close saves the simulator state and releases the serial port.
func (a *app) close() error {
	var err error
	if a.sim != nil && a.simState != "" {
		err = a.saveSim()
	}
	if a.link != nil {
		if cerr := a.link.Close(); err == nil {
			err = cerr
		}
		a.link = nil
	}
	return err
}

func (a *app) saveSim() error {
	img := image.FromWords(0, a.sim.Words(0, flctl.FlashSize/flctl.WordSize))
	if err := writeImage(a.simState, img); err != nil {
		return fmt.Errorf("save simulator state: %w", err)
	}
	return nil
}
