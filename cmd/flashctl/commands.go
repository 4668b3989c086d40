package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-flctl/flctl"
	"github.com/moffa90/go-flctl/image"
)

func newEraseCmd(a *app) *cobra.Command {
	var bank int

	cmd := &cobra.Command{
		Use:   "erase [sector-address]",
		Short: "Erase a 4 KiB sector or a whole bank",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (bank >= 0) == (len(args) == 1) {
				return fmt.Errorf("give either a sector address or --bank")
			}
			eng, err := a.open()
			if err != nil {
				return err
			}

			if bank >= 0 {
				if bank > int(flctl.Bank1) {
					return fmt.Errorf("invalid bank %d", bank)
				}
				n, err := eng.EraseBank(cmd.Context(), flctl.Bank(bank))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "erased %d sectors of %s\n", n, flctl.Bank(bank))
				return nil
			}

			addr, err := parseWord(args[0])
			if err != nil {
				return err
			}
			if err := eng.Erase(cmd.Context(), addr); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "erased sector 0x%08X\n", addr)
			return nil
		},
	}
	cmd.Flags().IntVar(&bank, "bank", -1, "erase every sector of this bank")
	return cmd
}

func newWriteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "write <address> <value>...",
		Short: "Program words one at a time with verify and healing",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseWord(args[0])
			if err != nil {
				return err
			}
			words, err := parseWords(args[1:])
			if err != nil {
				return err
			}
			eng, err := a.open()
			if err != nil {
				return err
			}

			n, err := eng.WriteArray(cmd.Context(), words, addr)
			if err != nil {
				return fmt.Errorf("%w (%d of %d words written)", err, n, len(words))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d words at 0x%08X\n", n, addr)
			return nil
		},
	}
}

func newFastWriteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fastwrite <address> <value>...",
		Short: "Burst program up to 16 words at a 16-byte aligned address",
		Args:  cobra.RangeArgs(2, flctl.BurstWords+1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseWord(args[0])
			if err != nil {
				return err
			}
			words, err := parseWords(args[1:])
			if err != nil {
				return err
			}
			eng, err := a.open()
			if err != nil {
				return err
			}

			n, err := eng.FastWrite(cmd.Context(), words, addr)
			if err != nil {
				return fmt.Errorf("%w (%d of %d words written)", err, n, len(words))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "burst wrote %d words at 0x%08X\n", n, addr)
			return nil
		},
	}
}

func newReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <address> [count]",
		Short: "Read words from main flash",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseWord(args[0])
			if err != nil {
				return err
			}
			count := uint32(1)
			if len(args) == 2 {
				if count, err = parseWord(args[1]); err != nil {
					return err
				}
			}
			eng, err := a.open()
			if err != nil {
				return err
			}

			words, err := eng.ReadArray(cmd.Context(), addr, int(count))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, w := range words {
				fmt.Fprintf(out, "%08X: %08X\n", addr+uint32(i)*flctl.WordSize, w)
			}
			return nil
		},
	}
}

func newProgramCmd(a *app) *cobra.Command {
	var noVerify, noBurst, noErase bool

	cmd := &cobra.Command{
		Use:   "program <firmware.hex>",
		Short: "Erase, program and verify an Intel HEX image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := image.Parse(args[0])
			if err != nil {
				return err
			}
			eng, err := a.open()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var lastPhase string
			prog := image.NewProgrammer(eng,
				image.WithLogger(a.logger),
				image.WithVerifyAfterProgram(!noVerify),
				image.WithBurst(!noBurst),
				image.WithErase(!noErase),
				image.WithProgressCallback(func(p image.Progress) {
					if p.Phase != lastPhase {
						fmt.Fprintf(out, "[%s] %.1f%%\n", p.Phase, p.Percentage)
						lastPhase = p.Phase
					}
				}),
			)

			if err := prog.Program(cmd.Context(), img); err != nil {
				return err
			}
			fmt.Fprintf(out, "programmed %d bytes from %s\n", img.Size(), args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip the readback")
	cmd.Flags().BoolVar(&noBurst, "no-burst", false, "program word by word")
	cmd.Flags().BoolVar(&noErase, "no-erase", false, "do not erase the touched sectors first")
	return cmd
}

func newDumpCmd(a *app) *cobra.Command {
	var addrFlag, countFlag string

	cmd := &cobra.Command{
		Use:   "dump <file.hex|->",
		Short: "Save programmed flash words as Intel HEX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseWord(addrFlag)
			if err != nil {
				return err
			}
			count, err := parseWord(countFlag)
			if err != nil {
				return err
			}
			eng, err := a.open()
			if err != nil {
				return err
			}

			words, err := eng.ReadArray(cmd.Context(), addr, int(count))
			if err != nil {
				return err
			}
			img := image.FromWords(addr, words)

			if args[0] == "-" {
				return image.Dump(cmd.OutOrStdout(), img)
			}
			return writeImage(args[0], img)
		},
	}
	cmd.Flags().StringVar(&addrFlag, "addr", "0", "first address to dump")
	cmd.Flags().StringVar(&countFlag, "count", fmt.Sprint(flctl.FlashSize/flctl.WordSize), "number of words to dump")
	return cmd
}

func writeImage(path string, img *image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := image.Dump(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readInput opens path, or stdin for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
