package main

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newScriptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "script <file|->",
		Short: "Run flashctl commands from a file against one session",
		Long: `Run flashctl commands from a file, one per line, against the same
target. Lines are split like a shell would; blank lines and lines starting
with # are skipped. The script stops at the first failing line.

Global flags such as --port or --exec-bank belong on the script command
itself and are rejected on script lines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			scanner := bufio.NewScanner(bytes.NewReader(src))
			for lineNum := 1; scanner.Scan(); lineNum++ {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}

				words, err := shlex.Split(line)
				if err != nil {
					return fmt.Errorf("line %d: %w", lineNum, err)
				}
				if len(words) > 0 && words[0] == "flashctl" {
					words = words[1:]
				}
				if len(words) > 0 && words[0] == "script" {
					return fmt.Errorf("line %d: scripts cannot run scripts", lineNum)
				}

				a.logger.Debug("script line", "line", lineNum, "command", line)

				sub := newRootCmd(a, &settings{})
				sub.PersistentPreRunE = rejectGlobalFlags(sub)
				sub.SetArgs(words)
				sub.SetOut(cmd.OutOrStdout())
				sub.SetErr(cmd.ErrOrStderr())
				sub.SilenceErrors = true
				if err := sub.ExecuteContext(cmd.Context()); err != nil {
					return fmt.Errorf("line %d: %w", lineNum, err)
				}
			}
			return scanner.Err()
		},
	}
}

// rejectGlobalFlags fails a script line that sets any of root's persistent
// flags. The session is already open, so those flags would be ignored.
func rejectGlobalFlags(root *cobra.Command) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		var set []string
		cmd.Flags().Visit(func(f *pflag.Flag) {
			if root.PersistentFlags().Lookup(f.Name) != nil {
				set = append(set, "--"+f.Name)
			}
		})
		if len(set) > 0 {
			return fmt.Errorf("global flag %s must be given to the script command, not a script line",
				strings.Join(set, ", "))
		}
		return nil
	}
}
