package cli

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Check every line read from stdin",
		Long: `Check every line read from stdin.

Each line starts a check straight away without waiting for earlier ones,
so the verdict shown last is whichever reply arrived last. At end of input
the command waits for outstanding checks before exiting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r := newRequester(cmd, cfg)

			var wg sync.WaitGroup
			defer wg.Wait()

			// Lines are read whole, however long they are.
			rd := bufio.NewReader(cmd.InOrStdin())
			for {
				line, err := rd.ReadString('\n')
				if line != "" {
					done := r.Trigger(strings.TrimRight(line, "\r\n"))
					wg.Add(1)
					go func() {
						defer wg.Done()
						<-done
					}()
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return err
				}
			}
		},
	}
}
