package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/engine"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/spf13/cobra"
)

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Control the clock of a development network",
}

var timeIncreaseCmd = &cobra.Command{
	Use:   "increase <seconds|duration>",
	Short: "Move the development clock forward",
	Long: `Move the clock of a development network forward, like evm_increaseTime on a
local node. The argument is whole seconds or a Go duration.

Examples:
  fundme time increase 200
  fundme time increase 3m30s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := parseSeconds(args[0])
		if err != nil {
			return err
		}
		if apiFlag != "" {
			return fmt.Errorf("time increase runs against the local store; stop `fundme serve` first")
		}
		n, err := activeNetwork()
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context(), n)
		if err != nil {
			return err
		}
		defer s.Close()

		now, err := s.engine.IncreaseTime(d)
		if errors.Is(err, engine.ErrNotDevNetwork) {
			return fmt.Errorf("%w (%s)", err, strings.Join(chain.NewRegistry().DevelopmentNames(), ", "))
		}
		if err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Clock moved %s forward, now %s", d, now.UTC().Format(time.RFC3339))))
		if left := s.engine.Campaign().Deadline().Sub(now); left > 0 {
			fmt.Println(ui.Meta(fmt.Sprintf("Window closes in %s", left.Round(time.Second))))
		} else {
			fmt.Println(ui.Meta("Funding window is closed."))
		}
		return nil
	},
}

// parseSeconds accepts "200" or "3m20s".
func parseSeconds(s string) (time.Duration, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: want seconds or e.g. 3m30s", s)
	}
	return d, nil
}

func init() {
	timeCmd.AddCommand(timeIncreaseCmd)
}
