package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/api"
	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/engine"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var statusWatch bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the campaign: owner, deadline, phase and balance",
	Long: `Show the campaign on the active network.

With --watch the deadline counts down live and the campaign is re-read every
watch_interval seconds. Press r to refresh, q to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := activeNetwork()
		if err != nil {
			return err
		}
		read, err := statusSource(cmd.Context(), n)
		if err != nil {
			return err
		}

		if !statusWatch {
			s, err := read(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(s)
			return nil
		}

		interval := time.Duration(cfg.WatchInterval) * time.Second
		m := ui.NewCountdownModel(func() (ui.CampaignStatus, error) {
			return read(cmd.Context())
		}, interval)
		_, err = tea.NewProgram(m, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout)).Run()
		return err
	},
}

// statusSource returns a reader of the campaign on n. Local reads open the
// store only for the duration of each read so other commands can interleave.
func statusSource(ctx context.Context, n *chain.Network) (func(context.Context) (ui.CampaignStatus, error), error) {
	if apiFlag != "" {
		return func(ctx context.Context) (ui.CampaignStatus, error) {
			v, err := remoteCampaign(ctx, n)
			if err != nil {
				return ui.CampaignStatus{}, err
			}
			return statusFromView(v), nil
		}, nil
	}

	st, err := openStore()
	if err != nil {
		return nil, err
	}
	d, err := deployment(n, st)
	_ = st.Close()
	if err != nil {
		return nil, notDeployed(n, err)
	}
	feed, err := feedFor(ctx, n, d)
	if err != nil {
		return nil, err
	}

	return func(context.Context) (ui.CampaignStatus, error) {
		st, err := openStore()
		if err != nil {
			return ui.CampaignStatus{}, err
		}
		defer st.Close()
		e, err := engine.Open(engine.Options{Network: n, Store: st, Feed: feed, Logger: logger})
		if err != nil {
			return ui.CampaignStatus{}, notDeployed(n, err)
		}
		return statusFromCampaign(n, e.Campaign()), nil
	}, nil
}

func statusFromCampaign(n *chain.Network, c *ledger.Campaign) ui.CampaignStatus {
	s := ui.CampaignStatus{
		Network:      n.Name,
		Address:      c.Address().Hex(),
		Owner:        c.Owner().Hex(),
		Deadline:     c.Deadline(),
		Now:          c.Now(),
		BalanceETH:   chain.FormatEther(c.Balance()),
		MinimumUSD:   ledger.FormatUSD(c.MinimumUSD()),
		TargetUSD:    ledger.FormatUSD(c.TargetUSD()),
		Contributors: len(c.Contributors()),
		Withdrawn:    c.Withdrawn(),
	}
	if p, err := c.Phase(); err != nil {
		s.PhaseErr = err.Error()
	} else {
		s.Phase = p
	}
	return s
}

func statusFromView(v *api.CampaignView) ui.CampaignStatus {
	return ui.CampaignStatus{
		Network:      v.Network,
		Address:      v.Address.Hex(),
		Owner:        v.Owner.Hex(),
		Deadline:     v.Deadline,
		Now:          v.Now,
		Phase:        v.Phase,
		PhaseErr:     v.PhaseError,
		BalanceETH:   v.BalanceETH,
		MinimumUSD:   v.MinimumUSD,
		TargetUSD:    v.TargetUSD,
		Contributors: len(v.Contributors),
		Withdrawn:    v.Withdrawn,
	}
}

func printStatus(s ui.CampaignStatus) {
	phase := ui.Phase(s.Phase)
	if s.PhaseErr != "" {
		phase = ui.Err(s.PhaseErr)
	}
	left := s.Deadline.Sub(s.Now).Round(time.Second)
	window := "closed"
	if left > 0 {
		window = left.String() + " left"
	}
	fmt.Println(ui.KeyValueBlock("FundMe · "+s.Network, [][2]string{
		{"Address", s.Address},
		{"Owner", s.Owner},
		{"Deadline", s.Deadline.UTC().Format(time.RFC3339) + " (" + window + ")"},
		{"Phase", phase},
		{"Balance", s.BalanceETH + " ETH"},
		{"Contributors", fmt.Sprint(s.Contributors)},
		{"Minimum", "$" + s.MinimumUSD},
		{"Target", "$" + s.TargetUSD},
		{"Withdrawn", fmt.Sprint(s.Withdrawn)},
	}))
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "live countdown")
}
