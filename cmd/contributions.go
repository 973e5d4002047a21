package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/fundme/internal/api"
	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var contributionsCmd = &cobra.Command{
	Use:     "contributions [account-or-address]",
	Aliases: []string{"funders"},
	Short:   "List contributions, or show one contributor's",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := localOrRemoteContributions(cmd, args)
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			fmt.Println(ui.Meta("No contributions yet."))
			return nil
		}
		t := ui.NewTable([]ui.Column{
			{Title: "Contributor", Width: 42},
			{Title: "Amount (ETH)", Width: 22, Right: true},
			{Title: "Wei", Width: 26, Right: true},
		})
		for _, r := range rows {
			t.AddRow(ui.Row{ui.Addr(r.Address.Hex()), ui.Val(r.AmountETH), ui.Meta(r.AmountWei)})
		}
		fmt.Println(t.Render())
		return nil
	},
}

func localOrRemoteContributions(cmd *cobra.Command, args []string) ([]api.ContributionView, error) {
	if apiFlag != "" {
		return remoteContributions(cmd, args)
	}
	return localContributions(cmd, args)
}

func localContributions(cmd *cobra.Command, args []string) ([]api.ContributionView, error) {
	n, err := activeNetwork()
	if err != nil {
		return nil, err
	}
	s, err := openSession(cmd.Context(), n)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	c := s.engine.Campaign()

	addrs := c.Contributors()
	if len(args) == 1 {
		a, err := resolveAddress(args[0])
		if err != nil {
			return nil, err
		}
		addrs = []common.Address{a}
	}
	out := make([]api.ContributionView, 0, len(addrs))
	for _, a := range addrs {
		amt := c.Contribution(a)
		out = append(out, api.ContributionView{Address: a, AmountWei: amt.String(), AmountETH: chain.FormatEther(amt)})
	}
	return out, nil
}

func remoteContributions(cmd *cobra.Command, args []string) ([]api.ContributionView, error) {
	n, err := activeNetwork()
	if err != nil {
		return nil, err
	}
	v, err := remoteCampaign(cmd.Context(), n)
	if err != nil {
		return nil, err
	}
	addrs := v.Contributors
	if len(args) == 1 {
		a, err := resolveAddress(args[0])
		if err != nil {
			return nil, err
		}
		addrs = []common.Address{a}
	}
	client := api.NewClient(apiFlag)
	out := make([]api.ContributionView, 0, len(addrs))
	for _, a := range addrs {
		cv, err := client.Contribution(cmd.Context(), a)
		if err != nil {
			return nil, err
		}
		out = append(out, *cv)
	}
	return out, nil
}
