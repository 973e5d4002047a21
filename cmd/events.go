package cmd

import (
	"fmt"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/api"
	"github.com/Mohsinsiddi/fundme/internal/chain"
	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/spf13/cobra"
)

var eventsFrom uint64

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print the campaign event log",
	Long: `Print the persisted event log of the active network, oldest first.

Examples:
  fundme events
  fundme events --from 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := activeNetwork()
		if err != nil {
			return err
		}

		var evs []ledger.Event
		if apiFlag != "" {
			if _, err := remoteCampaign(cmd.Context(), n); err != nil {
				return err
			}
			evs, err = api.NewClient(apiFlag).Events(cmd.Context(), eventsFrom)
		} else {
			st, oerr := openStore()
			if oerr != nil {
				return oerr
			}
			defer st.Close()
			evs, err = st.Events(n.Name, eventsFrom)
		}
		if err != nil {
			return err
		}

		if len(evs) == 0 {
			fmt.Println(ui.Meta("No events."))
			return nil
		}
		t := ui.NewTable([]ui.Column{
			{Title: "#", Width: 4, Right: true},
			{Title: "Event", Width: 22},
			{Title: "Account", Width: 14},
			{Title: "Amount (ETH)", Width: 20, Right: true},
			{Title: "Time", Width: 20},
			{Title: "Tx", Width: 14},
		})
		for _, ev := range evs {
			amount := "-"
			if ev.Amount != nil {
				amount = chain.FormatEther(ev.Amount)
			}
			t.AddRow(ui.Row{
				fmt.Sprint(ev.Seq),
				ui.EventKind(ev.Kind),
				ui.Addr(ui.TruncateAddr(ev.Contributor.Hex())),
				ui.Val(amount),
				ev.Time.UTC().Format(time.DateTime),
				ui.Meta(ui.TruncateAddr(ev.TxHash.Hex())),
			})
		}
		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	eventsCmd.Flags().Uint64Var(&eventsFrom, "from", 0, "first sequence number to print")
}
