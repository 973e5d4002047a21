package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/ledger"
	tea "github.com/charmbracelet/bubbletea"
)

// CampaignStatus is one observation of a campaign, as shown by the countdown.
type CampaignStatus struct {
	Network      string
	Address      string
	Owner        string
	Deadline     time.Time
	Now          time.Time // campaign clock at fetch time
	Phase        ledger.Phase
	PhaseErr     string
	BalanceETH   string
	MinimumUSD   string
	TargetUSD    string
	Contributors int
	Withdrawn    bool
}

// StatusMsg delivers a fetched CampaignStatus.
type StatusMsg struct {
	Status CampaignStatus
	Err    error
}

type countdownTickMsg struct{}

type pollMsg struct{}

// CountdownModel is the Bubble Tea model behind `status --watch`. It ticks
// once a second between polls so the countdown moves smoothly.
type CountdownModel struct {
	fetch     func() (CampaignStatus, error)
	interval  time.Duration
	now       func() time.Time
	status    CampaignStatus
	loaded    bool
	err       error
	fetchedAt time.Time
	frame     int
	Quitting  bool
}

// NewCountdownModel polls fetch every interval.
func NewCountdownModel(fetch func() (CampaignStatus, error), interval time.Duration) CountdownModel {
	if interval <= 0 {
		interval = time.Second
	}
	return CountdownModel{fetch: fetch, interval: interval, now: time.Now}
}

func (m CountdownModel) fetchCmd() tea.Cmd {
	fetch := m.fetch
	return func() tea.Msg {
		s, err := fetch()
		return StatusMsg{Status: s, Err: err}
	}
}

func countdownTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return countdownTickMsg{} })
}

func (m CountdownModel) pollAfter() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m CountdownModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), countdownTick())
}

func (m CountdownModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit
		case "r":
			return m, m.fetchCmd()
		}

	case countdownTickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, countdownTick()

	case pollMsg:
		return m, m.fetchCmd()

	case StatusMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.status = msg.Status
			m.loaded = true
			m.fetchedAt = m.now()
		}
		return m, m.pollAfter()
	}
	return m, nil
}

// Remaining is the time left in the funding window, extrapolated from the
// last fetch.
func (m CountdownModel) Remaining() time.Duration {
	if !m.loaded {
		return 0
	}
	left := m.status.Deadline.Sub(m.status.Now) - m.now().Sub(m.fetchedAt)
	if left < 0 {
		return 0
	}
	return left
}

func (m CountdownModel) View() string {
	if m.Quitting {
		return ""
	}
	var sb strings.Builder
	if !m.loaded {
		sb.WriteString(StyleMeta.Render(spinnerFrames[m.frame]+"  loading campaign…") + "\n")
		if m.err != nil {
			sb.WriteString(Err(m.err.Error()) + "\n")
		}
		return sb.String()
	}

	s := m.status
	sb.WriteString(StyleTitle.Render(fmt.Sprintf("FundMe  ·  %s  ·  %s", s.Network, TruncateAddr(s.Address))) + "\n")

	left := m.Remaining()
	var window string
	if left > 0 {
		window = StyleValue.Render(formatCountdown(left)) + StyleMeta.Render(" until "+s.Deadline.UTC().Format(time.RFC3339))
	} else {
		window = StyleWarning.Render("closed") + StyleMeta.Render(" at "+s.Deadline.UTC().Format(time.RFC3339))
	}

	phase := Phase(s.Phase)
	if s.PhaseErr != "" {
		phase = StyleError.Render("unavailable: " + s.PhaseErr)
	}
	withdrawn := "no"
	if s.Withdrawn {
		withdrawn = "yes"
	}
	sb.WriteString(KeyValueBlock("", [][2]string{
		{"Window", window},
		{"Phase", phase},
		{"Balance", s.BalanceETH + " ETH"},
		{"Target", "$" + s.TargetUSD},
		{"Minimum", "$" + s.MinimumUSD},
		{"Contributors", fmt.Sprintf("%d", s.Contributors)},
		{"Withdrawn", withdrawn},
		{"Owner", s.Owner},
	}) + "\n")

	if m.err != nil {
		sb.WriteString(Warn("last refresh failed: "+m.err.Error()) + "\n")
	}
	sb.WriteString(StyleMeta.Render("r refresh  ·  q quit") + "\n")
	return sb.String()
}

// formatCountdown renders d as "1h02m03s", "2m05s" or "9s".
func formatCountdown(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	mnt := d / time.Minute
	d -= mnt * time.Minute
	sec := d / time.Second
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, mnt, sec)
	case mnt > 0:
		return fmt.Sprintf("%dm%02ds", mnt, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}
