package ui

import (
	"strings"
	"testing"

	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/stretchr/testify/assert"
)

func TestFormattersKeepMessage(t *testing.T) {
	formatters := map[string]func(string) string{
		"Success":     Success,
		"Warn":        Warn,
		"Err":         Err,
		"Info":        Info,
		"Hint":        Hint,
		"Addr":        Addr,
		"Val":         Val,
		"Meta":        Meta,
		"NetworkName": NetworkName,
	}
	for name, fn := range formatters {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, fn("test"), "test")
		})
	}
}

func TestPrefixes(t *testing.T) {
	assert.Contains(t, Success("done"), "✓")
	assert.Contains(t, Warn("careful"), "⚠")
	assert.Contains(t, Err("failed"), "✗")
	assert.Contains(t, Info("note"), "ℹ")
	assert.NotEqual(t, Info("message"), Hint("message"))
}

func TestPhaseLabels(t *testing.T) {
	assert.Contains(t, Phase(ledger.PhaseOpen), "open")
	assert.Contains(t, Phase(ledger.PhaseClosedTargetMet), "closed-target-met")
	assert.Contains(t, Phase(ledger.PhaseClosedTargetMissed), "closed-target-missed")
	assert.Contains(t, Phase(""), "unknown")
}

func TestEventKindLabels(t *testing.T) {
	for _, k := range []ledger.EventKind{
		ledger.EventFunded, ledger.EventWithdrawnByOwner,
		ledger.EventRefundedByFunder, ledger.EventOwnershipTransferred,
	} {
		assert.Contains(t, EventKind(k), string(k))
	}
}

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "", TruncateAddr(""))
	assert.Equal(t, "0x12345678", TruncateAddr("0x12345678"))
	assert.Equal(t, "0xf39F…2266", TruncateAddr("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"))
}

func TestBanner(t *testing.T) {
	b := Banner("1.2.3")
	assert.Contains(t, b, "crowdfunding")
	assert.Contains(t, b, "1.2.3")
}

func TestReadYes(t *testing.T) {
	for in, want := range map[string]bool{
		"y\n": true, "YES\n": true, " yes \n": true,
		"n\n": false, "\n": false, "": false, "yep\n": false,
	} {
		assert.Equal(t, want, readYes(strings.NewReader(in)), "input %q", in)
	}
}
