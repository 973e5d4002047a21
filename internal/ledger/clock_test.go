package ledger_test

import (
	"testing"
	"time"

	"github.com/Mohsinsiddi/fundme/internal/ledger"
	"github.com/stretchr/testify/assert"
)

func TestOffsetClockAdvance(t *testing.T) {
	c := ledger.NewOffsetClock(time.Hour)
	assert.Equal(t, time.Hour, c.Offset())
	assert.WithinDuration(t, time.Now().Add(time.Hour), c.Now(), time.Second)

	c.Advance(200 * time.Second)
	assert.Equal(t, time.Hour+200*time.Second, c.Offset())
	assert.WithinDuration(t, time.Now().Add(time.Hour+200*time.Second), c.Now(), time.Second)
}

func TestManualClockOnlyMovesOnAdvance(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := ledger.NewManualClock(at)
	assert.Equal(t, at, c.Now())
	c.Advance(181 * time.Second)
	assert.Equal(t, at.Add(181*time.Second), c.Now())
}
