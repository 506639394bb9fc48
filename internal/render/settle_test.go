package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedDelayAction(t *testing.T) {
	t.Parallel()
	require.NotNil(t, FixedDelay(time.Second).Action())
	require.NotNil(t, FixedDelay(0).Action())
}

func TestWaitVisibleAction(t *testing.T) {
	t.Parallel()
	require.NotNil(t, WaitVisible("div.question-body", 0).Action())
	require.NotNil(t, WaitVisible("div.question-body", 2*time.Second).Action())
}
