package main

import (
	"errors"
	"testing"

	"github.com/dukex/journeys/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v3"
)

func TestStartFailure(t *testing.T) {
	rejected := &engine.StartError{JourneyID: "j1", ContactID: "c1", Err: engine.ErrDuplicateExecution}

	var exit cli.ExitCoder
	require.ErrorAs(t, startFailure(rejected), &exit)
	assert.Equal(t, exitRejected, exit.ExitCode())

	down := errors.New("connection refused")
	assert.Same(t, down, startFailure(down))
}
