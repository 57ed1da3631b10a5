package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ckpt/internal/adapters/telemetry"
	"go.trai.ch/ckpt/internal/app"
	"go.trai.ch/ckpt/internal/core/domain"
	"go.trai.ch/ckpt/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func testComponents(t *testing.T, ctrl *gomock.Controller) *app.Components {
	t.Helper()

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	cfg := &domain.Config{
		Root: t.TempDir(),
		Environments: map[string]domain.Environment{
			"default": {Name: "default", Interpreter: "python3"},
		},
		DefaultEnvironment: "default",
	}

	manager, err := app.New(
		context.Background(),
		cfg,
		mocks.NewMockSupervisor(ctrl),
		mocks.NewMockWorkerClient(ctrl),
		mocks.NewMockResultStore(ctrl),
		log,
		telemetry.NewNoOpTracer(),
	)
	require.NoError(t, err)

	return &app.Components{
		Manager: manager,
		Logger:  log,
		Config:  cfg,
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	components := testComponents(t, ctrl)

	provider := func(_ context.Context) (*app.Components, func(), error) {
		return components, func() {}, nil
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run returns 1 when the command execution fails.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	components := testComponents(t, ctrl)

	provider := func(_ context.Context) (*app.Components, func(), error) {
		return components, func() {}, nil
	}

	// Loading a file that does not exist fails before any worker is spawned.
	missing := filepath.Join(t.TempDir(), "gone.ckpt")
	exitCode := run(context.Background(), []string{"load", missing}, new(bytes.Buffer), provider)

	assert.Equal(t, 1, exitCode)
}
