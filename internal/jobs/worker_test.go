package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockJobProcessor is a mock implementation of JobProcessor
type MockJobProcessor struct {
	mock.Mock
}

func (m *MockJobProcessor) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockSnapshotPersister is a mock implementation of SnapshotPersister
type MockSnapshotPersister struct {
	mock.Mock
}

func (m *MockSnapshotPersister) PersistSnapshot(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// TestWorker_StartStop tests the worker start and stop functionality
func TestWorker_StartStop(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(250 * time.Millisecond)

	// Stop worker
	worker.Stop()
	wg.Wait()

	// Verify ProcessJobs was called at least once
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContextCancellation tests worker stops on context cancellation
func TestWorker_ContextCancellation(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(nil)

	worker := NewWorker(mockProcessor, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())

	// Start worker in goroutine
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	// Let it run for a bit
	time.Sleep(150 * time.Millisecond)

	// Cancel context
	cancel()
	wg.Wait()

	// Verify ProcessJobs was called
	mockProcessor.AssertCalled(t, "ProcessJobs", mock.Anything)
}

// TestWorker_ContinuesAfterProcessorError tests the loop survives a failing poll
func TestWorker_ContinuesAfterProcessorError(t *testing.T) {
	mockProcessor := new(MockJobProcessor)
	mockProcessor.On("ProcessJobs", mock.Anything).Return(errors.New("transient failure"))

	worker := NewWorker(mockProcessor, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Start(ctx)
	}()

	time.Sleep(180 * time.Millisecond)
	worker.Stop()
	wg.Wait()

	// The loop keeps polling despite errors
	assert.GreaterOrEqual(t, len(mockProcessor.Calls), 2)
}

// TestSnapshotWorker_ProcessJobs tests delegation to the persister
func TestSnapshotWorker_ProcessJobs(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockPersister := new(MockSnapshotPersister)
		mockPersister.On("PersistSnapshot", mock.Anything).Return(nil)

		worker := NewSnapshotWorker(mockPersister)
		err := worker.ProcessJobs(context.Background())

		assert.NoError(t, err)
		mockPersister.AssertExpectations(t)
	})

	t.Run("persist failure is reported", func(t *testing.T) {
		mockPersister := new(MockSnapshotPersister)
		mockPersister.On("PersistSnapshot", mock.Anything).Return(errors.New("storage unavailable"))

		worker := NewSnapshotWorker(mockPersister)
		err := worker.ProcessJobs(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "snapshot persistence retry failed")
	})
}
