package scheduler_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"partstream/models"
	"partstream/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okSearch(query string, mode models.SearchMode) ([]models.UnifiedSearchResult, error) {
	return []models.UnifiedSearchResult{
		{ID: "r1", Nombre: query, Status: models.StatusOK},
	}, nil
}

func TestTaskManager_SubmitAndComplete(t *testing.T) {
	t.Parallel()

	tm := scheduler.NewTaskManager(okSearch, 2)
	defer tm.Stop()

	task := tm.SubmitTask("bujia", models.SearchModeGlobal)
	require.Equal(t, models.TaskStatusQueued, task.Status)

	assert.Eventually(t, func() bool {
		got, ok := tm.GetTask(task.ID)
		return ok && got.Status == models.TaskStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	got, ok := tm.GetTask(task.ID)
	require.True(t, ok)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "bujia", got.Results[0].Nombre)
}

func TestTaskManager_FailedSearch(t *testing.T) {
	t.Parallel()

	tm := scheduler.NewTaskManager(func(string, models.SearchMode) ([]models.UnifiedSearchResult, error) {
		return nil, errors.New("sources unavailable")
	}, 1)
	defer tm.Stop()

	task := tm.SubmitTask("bujia", models.SearchModeGlobal)

	assert.Eventually(t, func() bool {
		got, ok := tm.GetTask(task.ID)
		return ok && got.Status == models.TaskStatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	got, _ := tm.GetTask(task.ID)
	assert.Contains(t, got.Error, "sources unavailable")
}

func TestTaskManager_GetActiveTasks(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	tm := scheduler.NewTaskManager(func(string, models.SearchMode) ([]models.UnifiedSearchResult, error) {
		<-release
		return []models.UnifiedSearchResult{}, nil
	}, 1)
	defer tm.Stop()

	assert.Empty(t, tm.GetActiveTasks())

	task := tm.SubmitTask("pastilla", models.SearchModeLocal)

	assert.Eventually(t, func() bool {
		active := tm.GetActiveTasks()
		return len(active) == 1 && active[0].ID == task.ID
	}, 5*time.Second, 10*time.Millisecond)

	close(release)

	assert.Eventually(t, func() bool {
		return len(tm.GetActiveTasks()) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestTaskManager_ConcurrentStatsAndSubmits(t *testing.T) {
	t.Parallel()

	tm := scheduler.NewTaskManager(okSearch, 3)
	defer tm.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.SubmitTask("filtro", models.SearchModeGlobal)
		}()
	}

	// Poll stats while workers churn; the counters are mutex-guarded
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			stats := tm.GetStats()
			workers := stats["active_workers"].(int)
			assert.GreaterOrEqual(t, workers, 0)
			assert.LessOrEqual(t, workers, 3)
			time.Sleep(time.Millisecond)
		}
	}()

	wg.Wait()
	<-done

	assert.Eventually(t, func() bool {
		stats := tm.GetStats()
		byStatus := stats["tasks_by_status"].(map[string]int)
		return byStatus[string(models.TaskStatusCompleted)] == 20 && stats["active_workers"].(int) == 0
	}, 10*time.Second, 10*time.Millisecond)
}
