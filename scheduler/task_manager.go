package scheduler

import (
	"log"
	"sync"
	"time"

	"partstream/models"
)

// SearchFunc executes a unified search for a query
type SearchFunc func(query string, mode models.SearchMode) ([]models.UnifiedSearchResult, error)

// TaskManager manages async unified search tasks
type TaskManager struct {
	tasks      map[string]*models.SearchTask
	taskQueue  chan *models.SearchTask
	workers    int
	maxWorkers int
	searchFunc SearchFunc
	mutex      sync.RWMutex
	stopChan   chan bool
}

// NewTaskManager creates a new task manager
func NewTaskManager(searchFunc SearchFunc, maxWorkers int) *TaskManager {
	tm := &TaskManager{
		tasks:      make(map[string]*models.SearchTask),
		taskQueue:  make(chan *models.SearchTask, 100), // Buffer for 100 tasks
		workers:    0,
		maxWorkers: maxWorkers,
		searchFunc: searchFunc,
		stopChan:   make(chan bool),
	}

	go tm.processTasks()
	log.Printf("🚀 Task manager started with %d max workers", maxWorkers)
	return tm
}

// SubmitTask submits a new async search task
func (tm *TaskManager) SubmitTask(query string, mode models.SearchMode) *models.SearchTask {
	task := models.NewSearchTask(query, mode)

	tm.mutex.Lock()
	tm.tasks[task.ID] = task
	tm.mutex.Unlock()

	select {
	case tm.taskQueue <- task:
		log.Printf("📝 Task %s submitted for query %q", task.ID, query)
	default:
		task.Fail("Task queue is full")
		log.Printf("❌ Failed to submit task %s - queue full", task.ID)
	}

	return task
}

// GetTask returns a task by ID
func (tm *TaskManager) GetTask(taskID string) (*models.SearchTask, bool) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	task, exists := tm.tasks[taskID]
	return task, exists
}

// GetActiveTasks returns all active tasks
func (tm *TaskManager) GetActiveTasks() []*models.SearchTask {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	activeTasks := []*models.SearchTask{}
	for _, task := range tm.tasks {
		if task.IsActive() {
			activeTasks = append(activeTasks, task)
		}
	}

	return activeTasks
}

// CleanupOldTasks removes completed tasks older than specified duration
func (tm *TaskManager) CleanupOldTasks(maxAge time.Duration) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for taskID, task := range tm.tasks {
		if task.IsCompleted() && task.CreatedAt.Before(cutoff) {
			delete(tm.tasks, taskID)
			log.Printf("🧹 Cleaned up old task: %s", taskID)
		}
	}
}

// processTasks processes tasks from the queue
func (tm *TaskManager) processTasks() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case task := <-tm.taskQueue:
			// Start a new worker if we haven't reached max
			if tm.tryAcquireWorker() {
				go tm.worker(task)
			} else {
				// Re-queue the task if we're at max workers
				go func() {
					time.Sleep(1 * time.Second)
					select {
					case tm.taskQueue <- task:
						log.Printf("🔄 Re-queued task %s (max workers reached)", task.ID)
					default:
						task.Fail("System overloaded, unable to process task")
						log.Printf("❌ Failed to re-queue task %s", task.ID)
					}
				}()
			}

		case <-ticker.C:
			tm.CleanupOldTasks(1 * time.Hour)

		case <-tm.stopChan:
			log.Println("🛑 Task manager stopped")
			return
		}
	}
}

// tryAcquireWorker reserves a worker slot if one is free
func (tm *TaskManager) tryAcquireWorker() bool {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if tm.workers >= tm.maxWorkers {
		return false
	}
	tm.workers++
	return true
}

// releaseWorker frees a worker slot
func (tm *TaskManager) releaseWorker() {
	tm.mutex.Lock()
	tm.workers--
	tm.mutex.Unlock()
}

// worker processes a single task
func (tm *TaskManager) worker(task *models.SearchTask) {
	defer tm.releaseWorker()

	log.Printf("👷 Worker started processing task %s for query %q", task.ID, task.Query)
	task.Start()

	results, err := tm.searchFunc(task.Query, task.Mode)
	if err != nil {
		task.Fail("Search failed: " + err.Error())
		return
	}

	task.Complete(results)
	log.Printf("✅ Task %s completed with %d results in %v", task.ID, len(results), task.Duration())
}

// Stop stops the task manager
func (tm *TaskManager) Stop() {
	close(tm.stopChan)
	log.Println("🛑 Task manager stopping...")
}

// GetStats returns task manager statistics
func (tm *TaskManager) GetStats() map[string]interface{} {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	stats := map[string]interface{}{
		"total_tasks":    len(tm.tasks),
		"active_workers": tm.workers,
		"max_workers":    tm.maxWorkers,
		"queue_size":     len(tm.taskQueue),
	}

	statusCounts := make(map[string]int)
	for _, task := range tm.tasks {
		statusCounts[string(task.Status)]++
	}
	stats["tasks_by_status"] = statusCounts

	return stats
}
