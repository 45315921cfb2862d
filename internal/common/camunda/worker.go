// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"agri-advisor/internal/common/logger"
)

// JobHandler completes or fails the job itself.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type WorkerOptions struct {
	Name          string
	MaxJobsActive int
	Timeout       time.Duration
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. Handler panics fail nothing on
// the broker side; the job simply times out and is retried.
func NewWorker(client zbc.Client, taskType string, opts WorkerOptions, handler JobHandler, log logger.Logger) *CamundaWorker {
	log = log.With(map[string]interface{}{"taskType": taskType})

	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(func(jc worker.JobClient, job entities.Job) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("job handler panicked", map[string]interface{}{
						"jobKey": job.Key,
						"panic":  r,
					})
				}
			}()
			handler.Handle(jc, job)
		})

	if opts.Name != "" {
		builder = builder.Name(opts.Name)
	}
	if opts.MaxJobsActive > 0 {
		builder = builder.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		builder = builder.Timeout(opts.Timeout)
	}

	w := &CamundaWorker{worker: builder.Open(), logger: log, taskType: taskType}
	log.Info("worker started", map[string]interface{}{"maxJobsActive": opts.MaxJobsActive})
	return w
}

func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}
