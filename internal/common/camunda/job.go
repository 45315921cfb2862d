package camunda

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "agri-advisor/internal/common/errors"
	"agri-advisor/internal/common/logger"
	"agri-advisor/internal/common/metrics"
)

// CompleteJob completes job with output as its variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		FailJob(ctx, client, job, apperrors.AsStandard(fmt.Errorf("encode job output: %w", err)), log)
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(job.Type).Inc()
}

// FailJob hands err to the shared error handler, which either fails the job
// with retries or throws a BPMN error.
func FailJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, log logger.Logger) {
	code := apperrors.AsStandard(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(job.Type, string(code)).Inc()
	apperrors.NewErrorHandler(log).HandleJobError(ctx, client, job, err)
}
