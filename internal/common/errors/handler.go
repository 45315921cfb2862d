// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler turns worker errors into Zeebe fail/throw commands.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleJobError fails the job with retries when the code is retryable and
// the job still has retries left; otherwise it throws a BPMN error.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := AsStandard(err)
	bpmnErr := ConvertToBPMNError(stdErr)
	retries := GetRetryCount(stdErr.Code)

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"bpmnErrorCode":    bpmnErr.Code,
		"details":          stdErr.Details,
		"retries":          retries,
		"workflowInstance": job.ProcessInstanceKey,
	})

	varsJSON, _ := json.Marshal(bpmnErr.ToErrorVariables())

	if retries > 0 && job.Retries > 0 {
		if int(job.Retries) < retries {
			retries = int(job.Retries)
		}
		cmd := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(int32(retries - 1)).
			ErrorMessage(bpmnErr.Message)
		if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			_, _ = withVars.Send(ctx)
			return
		}
		_, _ = cmd.Send(ctx)
		return
	}

	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)
	if withVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
		_, _ = withVars.Send(ctx)
		return
	}
	_, _ = cmd.Send(ctx)
}
