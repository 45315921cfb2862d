// internal/workers/advisory/detect-intent/handler.go
package detectintent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"agri-advisor/internal/catalog"
	"agri-advisor/internal/common/camunda"
	apperrors "agri-advisor/internal/common/errors"
	"agri-advisor/internal/common/logger"
	"agri-advisor/internal/common/validation"
	"agri-advisor/internal/intent"
)

const TaskType = "detect-intent"

var schema = validation.MustCompile(inputSchema)

type IntentDetector interface {
	DetectIntents(ctx context.Context, message, country, language string) intent.Detection
}

type Handler struct {
	config   *Config
	detector IntentDetector
	logger   logger.Logger
}

func NewHandler(config *Config, detector IntentDetector, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		detector: detector,
		logger:   log.With(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := ParseInput(job.Variables)
	if err != nil {
		camunda.FailJob(ctx, client, job, err, h.logger)
		return
	}
	camunda.CompleteJob(ctx, client, job, h.Execute(ctx, input), h.logger)
}

func ParseInput(variables string) (*Input, error) {
	res, err := schema.ValidateJSON(variables)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if !res.Valid {
		return nil, apperrors.NewInvalidInputError(strings.Join(res.GetErrorMessages(), "; "))
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	det := h.detector.DetectIntents(ctx, input.Message, input.Country, input.Language)
	if det.Categories == nil {
		det.Categories = []catalog.Category{}
	}
	return &Output{Detection: det}
}
