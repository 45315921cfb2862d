// internal/workers/advisory/resolve-servers/handler.go
package resolveservers

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
	"agri-advisor/internal/orchestrator"
)

const TaskType = "resolve-servers"

var schema = validation.MustCompile(inputSchema)

type ServerLocator interface {
	GetActiveServersForLocation(ctx context.Context, lat, lon *float64) (catalog.LocationServers, error)
}

type Handler struct {
	config  *Config
	servers ServerLocator
	logger  logger.Logger
}

func NewHandler(config *Config, servers ServerLocator, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		servers: servers,
		logger:  log.With(map[string]interface{}{"taskType": TaskType}),
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

	output, err := h.Execute(ctx, input)
	if err != nil {
		camunda.FailJob(ctx, client, job, err, h.logger)
		return
	}
	camunda.CompleteJob(ctx, client, job, output, h.logger)
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

// Execute returns the catalog error untouched so the job is retried when
// global servers cannot be read.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	servers, err := h.servers.GetActiveServersForLocation(ctx, input.Latitude, input.Longitude)
	if err != nil {
		return nil, err
	}
	return &Output{
		LocationServers: servers,
		Country:         orchestrator.CountryLabel(servers.DetectedRegions),
	}, nil
}
