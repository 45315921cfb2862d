// internal/workers/advisory/orchestrate-query/handler.go
package orchestratequery

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

const TaskType = "orchestrate-query"

var schema = validation.MustCompile(inputSchema)

type ServerLocator interface {
	GetActiveServersForLocation(ctx context.Context, lat, lon *float64) (catalog.LocationServers, error)
}

type Orchestrator interface {
	Orchestrate(ctx context.Context, req orchestrator.Request) *orchestrator.Result
}

type Handler struct {
	config       *Config
	servers      ServerLocator
	orchestrator Orchestrator
	logger       logger.Logger
}

func NewHandler(config *Config, servers ServerLocator, orch Orchestrator, log logger.Logger) *Handler {
	return &Handler{
		config:       config,
		servers:      servers,
		orchestrator: orch,
		logger:       log.With(map[string]interface{}{"taskType": TaskType}),
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

// ParseInput validates job variables and decodes them. A latitude without a
// longitude (or the reverse) is treated as no coordinates.
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
	if input.Latitude == nil || input.Longitude == nil {
		input.Latitude, input.Longitude = nil, nil
	}
	return &input, nil
}

// Execute never fails. A catalog outage leaves the server list empty and
// every detected category degrades to a fallback.
func (h *Handler) Execute(ctx context.Context, input *Input) *Output {
	servers, err := h.servers.GetActiveServersForLocation(ctx, input.Latitude, input.Longitude)
	if err != nil {
		h.logger.Warn("server lookup failed, continuing without servers", map[string]interface{}{
			"error": err.Error(),
		})
		servers = catalog.LocationServers{}
	}

	result := h.orchestrator.Orchestrate(ctx, orchestrator.Request{
		RequestID: input.RequestID,
		Message:   input.Message,
		Language:  input.Language,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Servers:   servers,
	})

	regions := servers.DetectedRegions
	if regions == nil {
		regions = []catalog.Region{}
	}
	return &Output{Result: result, DetectedRegions: regions}
}
