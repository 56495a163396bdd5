package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/tabanon/internal/anonymity"
	"github.com/inferloop/tabanon/internal/metrics"
	obsmetrics "github.com/inferloop/tabanon/internal/observability/metrics"
	"github.com/inferloop/tabanon/pkg/constants"
	"github.com/inferloop/tabanon/pkg/dataset"
	"github.com/inferloop/tabanon/pkg/errors"
	"github.com/inferloop/tabanon/pkg/hierarchy"
)

// Handlers bundles the API handlers and their collaborators.
type Handlers struct {
	logger     *logrus.Logger
	anonymizer *anonymity.Anonymizer
	calculator *metrics.Calculator
}

// NewHandlers creates the API handlers with a default engine wiring.
func NewHandlers(logger *logrus.Logger, collector *obsmetrics.Collector) (*Handlers, error) {
	if logger == nil {
		logger = logrus.New()
	}

	calculator := metrics.NewCalculator(logger)
	anonymizer := anonymity.New(calculator, logger)
	if collector != nil {
		anonymizer.SetRecorder(collector)
	}

	return &Handlers{
		logger:     logger,
		anonymizer: anonymizer,
		calculator: calculator,
	}, nil
}

// DatasetPayload is the wire form of a dataset: a header plus rows of cells.
type DatasetPayload struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// AnonymizeRequest is the request body shared by the anonymization
// endpoints. Hierarchies are given per attribute as value-chain records:
// raw value first, then its image at each successive level.
type AnonymizeRequest struct {
	Dataset            DatasetPayload        `json:"dataset"`
	Identifiers        []string              `json:"identifiers"`
	QuasiIdentifiers   []string              `json:"quasi_identifiers"`
	SensitiveAttribute string                `json:"sensitive_attribute,omitempty"`
	K                  int                   `json:"k"`
	T                  float64               `json:"t,omitempty"`
	Beta               float64               `json:"beta,omitempty"`
	Variant            string                `json:"variant,omitempty"`
	SuppressionLevel   float64               `json:"suppression_level"`
	Hierarchies        map[string][][]string `json:"hierarchies"`
}

// AnonymizeResponse carries the anonymized table, or feasible=false with an
// empty table when the requested guarantee cannot be met.
type AnonymizeResponse struct {
	Feasible       bool           `json:"feasible"`
	Dataset        DatasetPayload `json:"dataset"`
	SuppressedRows int            `json:"suppressed_rows"`
}

// EvaluateRequest asks for privacy metrics over a dataset.
type EvaluateRequest struct {
	Dataset            DatasetPayload `json:"dataset"`
	QuasiIdentifiers   []string       `json:"quasi_identifiers"`
	SensitiveAttribute string         `json:"sensitive_attribute,omitempty"`
}

// EvaluateResponse reports the computed metrics. Closeness metrics are only
// present when a sensitive attribute was given.
type EvaluateResponse struct {
	KAnonymity           int      `json:"k_anonymity"`
	TCloseness           *float64 `json:"t_closeness,omitempty"`
	BasicBetaLikeness    *float64 `json:"basic_beta_likeness,omitempty"`
	EnhancedBetaLikeness *float64 `json:"enhanced_beta_likeness,omitempty"`
}

// KAnonymity handles POST /api/v1/anonymize/k-anonymity
func (h *Handlers) KAnonymity(w http.ResponseWriter, r *http.Request) {
	req, data, hierarchies, ok := h.decodeAnonymizeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.anonymizer.KAnonymity(data, req.Identifiers, req.QuasiIdentifiers,
		req.K, req.SuppressionLevel, hierarchies)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeAnonymizeResponse(w, data, result)
}

// TCloseness handles POST /api/v1/anonymize/t-closeness
func (h *Handlers) TCloseness(w http.ResponseWriter, r *http.Request) {
	req, data, hierarchies, ok := h.decodeAnonymizeRequest(w, r)
	if !ok {
		return
	}

	result, err := h.anonymizer.TCloseness(data, req.Identifiers, req.QuasiIdentifiers,
		req.SensitiveAttribute, req.K, req.T, req.SuppressionLevel, hierarchies)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeAnonymizeResponse(w, data, result)
}

// BetaLikeness handles POST /api/v1/anonymize/beta-likeness. The variant
// field selects basic (default) or enhanced.
func (h *Handlers) BetaLikeness(w http.ResponseWriter, r *http.Request) {
	req, data, hierarchies, ok := h.decodeAnonymizeRequest(w, r)
	if !ok {
		return
	}

	var result *dataset.Dataset
	var err error
	switch req.Variant {
	case "", "basic":
		result, err = h.anonymizer.BasicBetaLikeness(data, req.Identifiers, req.QuasiIdentifiers,
			req.SensitiveAttribute, req.K, req.Beta, req.SuppressionLevel, hierarchies)
	case "enhanced":
		result, err = h.anonymizer.EnhancedBetaLikeness(data, req.Identifiers, req.QuasiIdentifiers,
			req.SensitiveAttribute, req.K, req.Beta, req.SuppressionLevel, hierarchies)
	default:
		h.writeError(w, r, errors.NewParameterError(errors.CodeInvalidInput,
			fmt.Sprintf("unknown beta-likeness variant %q", req.Variant)))
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeAnonymizeResponse(w, data, result)
}

// Evaluate handles POST /api/v1/evaluate
func (h *Handlers) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.NewParameterError(errors.CodeInvalidInput,
			"invalid request body").WithCause(err))
		return
	}

	data, err := dataset.New(req.Dataset.Columns, req.Dataset.Rows)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	k, err := h.calculator.KAnonymity(data, req.QuasiIdentifiers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := EvaluateResponse{KAnonymity: k}
	if req.SensitiveAttribute != "" {
		t, err := h.calculator.TCloseness(data, req.QuasiIdentifiers, req.SensitiveAttribute)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		basic, err := h.calculator.BasicBetaLikeness(data, req.QuasiIdentifiers, req.SensitiveAttribute)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		enhanced, err := h.calculator.EnhancedBetaLikeness(data, req.QuasiIdentifiers, req.SensitiveAttribute)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		resp.TCloseness = &t
		resp.BasicBetaLikeness = &basic
		resp.EnhancedBetaLikeness = &enhanced
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": constants.AppName,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /health/ready
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Live handles GET /health/live
func (h *Handlers) Live(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// Version handles GET /version
func (h *Handlers) Version(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"name":    constants.AppName,
		"version": constants.AppVersion,
	})
}

// NotFound handles unknown routes
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusNotFound, map[string]interface{}{
		"error": map[string]string{
			"code":    "NOT_FOUND",
			"message": fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path),
		},
	})
}

func (h *Handlers) decodeAnonymizeRequest(w http.ResponseWriter, r *http.Request) (*AnonymizeRequest, *dataset.Dataset, map[string]*hierarchy.Hierarchy, bool) {
	var req AnonymizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.NewParameterError(errors.CodeInvalidInput,
			"invalid request body").WithCause(err))
		return nil, nil, nil, false
	}

	data, err := dataset.New(req.Dataset.Columns, req.Dataset.Rows)
	if err != nil {
		h.writeError(w, r, err)
		return nil, nil, nil, false
	}

	hierarchies, err := buildHierarchies(req.Hierarchies)
	if err != nil {
		h.writeError(w, r, err)
		return nil, nil, nil, false
	}

	return &req, data, hierarchies, true
}

// buildHierarchies converts per-attribute value-chain records into
// hierarchies. Each record lists one raw value followed by its images at
// each successive level.
func buildHierarchies(payload map[string][][]string) (map[string]*hierarchy.Hierarchy, error) {
	hierarchies := make(map[string]*hierarchy.Hierarchy, len(payload))
	for attr, records := range payload {
		if len(records) == 0 {
			return nil, errors.NewHierarchyError(errors.CodeInvalidInput,
				fmt.Sprintf("hierarchy for %q is empty", attr))
		}
		depth := len(records[0])
		levels := make([][]string, depth)
		for l := range levels {
			levels[l] = make([]string, 0, len(records))
		}
		for i, record := range records {
			if len(record) != depth {
				return nil, errors.NewHierarchyError(errors.CodeInvalidInput,
					fmt.Sprintf("hierarchy for %q: record %d has %d levels, expected %d",
						attr, i, len(record), depth)).WithCause(errors.ErrRaggedHierarchy)
			}
			for l, v := range record {
				levels[l] = append(levels[l], v)
			}
		}
		h, err := hierarchy.New(levels)
		if err != nil {
			return nil, err
		}
		hierarchies[attr] = h
	}
	return hierarchies, nil
}

func (h *Handlers) writeAnonymizeResponse(w http.ResponseWriter, input, result *dataset.Dataset) {
	if result.IsEmpty() {
		h.writeJSON(w, http.StatusOK, AnonymizeResponse{
			Feasible: false,
			Dataset:  DatasetPayload{Columns: []string{}, Rows: [][]string{}},
		})
		return
	}

	h.writeJSON(w, http.StatusOK, AnonymizeResponse{
		Feasible:       true,
		Dataset:        DatasetPayload{Columns: result.Columns(), Rows: result.Rows()},
		SuppressedRows: input.Len() - result.Len(),
	})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		appErr = errors.NewInternalError(err.Error())
	}
	if appErr.HTTPStatus != 0 {
		status = appErr.HTTPStatus
	}

	h.logger.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": getRequestID(r),
		"error":      err.Error(),
	}).Warn("Request failed")

	h.writeJSON(w, status, errors.ErrorResponse{
		Error:     appErr,
		RequestID: getRequestID(r),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	})
}
