package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"oraclesim/app"
	"oraclesim/domain/oracle"
	"oraclesim/domain/payoff"
	"oraclesim/domain/run"
	"oraclesim/internal"
	"oraclesim/internal/config"
	"oraclesim/internal/errors"
)

// maxBodyBytes bounds request bodies; configurations are small
const maxBodyBytes = 1 << 20

// SimulationHandler serves Monte Carlo runs over JSON
type SimulationHandler struct {
	service     *app.MonteCarloService
	logger      *internal.Logger
	defaultSeed int64
}

// NewSimulationHandler creates a handler. defaultSeed is used when a request omits its seed.
func NewSimulationHandler(service *app.MonteCarloService, logger *internal.Logger, defaultSeed int64) *SimulationHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SimulationHandler{service: service, logger: logger, defaultSeed: defaultSeed}
}

// simulationBody is decoded on top of the default configuration
type simulationBody struct {
	Config oracle.Config `json:"config"`
	Runs   int           `json:"runs"`
	Seed   *int64        `json:"seed"`
}

type appealBody struct {
	Config          oracle.Config       `json:"config"`
	Appeal          oracle.AppealConfig `json:"appeal"`
	Runs            int                 `json:"runs"`
	Seed            *int64              `json:"seed"`
	RecordAllLevels bool                `json:"record_all_levels"`
}

// FingerprintResponse is returned by the fingerprint endpoint
type FingerprintResponse struct {
	Kind        run.Kind           `json:"kind"`
	Fingerprint run.RunFingerprint `json:"fingerprint"`
}

// PayoffMatrixResponse lists the payoff table for every possible count of X-voting peers
type PayoffMatrixResponse struct {
	PayoffType   oracle.PayoffType `json:"payoff_type"`
	Attack       bool              `json:"attack"`
	Compensation float64           `json:"compensation"`
	Rows         []payoff.Matrix   `json:"rows"`
}

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HandleSimulations runs a batch of plain rounds
func (h *SimulationHandler) HandleSimulations(w http.ResponseWriter, r *http.Request) {
	body := simulationBody{Config: oracle.DefaultConfig(), Runs: config.DefaultRuns}
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.service.RunSimulations(r.Context(), app.SimulationRequest{
		Config: body.Config,
		Runs:   body.Runs,
		Seed:   h.seedOr(body.Seed),
	})
	if err != nil {
		h.writeError(w, errors.FromSimulation(err, "simulation failed"))
		return
	}
	if !includeHistory(r) {
		result.History = nil
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleAppeals runs a batch of appeal chains
func (h *SimulationHandler) HandleAppeals(w http.ResponseWriter, r *http.Request) {
	body := appealBody{
		Config: oracle.DefaultConfig(),
		Appeal: oracle.AppealConfig{AppealProb: 0.5, MaxAppeals: 3},
		Runs:   config.DefaultRuns,
	}
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.service.RunSimulationsWithAppeals(r.Context(), app.AppealRequest{
		Config:          body.Config,
		Appeal:          body.Appeal,
		Runs:            body.Runs,
		Seed:            h.seedOr(body.Seed),
		RecordAllLevels: body.RecordAllLevels,
	})
	if err != nil {
		h.writeError(w, errors.FromSimulation(err, "appeal simulation failed"))
		return
	}
	if !includeHistory(r) {
		result.Records = nil
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleFingerprint returns the replay fingerprint of a run without executing it.
// An appeal block in the body selects an appeal run.
func (h *SimulationHandler) HandleFingerprint(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Config          oracle.Config        `json:"config"`
		Appeal          *oracle.AppealConfig `json:"appeal"`
		Runs            int                  `json:"runs"`
		Seed            *int64               `json:"seed"`
		RecordAllLevels bool                 `json:"record_all_levels"`
	}
	body.Config = oracle.DefaultConfig()
	body.Runs = config.DefaultRuns
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	cfg := body.Config.Normalize()
	if err := cfg.Validate(); err != nil {
		h.writeError(w, errors.FromSimulation(err, "invalid configuration"))
		return
	}
	kind := run.KindRounds
	var plan *run.AppealPlan
	if body.Appeal != nil {
		if err := body.Appeal.ValidateFor(cfg.NumJurors); err != nil {
			h.writeError(w, errors.FromSimulation(err, "invalid appeal settings"))
			return
		}
		kind = run.KindAppeals
		plan = &run.AppealPlan{AppealConfig: *body.Appeal, RecordAllLevels: body.RecordAllLevels}
	}

	fp := run.NewRunFingerprint(cfg, plan, body.Runs, h.seedOr(body.Seed), h.service.CodeVersion())
	writeJSON(w, http.StatusOK, FingerprintResponse{Kind: kind, Fingerprint: fp})
}

// HandlePayoffMatrix returns the payoff table one juror faces for the given configuration
func (h *SimulationHandler) HandlePayoffMatrix(w http.ResponseWriter, r *http.Request) {
	body := simulationBody{Config: oracle.DefaultConfig()}
	if err := decodeBody(r, &body); err != nil {
		h.writeError(w, err)
		return
	}

	cfg := body.Config.Normalize()
	if err := cfg.Validate(); err != nil {
		h.writeError(w, errors.FromSimulation(err, "invalid configuration"))
		return
	}
	scheme, err := payoff.NewScheme(cfg)
	if err != nil {
		h.writeError(w, errors.FromSimulation(err, "invalid payoff configuration"))
		return
	}

	resp := PayoffMatrixResponse{
		PayoffType:   cfg.PayoffType,
		Attack:       cfg.Attack,
		Compensation: scheme.Compensation(),
		Rows:         make([]payoff.Matrix, cfg.NumJurors),
	}
	for othersX := range resp.Rows {
		resp.Rows[othersX] = scheme.Table(cfg.NumJurors, othersX)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleHealth reports liveness
func (h *SimulationHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"code_version": h.service.CodeVersion(),
		"workers":      h.service.Workers(),
	})
}

func (h *SimulationHandler) seedOr(seed *int64) int64 {
	if seed == nil {
		return h.defaultSeed
	}
	return *seed
}

func (h *SimulationHandler) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("[API] %s: %v", code, err)
	} else {
		h.logger.Debug("[API] Rejected request (%s): %v", code, err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidInput, errors.CodeConfigInvalid:
		return http.StatusBadRequest
	case errors.CodeCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes JSON over the defaults already in v. An empty body keeps the defaults.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return errors.InvalidInput(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// includeHistory reads ?history=false; anything else keeps per-run rows
func includeHistory(r *http.Request) bool {
	v := r.URL.Query().Get("history")
	if v == "" {
		return true
	}
	include, err := strconv.ParseBool(v)
	return err != nil || include
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
