package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/huangsam/acfperiod/core"
	"github.com/huangsam/acfperiod/core/resample"
	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/huangsam/acfperiod/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// fileResponse is the JSON shape returned by find_period_file.
type fileResponse struct {
	Path   string              `json:"path"`
	Label  string              `json:"label"`
	Cached bool                `json:"cached"`
	Result schema.PeriodResult `json:"result"`
}

func (h *toolHandler) handleFindPeriod(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	args := request.GetArguments()
	times, err := floatSlice(args, "times")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	values, err := floatSlice(args, "values")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var errs []float64
	if _, ok := args["errors"]; ok {
		if errs, err = floatSlice(args, "errors"); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	series := schema.TimeSeries{
		Name:   request.GetString("name", "series"),
		Times:  times,
		Values: values,
		Errors: errs,
	}
	if err := series.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid light curve: %v", err)), nil
	}

	result, err := core.FindPeriod(core.WithQuiet(ctx), series, cfg.FinderConfig, resample.New())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("period search failed: %v", err)), nil
	}
	if !request.GetBool("include_sequences", false) {
		result = result.WithoutSequences()
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleFindPeriodFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	cfg, err := h.configFor(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	cfg.Files = []string{path}

	// stdout carries the protocol, so no header and no warnings
	runCtx := core.WithQuiet(core.WithSuppressHeader(ctx))
	outcomes, err := core.AnalyzeFiles(runCtx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("period search failed: %v", err)), nil
	}
	o := outcomes[0]
	if o.Failed() {
		return mcp.NewToolResultError(fmt.Sprintf("period search failed for %s: %s", path, o.ErrorMsg)), nil
	}

	result := *o.Result
	if !request.GetBool("include_sequences", false) {
		result = result.WithoutSequences()
	}
	jsonData, err := json.MarshalIndent(fileResponse{
		Path:   path,
		Label:  schema.GetPlainLabel(result),
		Cached: o.Cached,
		Result: result,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// configFor applies the tuning arguments of a request on top of the server config.
func (h *toolHandler) configFor(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	fc := &cfg.FinderConfig

	if v := request.GetInt("max_lags", -1); v >= 0 {
		fc.MaxLags = v
	}
	if v := request.GetInt("peaks", 0); v != 0 {
		fc.PeakCount = v
	}
	if v := request.GetString("smooth", ""); v != "" {
		fc.SmoothingStrategy = schema.SmoothingStrategy(strings.ToLower(v))
	}
	if v := request.GetInt("smooth_window", -1); v >= 0 {
		fc.SmoothingWindowSize = v
	}
	if v := request.GetString("estimator", ""); v != "" {
		fc.Estimator = schema.CorrelationEstimator(strings.ToLower(v))
	}
	fc.ValuesAreFluxes = request.GetBool("fluxes", fc.ValuesAreFluxes)

	if err := fc.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// floatSlice reads a numeric array argument. JSON null becomes NaN.
func floatSlice(args map[string]any, key string) ([]float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, fmt.Errorf("%s is required", key)
	}
	switch v := raw.(type) {
	case []float64:
		return v, nil
	case []any:
		out := make([]float64, len(v))
		for i, item := range v {
			switch n := item.(type) {
			case nil:
				out[i] = math.NaN()
			case float64:
				out[i] = n
			case int:
				out[i] = float64(n)
			case json.Number:
				f, err := n.Float64()
				if err != nil {
					return nil, fmt.Errorf("%s[%d] is not a number: %w", key, i, err)
				}
				out[i] = f
			default:
				return nil, fmt.Errorf("%s[%d] is not a number", key, i)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be an array of numbers", key)
	}
}
