// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/acfperiod/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// numberItems is the JSON schema of a numeric array element.
var numberItems = mcp.Items(map[string]any{"type": "number"})

// NewMCPServer initializes and configures the acfperiod MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"ACF Period Finder",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	tuning := []mcp.ToolOption{
		mcp.WithNumber("max_lags", mcp.Description("Largest lag to correlate (0 means half the resampled length).")),
		mcp.WithNumber("peaks", mcp.Description("Number of ACF maxima used for the period fit.")),
		mcp.WithString("smooth", mcp.Description("Smoothing strategy for the ACF."), mcp.Enum("gaussian", "polynomial", "none")),
		mcp.WithNumber("smooth_window", mcp.Description("Odd smoothing window size in lags.")),
		mcp.WithString("estimator", mcp.Description("Autocorrelation estimator."), mcp.Enum("convolution", "lagged-covariance", "autocovariance-ratio", "fft")),
		mcp.WithBoolean("fluxes", mcp.Description("Treat values as fluxes rather than magnitudes.")),
		mcp.WithBoolean("include_sequences", mcp.Description("Include the per-lag ACF arrays in the response.")),
	}

	// --- 1. Tool: find_period ---
	findOpts := []mcp.ToolOption{
		mcp.WithDescription("Estimate the rotation period of a light curve given inline samples, using the McQuillan ACF method."),
		mcp.WithArray("times", mcp.Description("Sample times, in days."), mcp.Required(), numberItems),
		mcp.WithArray("values", mcp.Description("Magnitudes or fluxes, one per time. Use null for missing samples."), mcp.Required(), numberItems),
		mcp.WithArray("errors", mcp.Description("Optional measurement errors, one per time."), numberItems),
		mcp.WithString("name", mcp.Description("Name of the light curve.")),
	}
	s.AddTool(mcp.NewTool("find_period", append(findOpts, tuning...)...), h.handleFindPeriod)

	// --- 2. Tool: find_period_file ---
	fileOpts := []mcp.ToolOption{
		mcp.WithDescription("Estimate the rotation period of a light curve stored in a CSV or Parquet file."),
		mcp.WithString("path", mcp.Description("Path to the light curve file."), mcp.Required()),
	}
	s.AddTool(mcp.NewTool("find_period_file", append(fileOpts, tuning...)...), h.handleFindPeriodFile)

	return s
}

// StartMCPServer starts the acfperiod MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
