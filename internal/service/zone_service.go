package service

import (
	"context"
	"fmt"
	"math"

	"fitinsight/internal/analysis"
)

// ZoneRequest customizes a zone analysis. Nil or empty fields keep the automatic value.
type ZoneRequest struct {
	MaxHeartRate *float64 `json:"maxHeartRate,omitempty"`
	ZoneModel    string   `json:"zoneModel,omitempty"`
	SportFilter  string   `json:"sportFilter,omitempty"`
}

// GetZoneAnalysis runs the automatic zone analysis over a user's sessions
func (s *Service) GetZoneAnalysis(ctx context.Context, userID int64) (*analysis.ZoneAnalysisResult, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListSessions(ctx, userID)
	if err != nil {
		return nil, fetchError("listing sessions", err)
	}

	result := analysis.AnalyzeZones(sessions, s.overrides, s.zoneModel)
	s.logger.Debug("zone analysis computed",
		"user_id", userID,
		"sessions", len(sessions),
		"quality", result.Overall.DataQuality,
		"confidence", result.Confidence)
	return &result, nil
}

// CustomZoneAnalysis runs a zone analysis with caller-supplied options
func (s *Service) CustomZoneAnalysis(ctx context.Context, userID int64, req ZoneRequest) (*analysis.ZoneAnalysisResult, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	opts, err := zoneOptions(req, s.zoneModel)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListSessions(ctx, userID)
	if err != nil {
		return nil, fetchError("listing sessions", err)
	}

	result := analysis.AnalyzeZonesCustom(sessions, s.overrides, opts)
	s.logger.Debug("custom zone analysis computed",
		"user_id", userID,
		"model", opts.Model,
		"sport", opts.SportFilter,
		"confidence", result.Confidence)
	return &result, nil
}

func zoneOptions(req ZoneRequest, defaultModel analysis.ZoneModelKind) (analysis.ZoneOptions, error) {
	opts := analysis.ZoneOptions{Model: defaultModel}

	if req.MaxHeartRate != nil {
		hr := *req.MaxHeartRate
		if math.IsNaN(hr) || hr < analysis.MinPlausibleHR || hr > analysis.MaxPlausibleHR {
			return opts, &ValidationError{
				Field:   "maxHeartRate",
				Message: fmt.Sprintf("must be between %d and %d", analysis.MinPlausibleHR, analysis.MaxPlausibleHR),
			}
		}
		opts.MaxHeartRate = hr
	}

	if req.ZoneModel != "" {
		kind, err := analysis.ParseZoneModelKind(req.ZoneModel)
		if err != nil {
			return opts, &ValidationError{Field: "zoneModel", Message: err.Error()}
		}
		opts.Model = kind
	}

	if req.SportFilter != "" {
		if !analysis.IsKnownSport(req.SportFilter) {
			return opts, &ValidationError{Field: "sportFilter", Message: fmt.Sprintf("unknown sport %q", req.SportFilter)}
		}
		opts.SportFilter = analysis.NormalizeSport(req.SportFilter)
	}

	return opts, nil
}
