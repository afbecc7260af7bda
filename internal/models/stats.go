package models

import (
	"time"
)

// GlobalStats represents service-wide import statistics
type GlobalStats struct {
	TotalAnalyses     int64          `json:"totalAnalyses"`
	TotalImports      int64          `json:"totalImports"`
	EndpointsInserted int64          `json:"endpointsInserted"`
	EndpointsReplaced int64          `json:"endpointsReplaced"`
	EndpointsSkipped  int64          `json:"endpointsSkipped"`
	TestsRelinked     int64          `json:"testsRelinked"`
	FailedEndpoints   int64          `json:"failedEndpoints"`
	AvgAnalysisTimeMs float64        `json:"avgAnalysisTimeMs"`
	AvgImportTimeMs   float64        `json:"avgImportTimeMs"`
	StartTime         time.Time      `json:"startTime"`
	Uptime            string         `json:"uptime"`
	PerSpec           []SpecStats    `json:"perSpec"`
	RecentFailures    []FailureStat  `json:"recentFailures"`
}

// SpecStats represents import statistics for one spec
type SpecStats struct {
	SpecID            string    `json:"specId"`
	Analyses          int64     `json:"analyses"`
	Imports           int64     `json:"imports"`
	EndpointsInserted int64     `json:"endpointsInserted"`
	EndpointsReplaced int64     `json:"endpointsReplaced"`
	TestsRelinked     int64     `json:"testsRelinked"`
	LastImportTime    time.Time `json:"lastImportTime,omitempty"`
}

// FailureStat represents one failed endpoint merge
type FailureStat struct {
	Timestamp time.Time `json:"timestamp"`
	SpecID    string    `json:"specId"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Error     string    `json:"error"`
}
