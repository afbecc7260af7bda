package stats

import (
	"sort"
	"sync"
	"time"

	"github.com/tandt53/apilot/internal/models"
)

// Collector aggregates import and analysis statistics
type Collector struct {
	mu                sync.RWMutex
	startTime         time.Time
	totalAnalyses     int64
	totalImports      int64
	analysisTimeTotal time.Duration
	importTimeTotal   time.Duration
	perSpec           map[string]*models.SpecStats
	recentFailures    []models.FailureStat
	maxFailures       int

	endpointsInserted int64
	endpointsReplaced int64
	endpointsSkipped  int64
	testsRelinked     int64
	failedEndpoints   int64
}

// NewCollector creates a new statistics collector
func NewCollector() *Collector {
	return &Collector{
		startTime:      time.Now(),
		perSpec:        make(map[string]*models.SpecStats),
		recentFailures: make([]models.FailureStat, 0),
		maxFailures:    100,
	}
}

// RecordAnalysis records one analysis run against a spec
func (c *Collector) RecordAnalysis(specID string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalAnalyses++
	c.analysisTimeTotal += duration
	c.specStats(specID).Analyses++
}

// RecordImport records one merge batch and its outcome counts
func (c *Collector) RecordImport(specID string, inserted, replaced, skipped, relinked, failed int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalImports++
	c.importTimeTotal += duration
	c.endpointsInserted += int64(inserted)
	c.endpointsReplaced += int64(replaced)
	c.endpointsSkipped += int64(skipped)
	c.testsRelinked += int64(relinked)
	c.failedEndpoints += int64(failed)

	s := c.specStats(specID)
	s.Imports++
	s.EndpointsInserted += int64(inserted)
	s.EndpointsReplaced += int64(replaced)
	s.TestsRelinked += int64(relinked)
	s.LastImportTime = time.Now()
}

// RecordFailure records one failed endpoint merge
func (c *Collector) RecordFailure(specID, method, path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recentFailures = append(c.recentFailures, models.FailureStat{
		Timestamp: time.Now(),
		SpecID:    specID,
		Method:    method,
		Path:      path,
		Error:     err.Error(),
	})

	// Trim if over max
	if len(c.recentFailures) > c.maxFailures {
		c.recentFailures = c.recentFailures[len(c.recentFailures)-c.maxFailures:]
	}
}

// GlobalStats returns a snapshot of all collected statistics
func (c *Collector) GlobalStats() models.GlobalStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := models.GlobalStats{
		TotalAnalyses:     c.totalAnalyses,
		TotalImports:      c.totalImports,
		EndpointsInserted: c.endpointsInserted,
		EndpointsReplaced: c.endpointsReplaced,
		EndpointsSkipped:  c.endpointsSkipped,
		TestsRelinked:     c.testsRelinked,
		FailedEndpoints:   c.failedEndpoints,
		StartTime:         c.startTime,
		Uptime:            time.Since(c.startTime).Round(time.Second).String(),
		PerSpec:           make([]models.SpecStats, 0, len(c.perSpec)),
		RecentFailures:    append([]models.FailureStat(nil), c.recentFailures...),
	}

	if c.totalAnalyses > 0 {
		stats.AvgAnalysisTimeMs = float64(c.analysisTimeTotal.Milliseconds()) / float64(c.totalAnalyses)
	}
	if c.totalImports > 0 {
		stats.AvgImportTimeMs = float64(c.importTimeTotal.Milliseconds()) / float64(c.totalImports)
	}

	for _, s := range c.perSpec {
		stats.PerSpec = append(stats.PerSpec, *s)
	}
	sort.Slice(stats.PerSpec, func(i, j int) bool {
		return stats.PerSpec[i].SpecID < stats.PerSpec[j].SpecID
	})

	return stats
}

// SpecStats returns the statistics recorded for one spec
func (c *Collector) SpecStats(specID string) models.SpecStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if s, ok := c.perSpec[specID]; ok {
		return *s
	}
	return models.SpecStats{SpecID: specID}
}

// Reset clears all collected statistics
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.totalAnalyses = 0
	c.totalImports = 0
	c.analysisTimeTotal = 0
	c.importTimeTotal = 0
	c.endpointsInserted = 0
	c.endpointsReplaced = 0
	c.endpointsSkipped = 0
	c.testsRelinked = 0
	c.failedEndpoints = 0
	c.perSpec = make(map[string]*models.SpecStats)
	c.recentFailures = make([]models.FailureStat, 0)
}

// specStats returns the mutable per-spec record, creating it on first use.
// Caller must hold the lock.
func (c *Collector) specStats(specID string) *models.SpecStats {
	s, ok := c.perSpec[specID]
	if !ok {
		s = &models.SpecStats{SpecID: specID}
		c.perSpec[specID] = s
	}
	return s
}
