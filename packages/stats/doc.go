// Package stats records request latencies of a run in HDR histograms and
// summarizes them as percentiles, overall and per request.
package stats
