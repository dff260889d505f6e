// Package analytics holds illustrative pipeline-funnel heuristics. The
// stage durations and loss-reason weights are named, overridable defaults,
// not measured business rules; callers may substitute their own tables.
package analytics

// StageDuration is the expected dwell time for one funnel stage.
type StageDuration struct {
	Stage string  `json:"stage"`
	Days  float64 `json:"days"`
}

// LossReason is a relative weight for why deals are lost.
type LossReason struct {
	Reason string  `json:"reason"`
	Weight float64 `json:"weight"`
}

// DefaultStageDurations is the illustrative deal funnel, in order.
var DefaultStageDurations = []StageDuration{
	{Stage: "lead", Days: 3},
	{Stage: "qualified", Days: 7},
	{Stage: "proposal", Days: 10},
	{Stage: "negotiation", Days: 14},
	{Stage: "closed", Days: 2},
}

// DefaultLossReasonWeights is the illustrative loss distribution.
var DefaultLossReasonWeights = []LossReason{
	{Reason: "price", Weight: 0.35},
	{Reason: "competitor", Weight: 0.25},
	{Reason: "timing", Weight: 0.20},
	{Reason: "no_budget", Weight: 0.12},
	{Reason: "unresponsive", Weight: 0.08},
}

// StageEstimate is one stage with its share of the full cycle.
type StageEstimate struct {
	Stage string  `json:"stage"`
	Days  float64 `json:"days"`
	Share float64 `json:"share"`
}

// LossEstimate is one loss reason with its normalized share.
type LossEstimate struct {
	Reason string  `json:"reason"`
	Share  float64 `json:"share"`
}

// ExpectedCycleDays sums the stage durations.
func ExpectedCycleDays(stages []StageDuration) float64 {
	var total float64
	for _, s := range stages {
		total += s.Days
	}
	return total
}

// StageEstimates returns each stage with its share of the total cycle, in
// input order. An empty or zero-duration funnel yields shares of 0.
func StageEstimates(stages []StageDuration) []StageEstimate {
	total := ExpectedCycleDays(stages)
	out := make([]StageEstimate, len(stages))
	for i, s := range stages {
		est := StageEstimate{Stage: s.Stage, Days: s.Days}
		if total > 0 {
			est.Share = s.Days / total
		}
		out[i] = est
	}
	return out
}

// LossBreakdown normalizes the weights into shares summing to 1, in input
// order. Non-positive weights contribute 0.
func LossBreakdown(weights []LossReason) []LossEstimate {
	var total float64
	for _, w := range weights {
		if w.Weight > 0 {
			total += w.Weight
		}
	}
	out := make([]LossEstimate, len(weights))
	for i, w := range weights {
		est := LossEstimate{Reason: w.Reason}
		if total > 0 && w.Weight > 0 {
			est.Share = w.Weight / total
		}
		out[i] = est
	}
	return out
}

// FilterStages keeps only the named stages, preserving funnel order. An
// empty name list keeps everything. Unknown names are ignored.
func FilterStages(stages []StageDuration, names []string) []StageDuration {
	if len(names) == 0 {
		return stages
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []StageDuration
	for _, s := range stages {
		if wanted[s.Stage] {
			out = append(out, s)
		}
	}
	return out
}
