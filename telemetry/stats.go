package telemetry

import (
	"log/slog"
	"sort"
)

// WindowStats holds aggregated statistics for a window of simulation time.
type WindowStats struct {
	WindowStart float64 `csv:"window_start"`
	WindowEnd   float64 `csv:"window_end"`
	Events      uint64  `csv:"events"` // dispatches so far

	// Population at window end
	Population int `csv:"population"`
	Infected   int `csv:"infected"`
	Uninfected int `csv:"uninfected"`

	// Events during window
	Births            int `csv:"births"`
	DeathsStarvation  int `csv:"deaths_starvation"`
	DeathsAge         int `csv:"deaths_age"`
	Moves             int `csv:"moves"`
	Stays             int `csv:"stays"` // move events where every visible cell was taken
	Mutations         int `csv:"mutations"`
	ImmuneResponses   int `csv:"immune_responses"`
	InfectionsCleared int `csv:"infections_cleared"`
	NewInfections     int `csv:"new_infections"`

	// Foraging
	Harvested float64 `csv:"harvested"`

	// Wealth distribution (sampled at window end)
	WealthMean float64 `csv:"wealth_mean"`
	WealthP10  float64 `csv:"wealth_p10"`
	WealthP50  float64 `csv:"wealth_p50"`
	WealthP90  float64 `csv:"wealth_p90"`

	// Infection load and immune fit
	MeanInfections   float64 `csv:"mean_infections"`
	MeanPoolDistance float64 `csv:"mean_pool_distance"`

	// Grid
	TotalResource float64 `csv:"total_resource"`
}

// InfectedFraction returns infected agents as a share of the population.
func (s WindowStats) InfectedFraction() float64 {
	if s.Population == 0 {
		return 0
	}
	return float64(s.Infected) / float64(s.Population)
}

// Deaths returns deaths of any cause during the window.
func (s WindowStats) Deaths() int {
	return s.DeathsStarvation + s.DeathsAge
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeWealthStats calculates mean and percentiles from wealth values.
func ComputeWealthStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	// Sort for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("window_start", s.WindowStart),
		slog.Float64("window_end", s.WindowEnd),
		slog.Uint64("events", s.Events),
		slog.Int("population", s.Population),
		slog.Int("infected", s.Infected),
		slog.Int("births", s.Births),
		slog.Int("deaths_starvation", s.DeathsStarvation),
		slog.Int("deaths_age", s.DeathsAge),
		slog.Int("moves", s.Moves),
		slog.Int("stays", s.Stays),
		slog.Int("mutations", s.Mutations),
		slog.Int("immune_responses", s.ImmuneResponses),
		slog.Int("infections_cleared", s.InfectionsCleared),
		slog.Int("new_infections", s.NewInfections),
		slog.Float64("harvested", s.Harvested),
		slog.Float64("wealth_mean", s.WealthMean),
		slog.Float64("wealth_p50", s.WealthP50),
		slog.Float64("mean_infections", s.MeanInfections),
		slog.Float64("mean_pool_distance", s.MeanPoolDistance),
		slog.Float64("total_resource", s.TotalResource),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEnd,
		"events", s.Events,
		"population", s.Population,
		"infected", s.Infected,
		"uninfected", s.Uninfected,
		"births", s.Births,
		"deaths_starvation", s.DeathsStarvation,
		"deaths_age", s.DeathsAge,
		"moves", s.Moves,
		"new_infections", s.NewInfections,
		"infections_cleared", s.InfectionsCleared,
		"wealth_mean", s.WealthMean,
		"wealth_p10", s.WealthP10,
		"wealth_p90", s.WealthP90,
		"mean_pool_distance", s.MeanPoolDistance,
		"total_resource", s.TotalResource,
	)
}
