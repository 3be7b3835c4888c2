package schema

// EnrichedPeriodResult adds presentation data to a PeriodResult.
type EnrichedPeriodResult struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	PeriodResult
}

// Result labels derived from the warnings on a result.
const (
	FittedLabel = "Fitted"
	AliasLabel  = "Alias?"
	NaiveLabel  = "Naive"
)

// GetPlainLabel returns a plain text label describing how trustworthy the period is.
func GetPlainLabel(r PeriodResult) string {
	switch {
	case r.FitFailed:
		return NaiveLabel
	case r.AliasSuspected:
		return AliasLabel
	default:
		return FittedLabel
	}
}

// EnrichResults adds rank and label to a list of results, keeping input order.
func EnrichResults(results []PeriodResult) []EnrichedPeriodResult {
	output := make([]EnrichedPeriodResult, len(results))
	for i, r := range results {
		output[i] = EnrichedPeriodResult{
			Rank:         i + 1,
			Label:        GetPlainLabel(r),
			PeriodResult: r,
		}
	}
	return output
}
