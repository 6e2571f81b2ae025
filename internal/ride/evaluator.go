package ride

import (
	"fmt"
	"strconv"

	"ridecheck/internal/types"
)

// ReasonNoData is the verdict reason when no observation was supplied.
const ReasonNoData = "no data available"

// Evaluator checks a weather observation against a preference profile.
type Evaluator struct {
	vocab *Vocabulary
}

// NewEvaluator returns an Evaluator using vocab for precipitation checks. A
// nil vocab selects DefaultVocabulary.
func NewEvaluator(vocab *Vocabulary) *Evaluator {
	if vocab == nil {
		vocab = DefaultVocabulary()
	}
	return &Evaluator{vocab: vocab}
}

var defaultEvaluator = NewEvaluator(nil)

// Evaluate checks obs against p with the default vocabulary.
func Evaluate(obs *types.Observation, p types.PreferenceProfile) types.Verdict {
	return defaultEvaluator.Evaluate(obs, p)
}

// Evaluate returns the verdict for obs. Constraints are checked in a fixed
// order (too cold, too hot, too windy, precipitation) and the first violation
// decides the reason.
func (e *Evaluator) Evaluate(obs *types.Observation, p types.PreferenceProfile) types.Verdict {
	if obs == nil {
		return types.Verdict{Suitable: false, Reason: ReasonNoData}
	}

	if obs.TemperatureC < p.MinTemp {
		return types.Verdict{Reason: fmt.Sprintf(
			"too cold: current temperature %s°C is below your minimum of %s°C",
			num(obs.TemperatureC), num(p.MinTemp),
		)}
	}
	if obs.TemperatureC > p.MaxTemp {
		return types.Verdict{Reason: fmt.Sprintf(
			"too hot: current temperature %s°C is above your maximum of %s°C",
			num(obs.TemperatureC), num(p.MaxTemp),
		)}
	}
	if obs.WindSpeedMS > p.MaxWindSpeed {
		return types.Verdict{Reason: fmt.Sprintf(
			"too windy: current wind speed %s m/s exceeds your maximum of %s m/s",
			num(obs.WindSpeedMS), num(p.MaxWindSpeed),
		)}
	}
	if !p.AllowPrecipitation {
		if tok, ok := e.vocab.Match(obs.Condition); ok {
			return types.Verdict{Reason: fmt.Sprintf(
				"precipitation: current condition is %q (matches %q) and riding in rain or snow is disabled",
				obs.Condition, tok,
			)}
		}
	}

	return types.Verdict{Suitable: true, Reason: fmt.Sprintf(
		"good riding weather: %s°C, wind %.1f m/s, %s",
		num(obs.TemperatureC), obs.WindSpeedMS, obs.Condition,
	)}
}

// Summarize renders the one-line weather summary used in section headers.
func Summarize(obs *types.Observation) string {
	if obs == nil {
		return "no weather data"
	}
	return fmt.Sprintf("Temperature: %s°C | Wind: %.1f m/s | Condition: %s | Humidity: %d%%",
		num(obs.TemperatureC), obs.WindSpeedMS, obs.Condition, obs.HumidityPct)
}

// num formats v with the fewest digits that round-trip, so -5 stays "-5".
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
