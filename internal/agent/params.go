package agent

import "mindplay/internal/prompt"

// SamplingParams are the generation settings for one chat completion call.
// TopK of 0 and a nil MinP mean "not sent"; those knobs are vendor
// extensions carried in the request's extra body.
type SamplingParams struct {
	Temperature float64
	TopP        float64
	TopK        int
	MinP        *float64
}

// samplingFor returns the per-game generation settings. IPD runs cooler
// sampling; every other game uses the defaults.
func samplingFor(game prompt.Game) SamplingParams {
	if game == prompt.GameThreePlayerIPD {
		minP := 0.0
		return SamplingParams{Temperature: 0.6, TopP: 0.95, TopK: 20, MinP: &minP}
	}
	return SamplingParams{Temperature: 1.0, TopP: 1.0}
}
