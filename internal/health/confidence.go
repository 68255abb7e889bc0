package health

import "battwatch/internal/models"

// minSpecConfidence is the device-spec confidence below which any estimate is
// rated very low regardless of sample count.
const minSpecConfidence = 0.5

// dischargeBonus rewards having a second independent evidence source.
const dischargeBonus = 2

// ScoreConfidence maps the post-filter sample count, the device-spec confidence
// and the presence of discharge-derived evidence to a confidence tier.
func ScoreConfidence(sampleCount int, specConfidence float64, hasDischargeData bool) models.ConfidenceTier {
	if specConfidence < minSpecConfidence {
		return models.ConfidenceVeryLow
	}

	adjusted := sampleCount
	if hasDischargeData {
		adjusted += dischargeBonus
	}

	switch {
	case adjusted >= 10:
		return models.ConfidenceVeryHigh
	case adjusted >= 5:
		return models.ConfidenceHigh
	case adjusted >= 3:
		return models.ConfidenceMedium
	case adjusted >= 2:
		return models.ConfidenceLow
	default:
		return models.ConfidenceVeryLow
	}
}
