package memory

import (
	"tender_award/internal/models/offer"
	"tender_award/internal/models/tender"
)

// priceScore normalizes price competitiveness against the tender ceiling,
// capped at 100. Integer floor division throughout; price is guaranteed
// positive by submission-time validation.
func priceScore(maxPrice, price int64) int64 {
	score := maxPrice * 100 / price
	if score > 100 {
		score = 100
	}
	return score
}

func combinedScore(priceScore, qualityScore, weightPrice, weightQuality int64) int64 {
	return (priceScore*weightPrice + qualityScore*weightQuality) / 100
}

// selectWinner scans the participants in submission order and returns the
// provider with the highest combined score. A later participant takes the
// lead only on a strictly greater score, so ties go to the earliest
// submission. Returns "" when no participant produced a score.
func selectWinner(ten tender.Tender, participants []string, offers map[string]*offer.Offer) string {
	winner := ""
	var best int64 = -1

	for _, provider := range participants {
		off, ok := offers[provider]
		if !ok {
			continue
		}

		combined := combinedScore(
			priceScore(ten.MaxPrice, off.Price),
			off.QualityScore,
			ten.WeightPrice,
			ten.WeightQuality,
		)
		if combined > best {
			best = combined
			winner = provider
		}
	}

	return winner
}
