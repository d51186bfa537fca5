package setup

import "github.com/apexcoach/telemetry-coach/pkg/model"

// Rule thresholds below are heuristics over normalized signatures, not
// measured physics. Mechanical rules require a consistent driver signature
// for their corner class; an inconsistent one points at the driver, not
// the car, and firing a mechanical rule there would be misleading advice.
const (
	apexCVDriverLimit = 0.06
	minCornersPerRule = 6
	minZonesPerRule   = 4
)

func DefaultRules() []Rule {
	return []Rule{
		{Name: "front-grip", Evaluate: frontGripRule},
		{Name: "driver-consistency", Evaluate: driverConsistencyRule},
		{Name: "suspension-compliance", Evaluate: suspensionComplianceRule},
		{Name: "brake-bias", Evaluate: brakeBiasRule},
		{Name: "braking-technique", Evaluate: brakingTechniqueRule},
		{Name: "downforce-trim", Evaluate: downforceTrimRule},
	}
}

// High mid-corner speed loss concentrated in tight corners with high
// lateral load at entry reads as an understeer balance.
func frontGripRule(sig *Signature) *model.SetupRecommendation {
	n := sig.CornerCount[model.CornerTight]
	loss := sig.AvgSpeedLossFrac[model.CornerTight]
	latG := sig.AvgEntryLatG[model.CornerTight]
	if n == 0 || loss < 0.5 || latG < 0.9 {
		return nil
	}
	if sig.ApexSpeedCV[model.CornerTight] > apexCVDriverLimit {
		// driver-limited signature, leave it to the consistency rule
		return nil
	}
	return &model.SetupRecommendation{
		Parameter:       "front suspension",
		CurrentBias:     "understeer",
		SuggestedChange: "soften front anti-roll bar or add front downforce",
		Confidence:      confidence((loss-0.5)*2+0.5, n, minCornersPerRule),
		ExpectedEffect:  "higher mid-corner speed in tight corners",
	}
}

// Inconsistent apex speed across repeated corners of the same class is a
// driving signature; recommend practice, not setup changes.
func driverConsistencyRule(sig *Signature) *model.SetupRecommendation {
	worst := 0.0
	var worstClass model.CornerClass
	worstN := 0
	for class, cv := range sig.ApexSpeedCV {
		if cv > worst {
			worst = cv
			worstClass = class
			worstN = sig.CornerCount[class]
		}
	}
	if worst <= apexCVDriverLimit || worstN < 4 {
		return nil
	}
	return &model.SetupRecommendation{
		Parameter:       "driver",
		CurrentBias:     "inconsistent " + string(worstClass) + "-corner apex speed",
		SuggestedChange: "driving-consistency focus rather than a mechanical change",
		Confidence:      confidence(worst/apexCVDriverLimit/3, worstN, minCornersPerRule),
		ExpectedEffect:  "repeatable apex speeds before further setup work",
	}
}

// A low consistency rating with enough laps suggests the car is hard to
// place; a softer platform is the usual first try.
func suspensionComplianceRule(sig *Signature) *model.SetupRecommendation {
	if !sig.ConsistencyOK || sig.ConsistencyRating >= 7.0 || sig.LapCount < 3 {
		return nil
	}
	return &model.SetupRecommendation{
		Parameter:       "suspension stiffness",
		CurrentBias:     "unpredictable handling",
		SuggestedChange: "soften springs/dampers for a more forgiving platform",
		Confidence:      confidence((7.0-sig.ConsistencyRating)/7.0, sig.LapCount, 5),
		ExpectedEffect:  "improved lap-time consistency",
	}
}

// Consistent braking peaks but a poor avg/peak ratio: deceleration is not
// sustained, worth a bias adjustment.
func brakeBiasRule(sig *Signature) *model.SetupRecommendation {
	if sig.BrakingZoneCount < minZonesPerRule || sig.BrakingEfficiency <= 0 {
		return nil
	}
	if sig.BrakingEfficiency >= 0.55 || sig.PeakDecelCV > 0.15 {
		return nil
	}
	return &model.SetupRecommendation{
		Parameter:       "brake bias",
		CurrentBias:     "deceleration not sustained after initial hit",
		SuggestedChange: "move brake bias rearward one step",
		Confidence:      confidence((0.55-sig.BrakingEfficiency)*2, sig.BrakingZoneCount, minZonesPerRule),
		ExpectedEffect:  "shorter braking distances from better rear usage",
	}
}

// Highly varying braking peaks are a technique signature, not a setup one.
func brakingTechniqueRule(sig *Signature) *model.SetupRecommendation {
	if sig.BrakingZoneCount < minZonesPerRule || sig.PeakDecelCV <= 0.15 {
		return nil
	}
	return &model.SetupRecommendation{
		Parameter:       "driver",
		CurrentBias:     "inconsistent braking pressure",
		SuggestedChange: "practice repeatable threshold braking before setup changes",
		Confidence:      confidence(sig.PeakDecelCV*3, sig.BrakingZoneCount, minZonesPerRule),
		ExpectedEffect:  "consistent braking points and peak deceleration",
	}
}

// A fast-corner dominated lap with little speed loss can afford less wing.
func downforceTrimRule(sig *Signature) *model.SetupRecommendation {
	n := sig.CornerCount[model.CornerFast]
	if sig.FastShare < 0.5 || n < 3 {
		return nil
	}
	if sig.AvgSpeedLossFrac[model.CornerFast] >= 0.15 {
		return nil
	}
	return &model.SetupRecommendation{
		Parameter:       "rear wing",
		CurrentBias:     "drag-limited on a fast layout",
		SuggestedChange: "reduce rear wing one step",
		Confidence:      confidence(sig.FastShare, n, minCornersPerRule),
		ExpectedEffect:  "higher straight-line and fast-corner speed",
	}
}
