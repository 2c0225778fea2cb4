package router

// ImpactSeverity buckets a route's total price impact for display.
type ImpactSeverity string

const (
	ImpactNone     ImpactSeverity = "none"
	ImpactLow      ImpactSeverity = "low"
	ImpactModerate ImpactSeverity = "moderate"
	ImpactHigh     ImpactSeverity = "high"
	ImpactExtreme  ImpactSeverity = "extreme"
)

func GetPriceImpactSeverity(bps uint32) ImpactSeverity {
	switch {
	case bps < 10:
		return ImpactNone
	case bps < 100:
		return ImpactLow
	case bps < 300:
		return ImpactModerate
	case bps < 500:
		return ImpactHigh
	default:
		return ImpactExtreme
	}
}

func GetPriceImpactWarning(bps uint32) string {
	switch GetPriceImpactSeverity(bps) {
	case ImpactNone:
		return ""
	case ImpactLow:
		return "Price impact is low"
	case ImpactModerate:
		return "Price impact is moderate, consider splitting the trade"
	case ImpactHigh:
		return "Price impact is high, you may receive significantly less"
	default:
		return "Price impact is extreme, this trade will move the market"
	}
}
