package types

// Region identifies a market region served by the trading account.
// Adding a region means adding rows to the tick-size and fee tables,
// not adding code.
type Region string

const (
	RegionKR Region = "KR" // Korea (KRX)
	RegionUS Region = "US" // United States
	RegionJP Region = "JP" // Japan
	RegionHK Region = "HK" // Hong Kong
	RegionCN Region = "CN" // China (Shanghai/Shenzhen)
	RegionVN Region = "VN" // Vietnam
)

// AllRegions lists every supported market region.
var AllRegions = []Region{
	RegionKR,
	RegionUS,
	RegionJP,
	RegionHK,
	RegionCN,
	RegionVN,
}

// IsValid reports whether r is a known market region.
func (r Region) IsValid() bool {
	switch r {
	case RegionKR, RegionUS, RegionJP, RegionHK, RegionCN, RegionVN:
		return true
	default:
		return false
	}
}

// Currency returns the settlement currency code for the region.
func (r Region) Currency() string {
	switch r {
	case RegionKR:
		return "KRW"
	case RegionUS:
		return "USD"
	case RegionJP:
		return "JPY"
	case RegionHK:
		return "HKD"
	case RegionCN:
		return "CNY"
	case RegionVN:
		return "VND"
	default:
		return ""
	}
}
