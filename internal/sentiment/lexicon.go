package sentiment

// Weighted term lexicons for crypto news. Weights run 1.0-2.0 with
// security and regulatory terms at the top of the range: a missed hack
// headline costs more than a missed rally headline.

var positiveTerms = map[string]float64{
	"bullish":       1.5,
	"surge":         1.5,
	"soar":          1.5,
	"rally":         1.4,
	"rebound":       1.2,
	"gain":          1.0,
	"climb":         1.0,
	"breakout":      1.3,
	"adoption":      1.3,
	"partnership":   1.5,
	"breakthrough":  1.6,
	"upgrade":       1.2,
	"launch":        1.0,
	"integration":   1.1,
	"milestone":     1.2,
	"record high":   1.8,
	"all-time high": 1.8,
	"approval":      1.5,
	"approved":      1.5,
	"institutional": 1.4,
	"accumulation":  1.1,
	"expansion":     1.1,
	"listing":       1.2,
	"mainnet":       1.1,
	"staking":       1.0,
}

var negativeTerms = map[string]float64{
	"bearish":       1.5,
	"crash":         1.8,
	"plunge":        1.5,
	"plummet":       1.5,
	"dump":          1.2,
	"sell-off":      1.4,
	"selloff":       1.4,
	"decline":       1.0,
	"slump":         1.2,
	"hack":          2.0,
	"breach":        2.0,
	"exploit":       2.0,
	"stolen":        2.0,
	"theft":         2.0,
	"scam":          1.8,
	"fraud":         2.0,
	"rug pull":      2.0,
	"ponzi":         1.9,
	"lawsuit":       1.8,
	"sue":           1.6,
	"subpoena":      1.7,
	"banned":        1.8,
	"crackdown":     1.8,
	"investigation": 1.6,
	"sanction":      1.7,
	"fine":          1.3,
	"penalty":       1.4,
	"bankruptcy":    2.0,
	"insolvency":    1.9,
	"liquidation":   1.4,
	"default":       1.5,
	"vulnerability": 1.8,
	"risk":          1.0,
	"warning":       1.1,
	"delisting":     1.6,
	"outage":        1.3,
	"halt":          1.3,
}

// negationTokens flip the polarity of nearby matched terms. Matched as whole
// words only.
var negationTokens = map[string]struct{}{
	"not":     {},
	"no":      {},
	"never":   {},
	"without": {},
	"nor":     {},
	"isn't":   {},
	"wasn't":  {},
	"doesn't": {},
	"didn't":  {},
	"won't":   {},
	"can't":   {},
	"cannot":  {},
	"denies":  {},
	"denied":  {},
}
