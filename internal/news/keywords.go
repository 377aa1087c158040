package news

import "market-event-monitor/internal/types"

// Built-in polarity vocabularies. Config may replace either list.
var defaultPositiveWords = []string{
	"gain", "gains", "rally", "surge", "soar", "jump", "rise", "rises",
	"beat", "beats", "record", "strong", "growth", "profit", "profits",
	"upgrade", "upgraded", "outperform", "bullish", "optimistic", "expand",
	"expansion", "breakthrough", "success", "successful", "exceed", "exceeds",
	"robust", "momentum", "recover", "recovery", "dividend", "buyback",
}

var defaultNegativeWords = []string{
	"loss", "losses", "fall", "falls", "drop", "drops", "plunge", "plunges",
	"slump", "decline", "declines", "miss", "misses", "weak", "downgrade",
	"downgraded", "underperform", "bearish", "pessimistic", "lawsuit",
	"fraud", "probe", "investigation", "scandal", "layoff", "layoffs",
	"bankruptcy", "default", "warning", "cut", "cuts", "recall", "crash",
}

// Cue tokens for the heuristic entity tagger.
var honorifics = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"ceo": true, "cfo": true, "coo": true, "cto": true,
	"chairman": true, "president": true, "director": true, "founder": true,
}

var corpSuffixes = []string{
	"Corp", "Inc", "Ltd", "LLC", "Plc", "GmbH", "Group", "Holdings", "Co",
}

var locativePrepositions = map[string]bool{
	"in": true, "at": true, "near": true, "across": true, "throughout": true,
}

// eventKeywords maps each corporate event type to its trigger keywords.
// Iteration happens in enumeration order so confidence ties resolve
// deterministically.
var eventKeywords = []struct {
	Type     types.EventType
	Keywords []string
}{
	{types.EarningsAnnouncement, []string{
		"earnings", "quarterly results", "eps", "revenue", "profit report",
		"guidance", "fiscal quarter", "net income",
	}},
	{types.DividendAnnouncement, []string{
		"dividend", "payout", "distribution", "yield", "ex-dividend",
	}},
	{types.MergerAcquisition, []string{
		"merger", "acquisition", "acquire", "acquires", "takeover", "buyout",
		"deal",
	}},
	{types.LeadershipChange, []string{
		"ceo", "resigns", "resignation", "appoints", "appointed", "steps down",
		"successor", "new chief",
	}},
	{types.CorporateScandal, []string{
		"scandal", "fraud", "investigation", "probe", "lawsuit", "misconduct",
		"sec charges", "accounting irregularities",
	}},
	{types.IPO, []string{
		"ipo", "public offering", "listing", "debut", "goes public",
		"prospectus",
	}},
	{types.Layoffs, []string{
		"layoff", "layoffs", "job cuts", "restructuring", "downsizing",
		"workforce reduction", "redundancies",
	}},
	{types.ProductLaunch, []string{
		"launch", "launches", "unveils", "unveiled", "new product", "release",
		"introduces", "debuts",
	}},
	{types.Partnership, []string{
		"partnership", "partners with", "joint venture", "collaboration",
		"alliance", "teams up",
	}},
	{types.RegulatoryChange, []string{
		"regulation", "regulatory", "antitrust", "compliance", "fine", "ruling",
		"approval", "fda", "tariff",
	}},
}
