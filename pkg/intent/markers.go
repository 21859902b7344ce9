package intent

// Keyword tables driving the motivation sub-score and intent-kind
// confidences. Matching is case-insensitive substring over user messages.
// The tables are data, not code: tuning them must not require touching the
// scoring algorithm.

// markerSet is one weighted group of motivation markers.
type markerSet struct {
	name    string
	weight  float64
	markers []string
}

// motivationSets are scanned in order; every matched marker contributes its
// set's weight once per distinct marker.
var motivationSets = []markerSet{
	{
		name:   "life-event",
		weight: 30,
		markers: []string{
			"divorce", "relocat", "job loss", "lost my job", "death in",
			"passed away", "inherit", "foreclos", "bankrupt",
		},
	},
	{
		name:   "urgency",
		weight: 20,
		markers: []string{
			"asap", "immediately", "right away", "urgent", "fast",
			"as soon as possible", "must sell", "must move", "need to sell",
			"need to buy", "need to move",
		},
	},
	{
		name:   "commitment",
		weight: 15,
		markers: []string{
			"definitely", "ready", "committed", "decided", "sole decision",
			"let's do it", "i'm in",
		},
	},
	{
		name:   "curiosity-only",
		weight: -20,
		markers: []string{
			"just curious", "browsing", "just looking", "not really looking",
			"no rush", "someday", "window shopping",
		},
	},
}

// Condition sub-score markers (seller conversations only).
var (
	defectMarkers = []string{
		"needs work", "needs repair", "fixer", "roof", "hvac", "foundation",
		"outdated", "as-is", "as is", "deferred maintenance", "water damage",
		"old kitchen", "old bathroom",
	}
	realisticConditionMarkers = []string{
		"move-in ready", "well maintained", "recently updated", "good shape",
		"honest", "realistic",
	}
	perfectConditionMarkers = []string{
		"perfect condition", "nothing wrong", "flawless", "immaculate",
	}
)

// Price sub-score markers.
var (
	compsMarkers = []string{
		"comps", "comparable", "sold for", "recently sold", "market value",
		"appraisal",
	}
	zestimateMarkers = []string{
		"zestimate", "zillow says", "zillow estimate", "redfin estimate",
		"online estimate",
	}
)

// Intent-kind keyword tables. Every occurrence counts; confidence is
// count/(count+3) so it stays in [0,1).
var (
	buyerKeywords = []string{
		"buy", "buying", "purchase", "looking for a home", "looking for a house",
		"pre-approved", "preapproved", "mortgage", "down payment", "first home",
		"house hunt", "move in",
	}
	sellerKeywords = []string{
		"sell", "selling", "my house", "my home", "list my", "listing",
		"equity", "what's it worth", "home value", "close", "closing",
	}
)

// Question-depth domain nouns: a user question only counts when it touches
// one of these.
var domainNouns = []string{
	"price", "bedroom", "bath", "neighborhood", "school", "financing",
	"closing", "inspection", "offer", "commission", "interest rate",
}

// Objection handling markers.
var (
	objectionMarkers = []string{
		"too low", "too high", "too expensive", "can't afford", "not worth",
		"overpriced", "lowball",
	}
	agreementMarkers = []string{
		"makes sense", "fair enough", "you're right", "good point", "agreed",
		"that works", "sounds good", "ok, ", "okay, ",
	}
)

// Call acceptance markers: explicit yes to a call or tour invitation.
var callAcceptanceMarkers = []string{
	"call me", "yes, call", "give me a call", "let's schedule", "let's talk",
	"book the tour", "works for me", "i'm available",
}
