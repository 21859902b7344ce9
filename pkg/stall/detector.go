// Package stall detects hesitation patterns in recent lead replies.
//
// Detection is table-driven: each stall kind owns an ordered list of
// keywords, and the tables are scanned in a fixed order so ties always
// resolve the same way. Pure function, no I/O.
package stall

import (
	"strings"

	"github.com/propertyline/leadflow/pkg/models"
)

// DefaultWindow is how many trailing user messages are scanned.
const DefaultWindow = 6

// Result is the detector outcome: the stall kind (StallNone when clean)
// and the substring that matched, kept for observability.
type Result struct {
	Kind    models.StallKind `json:"kind"`
	Matched string           `json:"matched,omitempty"`
}

// table pairs a stall kind with its keyword list. Order matters: the first
// matching kind wins.
type table struct {
	kind     models.StallKind
	keywords []string
}

var tables = []table{
	{models.StallThinking, []string{
		"need to think", "think about it", "let me think", "still thinking",
		"sleep on it", "mull it over",
	}},
	{models.StallPriceObjection, []string{
		"price is too", "too expensive", "can't afford", "out of my budget",
		"not worth that", "lower the price",
	}},
	{models.StallZestimateFixation, []string{
		"zestimate", "zillow says", "zillow estimate", "online says it's worth",
	}},
	{models.StallAgentConflict, []string{
		"already have an agent", "working with an agent", "my realtor",
		"signed with", "under contract with an agent",
	}},
	{models.StallBusy, []string{
		"really busy", "super busy", "no time right now", "swamped",
		"crazy week", "traveling",
	}},
	{models.StallMaybeLater, []string{
		"maybe later", "not right now", "down the road", "in a few months",
		"next year", "circle back",
	}},
}

// Detect scans the last DefaultWindow user messages for stall patterns.
func Detect(history []models.Message) Result {
	return DetectWindow(history, DefaultWindow)
}

// DetectWindow scans the last n user messages. The concatenated lowercased
// text is matched against each kind's keyword table in order.
func DetectWindow(history []models.Message, n int) Result {
	var user []string
	for _, m := range history {
		if m.Role == models.RoleUser {
			user = append(user, strings.ToLower(m.Content))
		}
	}
	if len(user) > n {
		user = user[len(user)-n:]
	}
	joined := strings.Join(user, " \n ")

	for _, t := range tables {
		for _, kw := range t.keywords {
			if strings.Contains(joined, kw) {
				return Result{Kind: t.kind, Matched: kw}
			}
		}
	}
	return Result{Kind: models.StallNone}
}
