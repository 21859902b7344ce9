// Package intent computes lead intent scores from conversation history.
//
// The decoder is a pure function of its inputs: no I/O, no clock reads
// beyond message timestamps, deterministic output for identical history.
package intent

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/propertyline/leadflow/pkg/config"
	"github.com/propertyline/leadflow/pkg/models"
)

// ErrMalformedHistory indicates a history message without role or content.
// This is a caller bug, never scored around.
var ErrMalformedHistory = errors.New("malformed conversation history")

// Neutral sub-score used when a dimension has no evidence either way.
const neutralScore = 50

// Decoder turns a conversation history into a scored intent profile.
type Decoder struct {
	weights    config.FRSWeights
	thresholds config.ClassificationThresholds
}

// NewDecoder creates a decoder with the given scoring configuration.
func NewDecoder(cfg *config.ScoringConfig) *Decoder {
	return &Decoder{weights: cfg.FRSWeights, thresholds: cfg.Thresholds}
}

// Analyze scores the full conversation history for a lead.
// An empty history yields an all-zero profile classified Cold.
func (d *Decoder) Analyze(leadID string, history []models.Message) (*models.IntentProfile, error) {
	for i, m := range history {
		if m.Role == "" || m.Content == "" {
			return nil, fmt.Errorf("%w: message %d missing role or content", ErrMalformedHistory, i)
		}
	}

	profile := &models.IntentProfile{
		LeadID:         leadID,
		Classification: models.ClassificationCold,
		NextBestAction: string(models.ActionSoftFollowup),
		AnalyzedAt:     time.Now(),
	}
	if len(history) == 0 {
		return profile, nil
	}

	user := userMessages(history)
	lowered := make([]string, len(user))
	for i, m := range user {
		lowered[i] = strings.ToLower(m.Content)
	}
	joined := strings.Join(lowered, " \n ")

	var markers []string

	// Sub-scores
	motivation, motMarkers := scoreMotivation(lowered)
	markers = append(markers, motMarkers...)

	timeline := scoreTimeline(joined)

	buyerCount := countOccurrences(joined, buyerKeywords)
	sellerCount := countOccurrences(joined, sellerKeywords)
	profile.BuyerConfidence = float64(buyerCount) / float64(buyerCount+3)
	profile.SellerConfidence = float64(sellerCount) / float64(sellerCount+3)

	sellerLike := sellerCount > 0 && sellerCount >= buyerCount
	condition, condMarkers := scoreCondition(joined, sellerLike)
	markers = append(markers, condMarkers...)

	price, priceMarkers := scorePrice(joined)
	markers = append(markers, priceMarkers...)

	profile.FRS = models.FRSBreakdown{
		Motivation: motivation,
		Timeline:   timeline,
		Condition:  condition,
		Price:      price,
	}
	profile.FRS.Total = clamp(d.weights.Motivation*motivation +
		d.weights.Timeline*timeline +
		d.weights.Condition*condition +
		d.weights.Price*price)

	profile.PCS = scorePCS(user, lowered)

	profile.Classification = d.classify(profile.FRS.Total)
	profile.NextBestAction = nextBestAction(profile.Classification)
	profile.DetectedMarkers = dedupe(markers)

	return profile, nil
}

// classify maps an FRS total into a temperature bucket. Bounds inclusive.
func (d *Decoder) classify(frs float64) models.Classification {
	switch {
	case frs >= d.thresholds.Hot:
		return models.ClassificationHot
	case frs >= d.thresholds.Warm:
		return models.ClassificationWarm
	case frs >= d.thresholds.Lukewarm:
		return models.ClassificationLukewarm
	default:
		return models.ClassificationCold
	}
}

func nextBestAction(c models.Classification) string {
	switch c {
	case models.ClassificationHot:
		return string(models.ActionImmediateCall)
	case models.ClassificationWarm:
		return string(models.ActionScheduleShowing)
	case models.ClassificationLukewarm:
		return string(models.ActionContinueNurture)
	default:
		return string(models.ActionSoftFollowup)
	}
}

// --- FRS sub-scores ---

func scoreMotivation(lowered []string) (float64, []string) {
	var total float64
	var detected []string
	joined := strings.Join(lowered, " \n ")
	for _, set := range motivationSets {
		for _, marker := range set.markers {
			if strings.Contains(joined, marker) {
				total += set.weight
				detected = append(detected, markerName(marker))
			}
		}
	}
	return clamp(total), detected
}

// markerName normalizes a matched marker into its recorded form
// (e.g. "relocat" → "relocating").
func markerName(marker string) string {
	switch marker {
	case "relocat":
		return "relocating"
	case "foreclos":
		return "foreclosure"
	case "bankrupt":
		return "bankruptcy"
	default:
		return strings.ReplaceAll(marker, " ", "-")
	}
}

var durationRe = regexp.MustCompile(`(\d+)\s*(day|week|month|year)s?`)

// scoreTimeline maps the shortest explicitly mentioned duration to points.
// Unspecified timelines score the floor of 20.
func scoreTimeline(joined string) float64 {
	minDays := -1
	for _, m := range durationRe.FindAllStringSubmatch(joined, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		days := n
		switch m[2] {
		case "week":
			days = n * 7
		case "month":
			days = n * 30
		case "year":
			days = n * 365
		}
		if minDays < 0 || days < minDays {
			minDays = days
		}
	}
	switch {
	case minDays < 0:
		return 20
	case minDays <= 30:
		return 100
	case minDays <= 90:
		return 80
	case minDays <= 180:
		return 60
	case minDays <= 365:
		return 40
	default:
		return 20
	}
}

// scoreCondition rewards acknowledgement of specific defects and realistic
// language; "perfect condition" claims without any named defect are
// penalized. Buyer conversations score a neutral 50.
func scoreCondition(joined string, sellerLike bool) (float64, []string) {
	if !sellerLike {
		return neutralScore, nil
	}
	score := float64(neutralScore)
	var detected []string
	defects := 0
	for _, m := range defectMarkers {
		if strings.Contains(joined, m) {
			defects++
			detected = append(detected, markerName(m))
		}
	}
	score += float64(min(defects, 3)) * 15
	for _, m := range realisticConditionMarkers {
		if strings.Contains(joined, m) {
			score += 20
			break
		}
	}
	if defects == 0 {
		for _, m := range perfectConditionMarkers {
			if strings.Contains(joined, m) {
				score -= 20
				detected = append(detected, markerName(m))
				break
			}
		}
	}
	return clamp(score), detected
}

var budgetRe = regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d+)?\s?[km]?|\b\d{3,}k\b`)

// scorePrice rewards explicit budget figures and comparable-sale references;
// fixation on third-party automated valuations is penalized.
func scorePrice(joined string) (float64, []string) {
	score := float64(neutralScore)
	var detected []string
	if budgetRe.MatchString(joined) {
		score += 25
		detected = append(detected, "budget-stated")
	}
	for _, m := range compsMarkers {
		if strings.Contains(joined, m) {
			score += 15
			detected = append(detected, markerName(m))
			break
		}
	}
	zestimateMentioned := false
	for _, m := range zestimateMarkers {
		if strings.Contains(joined, m) {
			zestimateMentioned = true
			break
		}
	}
	if zestimateMentioned {
		score -= 25
		detected = append(detected, "zestimate")
	}
	return clamp(score), detected
}

// --- PCS ---

func scorePCS(user []models.Message, lowered []string) models.PCSBreakdown {
	pcs := models.PCSBreakdown{
		ResponseVelocity:  scoreVelocity(user),
		MessageLength:     scoreMessageLength(user),
		QuestionDepth:     scoreQuestionDepth(lowered),
		ObjectionHandling: scoreObjections(lowered),
		CallAcceptance:    scoreCallAcceptance(lowered),
	}
	pcs.Total = clamp((pcs.ResponseVelocity + pcs.MessageLength + pcs.QuestionDepth +
		pcs.ObjectionHandling + pcs.CallAcceptance) / 5)
	return pcs
}

// scoreVelocity buckets the median gap between adjacent user messages.
// A single-message conversation has no gaps and scores neutral.
func scoreVelocity(user []models.Message) float64 {
	var gaps []float64
	for i := 1; i < len(user); i++ {
		if user[i].Timestamp.IsZero() || user[i-1].Timestamp.IsZero() {
			continue
		}
		gaps = append(gaps, user[i].Timestamp.Sub(user[i-1].Timestamp).Seconds())
	}
	if len(gaps) == 0 {
		return neutralScore
	}
	med := median(gaps)
	switch {
	case med <= 2*60:
		return 100
	case med <= 10*60:
		return 80
	case med <= 60*60:
		return 60
	case med <= 12*60*60:
		return 40
	case med <= 24*60*60:
		return 20
	default:
		return 10
	}
}

func scoreMessageLength(user []models.Message) float64 {
	counts := make([]float64, len(user))
	for i, m := range user {
		counts[i] = float64(len(strings.Fields(m.Content)))
	}
	if len(counts) == 0 {
		return 0
	}
	med := median(counts)
	switch {
	case med >= 20:
		return 100
	case med >= 10:
		return 70
	case med >= 5:
		return 50
	default:
		return 20
	}
}

func scoreQuestionDepth(lowered []string) float64 {
	if len(lowered) == 0 {
		return 0
	}
	deep := 0
	for _, msg := range lowered {
		if !strings.Contains(msg, "?") {
			continue
		}
		for _, noun := range domainNouns {
			if strings.Contains(msg, noun) {
				deep++
				break
			}
		}
	}
	return clamp(float64(deep) / float64(len(lowered)) * 100)
}

// scoreObjections starts neutral and moves with the balance of objections
// raised versus overcome. An objection counts as overcome when an agreement
// marker appears within the next three user turns.
func scoreObjections(lowered []string) float64 {
	raised, overcome := 0, 0
	for i, msg := range lowered {
		if !containsAny(msg, objectionMarkers) {
			continue
		}
		raised++
		for j := i + 1; j < len(lowered) && j <= i+3; j++ {
			if containsAny(lowered[j], agreementMarkers) {
				overcome++
				break
			}
		}
	}
	return clamp(neutralScore + float64(overcome)*15 - float64(raised-overcome)*15)
}

func scoreCallAcceptance(lowered []string) float64 {
	for _, msg := range lowered {
		if containsAny(msg, callAcceptanceMarkers) {
			return 100
		}
	}
	return 0
}

// --- helpers ---

func userMessages(history []models.Message) []models.Message {
	out := make([]models.Message, 0, len(history))
	for _, m := range history {
		if m.Role == models.RoleUser {
			out = append(out, m)
		}
	}
	return out
}

func countOccurrences(joined string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		n += strings.Count(joined, kw)
	}
	return n
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func median(vals []float64) float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
