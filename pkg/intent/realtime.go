package intent

import (
	"strings"

	"github.com/propertyline/leadflow/pkg/models"
)

// triggerMaxLen bounds the stored trigger excerpt of the incoming message.
const triggerMaxLen = 100

// Delta rule tables for the real-time updater. Driven by the new message
// alone plus up to two preceding user messages for context.
var (
	urgencyDeltaMarkers = []string{
		"asap", "immediately", "right away", "urgent", "this week",
		"must sell", "must move", "need to sell", "need to buy",
	}
	cashReadinessMarkers = []string{
		"cash", "pre-approved", "preapproved", "proof of funds",
		"approved for", "down payment ready",
	}
	strongCommitmentMarkers = []string{
		"definitely", "let's do it", "i'm ready", "we're ready", "sign",
		"where do i", "count me in",
	}
	weakCommitmentMarkers = []string{
		"maybe", "not sure", "might", "possibly", "we'll see", "thinking about",
	}
	priceSensitivityMarkers = []string{
		"too expensive", "can't afford", "price", "cheaper", "discount",
	}
	conditionFlexibilityMarkers = []string{
		"as-is", "as is", "willing to fix", "flexible on", "open to repairs",
	}
)

// Updater computes incremental per-message score deltas. Pure CPU,
// bounded work: it never looks past the new message and two turns of
// context, and makes no external calls.
type Updater struct {
	decoder *Decoder
}

// NewUpdater creates a real-time updater sharing the decoder's config.
func NewUpdater(decoder *Decoder) *Updater {
	return &Updater{decoder: decoder}
}

// Update computes the incremental score delta for a new inbound message.
//
// On the first message of a session it runs the full decoder (the session
// has no totals yet) and reports zero deltas. On subsequent messages it
// applies the rule table to the new message, with the last two user
// messages as context for the signal classification.
func (u *Updater) Update(snap models.SessionSnapshot, newMessage string) (*models.IncrementalUpdate, *models.IntentProfile, error) {
	upd := &models.IncrementalUpdate{
		Trigger:           truncate(newMessage, triggerMaxLen),
		RecommendedAction: models.ActionContinueNurture,
	}

	priorUser := 0
	for _, m := range snap.History {
		if m.Role == models.RoleUser {
			priorUser++
		}
	}
	if priorUser == 0 {
		history := append(append([]models.Message(nil), snap.History...), models.Message{
			Role:    models.RoleUser,
			Content: newMessage,
		})
		profile, err := u.decoder.Analyze(snap.LeadID, history)
		if err != nil {
			return nil, nil, err
		}
		upd.Confidence = 1.0
		upd.RecommendedAction = recommendFromClassification(profile.Classification)
		return upd, profile, nil
	}

	lowered := strings.ToLower(newMessage)
	markerCount := 0

	if n := countMatches(lowered, urgencyDeltaMarkers); n > 0 {
		upd.FRSDelta += float64(n) * 5
		markerCount += n
		upd.SignalsDetected = append(upd.SignalsDetected, models.SignalTimelineUrgency)
	}
	if n := countMatches(lowered, cashReadinessMarkers); n > 0 {
		upd.FRSDelta += float64(n) * 8
		markerCount += n
		upd.SignalsDetected = append(upd.SignalsDetected, models.SignalMotivationUp)
	}
	if n := countMatches(lowered, strongCommitmentMarkers); n > 0 {
		upd.PCSDelta += float64(n) * 10
		markerCount += n
		if !containsSignal(upd.SignalsDetected, models.SignalMotivationUp) {
			upd.SignalsDetected = append(upd.SignalsDetected, models.SignalMotivationUp)
		}
	}
	if n := countMatches(lowered, weakCommitmentMarkers); n > 0 {
		upd.PCSDelta -= float64(n) * 5
		markerCount += n
		upd.SignalsDetected = append(upd.SignalsDetected, models.SignalMotivationDown)
	}
	if containsAny(lowered, priceSensitivityMarkers) {
		upd.SignalsDetected = append(upd.SignalsDetected, models.SignalPriceSensitivity)
	}
	if containsAny(lowered, conditionFlexibilityMarkers) {
		upd.SignalsDetected = append(upd.SignalsDetected, models.SignalConditionFlexibility)
	}

	words := len(strings.Fields(newMessage))
	if words > 20 {
		upd.PCSDelta += 3
		upd.SignalsDetected = append(upd.SignalsDetected, models.SignalEngagementSpike)
	} else if words < 5 {
		upd.PCSDelta -= 2
		upd.SignalsDetected = append(upd.SignalsDetected, models.SignalDisengagementWarning)
	}

	upd.Confidence = minFloat(1.0, float64(markerCount)*0.25)

	frs, pcs := 0.0, 0.0
	if snap.LastScore != nil {
		frs = snap.LastScore.FRS.Total
		pcs = snap.LastScore.PCS.Total
	}
	newFRS := clamp(frs + upd.FRSDelta)
	newPCS := clamp(pcs + upd.PCSDelta)
	upd.RecommendedAction = recommend(u.decoder.classify(newFRS), newPCS, upd)

	return upd, nil, nil
}

// recommend picks the next action from the projected state and the
// signals detected on this message.
func recommend(c models.Classification, pcs float64, upd *models.IncrementalUpdate) models.RecommendedAction {
	disengaging := containsSignal(upd.SignalsDetected, models.SignalDisengagementWarning) ||
		containsSignal(upd.SignalsDetected, models.SignalMotivationDown)
	switch {
	case c == models.ClassificationHot && upd.Confidence >= 0.5:
		return models.ActionImmediateCall
	case c == models.ClassificationHot:
		return models.ActionScheduleShowing
	case disengaging && c != models.ClassificationCold:
		return models.ActionReEngagementRequired
	case disengaging:
		return models.ActionSoftFollowup
	case c == models.ClassificationWarm && upd.FRSDelta > 0:
		return models.ActionAccelerateSequence
	default:
		return models.ActionContinueNurture
	}
}

func recommendFromClassification(c models.Classification) models.RecommendedAction {
	switch c {
	case models.ClassificationHot:
		return models.ActionImmediateCall
	case models.ClassificationWarm:
		return models.ActionAccelerateSequence
	case models.ClassificationLukewarm:
		return models.ActionContinueNurture
	default:
		return models.ActionSoftFollowup
	}
}

func countMatches(s string, markers []string) int {
	n := 0
	for _, m := range markers {
		if strings.Contains(s, m) {
			n++
		}
	}
	return n
}

func containsSignal(signals []models.Signal, s models.Signal) bool {
	for _, x := range signals {
		if x == s {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
