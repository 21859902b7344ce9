// Package session holds the in-memory conversation state for every active
// lead. Sessions are keyed by lead ID, mutated only through the Store, and
// evicted after a configurable idle TTL.
package session

import (
	"time"

	"github.com/propertyline/leadflow/pkg/models"
)

// Ring bounds. Older entries fall off the front.
const (
	scoreHistoryMax = 20
	transitionsMax  = 10
)

// Session is the mutable per-lead state. All access goes through
// Store.Update, which holds the session lock; callers outside this package
// only ever see SessionSnapshot copies.
type Session struct {
	LeadID               string
	LeadName             string
	LeadKind             models.LeadKind
	Phone                string
	Email                string
	CurrentBot           models.BotKind
	History              []models.Message
	Workflow             models.WorkflowState
	LastScore            *models.IntentProfile
	ScoreHistory         []models.ScoreSnapshot
	EmotionalTransitions []models.EmotionalTransition
	StallCount           int
	OptedOut             bool
	LastInboundAt        time.Time
	LastOutboundAt       time.Time
	CreatedAt            time.Time

	lastActivity time.Time
}

// AppendMessage appends to the conversation history. History is append-only;
// nothing in this package removes or rewrites entries.
func (s *Session) AppendMessage(role models.MessageRole, content string, at time.Time) {
	s.History = append(s.History, models.Message{
		Role:      role,
		Content:   content,
		Timestamp: at,
	})
	switch role {
	case models.RoleUser:
		s.LastInboundAt = at
	case models.RoleAssistant:
		s.LastOutboundAt = at
	}
}

// RecordScore stores a fresh intent profile, pushes the bounded score
// history, and records an emotional transition when the classification
// moved.
func (s *Session) RecordScore(profile *models.IntentProfile, at time.Time) {
	if profile == nil {
		return
	}
	if s.LastScore != nil && s.LastScore.Classification != profile.Classification {
		s.EmotionalTransitions = append(s.EmotionalTransitions, models.EmotionalTransition{
			From: s.LastScore.Classification,
			To:   profile.Classification,
			At:   at,
		})
		if len(s.EmotionalTransitions) > transitionsMax {
			s.EmotionalTransitions = s.EmotionalTransitions[len(s.EmotionalTransitions)-transitionsMax:]
		}
	}
	s.LastScore = profile
	s.ScoreHistory = append(s.ScoreHistory, models.ScoreSnapshot{
		FRS:            profile.FRS.Total,
		PCS:            profile.PCS.Total,
		Classification: profile.Classification,
		At:             at,
	})
	if len(s.ScoreHistory) > scoreHistoryMax {
		s.ScoreHistory = s.ScoreHistory[len(s.ScoreHistory)-scoreHistoryMax:]
	}
}

// snapshot returns a deep read-only copy. Caller holds the session lock.
func (s *Session) snapshot() *models.SessionSnapshot {
	snap := &models.SessionSnapshot{
		LeadID:         s.LeadID,
		LeadName:       s.LeadName,
		LeadKind:       s.LeadKind,
		Phone:          s.Phone,
		Email:          s.Email,
		CurrentBot:     s.CurrentBot,
		History:        make([]models.Message, len(s.History)),
		Workflow:       cloneWorkflow(s.Workflow),
		StallCount:     s.StallCount,
		OptedOut:       s.OptedOut,
		LastInboundAt:  s.LastInboundAt,
		LastOutboundAt: s.LastOutboundAt,
		CreatedAt:      s.CreatedAt,
	}
	copy(snap.History, s.History)
	if s.LastScore != nil {
		sc := *s.LastScore
		sc.DetectedMarkers = append([]string(nil), s.LastScore.DetectedMarkers...)
		snap.LastScore = &sc
	}
	if len(s.ScoreHistory) > 0 {
		snap.ScoreHistory = append([]models.ScoreSnapshot(nil), s.ScoreHistory...)
	}
	if len(s.EmotionalTransitions) > 0 {
		snap.EmotionalTransitions = append([]models.EmotionalTransition(nil), s.EmotionalTransitions...)
	}
	return snap
}

func cloneWorkflow(w models.WorkflowState) models.WorkflowState {
	out := models.WorkflowState{}
	if w.Seller != nil {
		v := *w.Seller
		out.Seller = &v
	}
	if w.Buyer != nil {
		v := *w.Buyer
		out.Buyer = &v
	}
	if w.Nurture != nil {
		v := *w.Nurture
		out.Nurture = &v
	}
	if w.Prospect != nil {
		v := *w.Prospect
		out.Prospect = &v
	}
	return out
}
