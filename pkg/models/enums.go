package models

// LeadKind classifies what a lead is trying to do.
type LeadKind string

const (
	LeadKindBuyer   LeadKind = "buyer"
	LeadKindSeller  LeadKind = "seller"
	LeadKindUnknown LeadKind = "unknown"
)

// IsValid checks if the lead kind is valid.
func (k LeadKind) IsValid() bool {
	return k == LeadKindBuyer || k == LeadKindSeller || k == LeadKindUnknown
}

// BotKind identifies one of the specialized conversational bots.
type BotKind string

const (
	BotSellerQualify       BotKind = "seller-qualify"
	BotBuyerQualify        BotKind = "buyer-qualify"
	BotNurtureSequence     BotKind = "nurture-sequence"
	BotOutboundProspecting BotKind = "outbound-prospecting"
)

// IsValid checks if the bot kind is valid.
func (k BotKind) IsValid() bool {
	switch k {
	case BotSellerQualify, BotBuyerQualify, BotNurtureSequence, BotOutboundProspecting:
		return true
	default:
		return false
	}
}

// Classification is the lead temperature bucket derived from FRS.
type Classification string

const (
	ClassificationHot      Classification = "hot"
	ClassificationWarm     Classification = "warm"
	ClassificationLukewarm Classification = "lukewarm"
	ClassificationCold     Classification = "cold"
)

// Signal is a high-confidence state-transition signal detected by the
// real-time intent updater. The set is closed.
type Signal string

const (
	SignalMotivationUp         Signal = "motivation-up"
	SignalMotivationDown       Signal = "motivation-down"
	SignalTimelineUrgency      Signal = "timeline-urgency"
	SignalPriceSensitivity     Signal = "price-sensitivity"
	SignalConditionFlexibility Signal = "condition-flexibility"
	SignalEngagementSpike      Signal = "engagement-spike"
	SignalDisengagementWarning Signal = "disengagement-warning"
)

// RecommendedAction is the updater's suggestion for what to do next.
type RecommendedAction string

const (
	ActionImmediateCall        RecommendedAction = "immediate-call"
	ActionAccelerateSequence   RecommendedAction = "accelerate-sequence"
	ActionReEngagementRequired RecommendedAction = "re-engagement-required"
	ActionScheduleShowing      RecommendedAction = "schedule-showing"
	ActionSoftFollowup         RecommendedAction = "soft-followup"
	ActionContinueNurture      RecommendedAction = "continue-nurture"
)

// StallKind identifies a detected hesitation pattern in recent replies.
type StallKind string

const (
	StallNone              StallKind = "none"
	StallThinking          StallKind = "thinking"
	StallPriceObjection    StallKind = "price-objection"
	StallZestimateFixation StallKind = "zestimate-fixation"
	StallAgentConflict     StallKind = "agent-conflict"
	StallBusy              StallKind = "busy"
	StallMaybeLater        StallKind = "maybe-later"
)

// OptOutReason records why a phone number was opted out of SMS.
type OptOutReason string

const (
	OptOutUserRequest         OptOutReason = "user-request"
	OptOutStopKeyword         OptOutReason = "stop-keyword"
	OptOutAdminBlock          OptOutReason = "admin-block"
	OptOutFrequencyAbuse      OptOutReason = "frequency-abuse"
	OptOutComplianceViolation OptOutReason = "compliance-violation"
)

// IsValid checks if the opt-out reason is valid.
func (r OptOutReason) IsValid() bool {
	switch r {
	case OptOutUserRequest, OptOutStopKeyword, OptOutAdminBlock,
		OptOutFrequencyAbuse, OptOutComplianceViolation:
		return true
	default:
		return false
	}
}

// Tone shapes the voice of a drafted response.
type Tone string

const (
	ToneWarm            Tone = "warm"
	ToneDirect          Tone = "direct"
	ToneConfrontational Tone = "confrontational"
	ToneTakeAway        Tone = "take-away"
)
