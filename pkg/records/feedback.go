package records

import (
	"fmt"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/crypto"
	"github.com/gitgovernance/core/pkg/gitgoverr"
)

func BuildFeedbackPayload(partial contracts.FeedbackPayload, title string, nowEpochSeconds int64) (contracts.FeedbackPayload, error) {
	const op = "records.BuildFeedbackPayload"
	if partial.EntityID == "" {
		return contracts.FeedbackPayload{}, gitgoverr.New(gitgoverr.KindInvalidData, op, "entityId is required")
	}
	if partial.ID == "" {
		partial.ID = GenerateFeedbackID(title, nowEpochSeconds)
	}
	if partial.Status == "" {
		partial.Status = contracts.FeedbackStatusOpen
	}
	return ValidateFeedbackPayload(partial)
}

func ValidateFeedbackPayload(p contracts.FeedbackPayload) (contracts.FeedbackPayload, error) {
	const op = "records.ValidateFeedbackPayload"
	if p.EntityID == "" {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, "entityId is required")
	}
	if _, err := IDTimestamp(p.ID); err != nil {
		return p, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "invalid feedback id", err)
	}
	switch p.EntityType {
	case contracts.FeedbackEntityTask, contracts.FeedbackEntityExecution, contracts.FeedbackEntityChangelog, contracts.FeedbackEntityFeedback:
	default:
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, fmt.Sprintf("unknown entityType %q", p.EntityType))
	}
	switch p.Type {
	case contracts.FeedbackTypeBlocking, contracts.FeedbackTypeSuggestion, contracts.FeedbackTypeQuestion,
		contracts.FeedbackTypeAssignment, contracts.FeedbackTypeApproval, contracts.FeedbackTypeRejection, contracts.FeedbackTypeClarification:
	default:
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, fmt.Sprintf("unknown feedback type %q", p.Type))
	}
	if p.Status != contracts.FeedbackStatusOpen && p.Status != contracts.FeedbackStatusResolved {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, fmt.Sprintf("unknown feedback status %q", p.Status))
	}
	return p, nil
}

func LoadFeedbackRecord(rec contracts.FeedbackRecord) (contracts.FeedbackRecord, error) {
	const op = "records.LoadFeedbackRecord"
	if rec.Header.Type != contracts.KindFeedback {
		return rec, gitgoverr.New(gitgoverr.KindInvalidData, op, "header.type is not feedback")
	}
	if _, err := ValidateFeedbackPayload(rec.Payload); err != nil {
		return rec, err
	}
	sum, err := crypto.Checksum(rec.Payload)
	if err != nil {
		return rec, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "checksum", err)
	}
	if sum != rec.Header.PayloadChecksum {
		return rec, gitgoverr.New(gitgoverr.KindChecksumMismatch, op, "payload checksum does not match header")
	}
	return rec, nil
}
