package records

import (
	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/crypto"
	"github.com/gitgovernance/core/pkg/gitgoverr"
)

func BuildExecutionPayload(partial contracts.ExecutionPayload, title string, nowEpochSeconds int64) (contracts.ExecutionPayload, error) {
	const op = "records.BuildExecutionPayload"
	if partial.TaskID == "" || partial.ActorID == "" {
		return contracts.ExecutionPayload{}, gitgoverr.New(gitgoverr.KindInvalidData, op, "taskId and actorId are required")
	}
	if partial.ID == "" {
		partial.ID = GenerateExecutionID(title, nowEpochSeconds)
	}
	return ValidateExecutionPayload(partial)
}

func ValidateExecutionPayload(p contracts.ExecutionPayload) (contracts.ExecutionPayload, error) {
	const op = "records.ValidateExecutionPayload"
	if p.TaskID == "" || p.ActorID == "" {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, "taskId and actorId are required")
	}
	if _, err := IDTimestamp(p.ID); err != nil {
		return p, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "invalid execution id", err)
	}
	return p, nil
}

func LoadExecutionRecord(rec contracts.ExecutionRecord) (contracts.ExecutionRecord, error) {
	const op = "records.LoadExecutionRecord"
	if rec.Header.Type != contracts.KindExecution {
		return rec, gitgoverr.New(gitgoverr.KindInvalidData, op, "header.type is not execution")
	}
	if _, err := ValidateExecutionPayload(rec.Payload); err != nil {
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

func BuildChangelogPayload(partial contracts.ChangelogPayload, nowEpochSeconds int64) (contracts.ChangelogPayload, error) {
	const op = "records.BuildChangelogPayload"
	if partial.Title == "" {
		return contracts.ChangelogPayload{}, gitgoverr.New(gitgoverr.KindInvalidData, op, "title is required")
	}
	if partial.ID == "" {
		partial.ID = GenerateChangelogID(partial.Title, nowEpochSeconds)
	}
	return ValidateChangelogPayload(partial)
}

func ValidateChangelogPayload(p contracts.ChangelogPayload) (contracts.ChangelogPayload, error) {
	const op = "records.ValidateChangelogPayload"
	if p.Title == "" {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, "title is required")
	}
	if _, err := IDTimestamp(p.ID); err != nil {
		return p, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "invalid changelog id", err)
	}
	return p, nil
}

func LoadChangelogRecord(rec contracts.ChangelogRecord) (contracts.ChangelogRecord, error) {
	const op = "records.LoadChangelogRecord"
	if rec.Header.Type != contracts.KindChangelog {
		return rec, gitgoverr.New(gitgoverr.KindInvalidData, op, "header.type is not changelog")
	}
	if _, err := ValidateChangelogPayload(rec.Payload); err != nil {
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
