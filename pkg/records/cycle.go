package records

import (
	"fmt"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/crypto"
	"github.com/gitgovernance/core/pkg/gitgoverr"
)

func BuildCyclePayload(partial contracts.CyclePayload, nowEpochSeconds int64) (contracts.CyclePayload, error) {
	const op = "records.BuildCyclePayload"
	if partial.Title == "" {
		return contracts.CyclePayload{}, gitgoverr.New(gitgoverr.KindInvalidData, op, "title is required")
	}
	if partial.ID == "" {
		partial.ID = GenerateCycleID(partial.Title, nowEpochSeconds)
	}
	if partial.Status == "" {
		partial.Status = contracts.CycleStatusPlanning
	}
	return ValidateCyclePayload(partial)
}

func ValidateCyclePayload(p contracts.CyclePayload) (contracts.CyclePayload, error) {
	const op = "records.ValidateCyclePayload"
	if p.Title == "" {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, "title is required")
	}
	if _, err := IDTimestamp(p.ID); err != nil {
		return p, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "invalid cycle id", err)
	}
	switch p.Status {
	case contracts.CycleStatusPlanning, contracts.CycleStatusActive, contracts.CycleStatusCompleted, contracts.CycleStatusArchived:
	default:
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, fmt.Sprintf("unknown cycle status %q", p.Status))
	}
	return p, nil
}

func LoadCycleRecord(rec contracts.CycleRecord) (contracts.CycleRecord, error) {
	const op = "records.LoadCycleRecord"
	if rec.Header.Type != contracts.KindCycle {
		return rec, gitgoverr.New(gitgoverr.KindInvalidData, op, "header.type is not cycle")
	}
	if _, err := ValidateCyclePayload(rec.Payload); err != nil {
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
