package records

import (
	"fmt"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/crypto"
	"github.com/gitgovernance/core/pkg/gitgoverr"
)

func isValidTaskStatus(s contracts.TaskStatus) bool {
	for _, v := range contracts.AllTaskStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// BuildTaskPayload fills defaults on a partial TaskPayload: id is minted
// from title+now if absent, status defaults to draft (spec §4.2/§4.8).
func BuildTaskPayload(partial contracts.TaskPayload, nowEpochSeconds int64) (contracts.TaskPayload, error) {
	const op = "records.BuildTaskPayload"
	if partial.Title == "" {
		return contracts.TaskPayload{}, gitgoverr.New(gitgoverr.KindInvalidData, op, "title is required")
	}
	if partial.ID == "" {
		partial.ID = GenerateTaskID(partial.Title, nowEpochSeconds)
	}
	if partial.Status == "" {
		partial.Status = contracts.TaskStatusDraft
	}
	return ValidateTaskPayload(partial)
}

func ValidateTaskPayload(p contracts.TaskPayload) (contracts.TaskPayload, error) {
	const op = "records.ValidateTaskPayload"
	if p.Title == "" {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, "title is required")
	}
	if _, err := IDTimestamp(p.ID); err != nil {
		return p, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "invalid task id", err)
	}
	if !isValidTaskStatus(p.Status) {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, fmt.Sprintf("unknown task status %q", p.Status))
	}
	return p, nil
}

func LoadTaskRecord(rec contracts.TaskRecord) (contracts.TaskRecord, error) {
	const op = "records.LoadTaskRecord"
	if rec.Header.Type != contracts.KindTask {
		return rec, gitgoverr.New(gitgoverr.KindInvalidData, op, "header.type is not task")
	}
	if _, err := ValidateTaskPayload(rec.Payload); err != nil {
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
