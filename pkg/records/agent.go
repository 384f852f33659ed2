package records

import (
	"fmt"

	"github.com/gitgovernance/core/pkg/contracts"
	"github.com/gitgovernance/core/pkg/crypto"
	"github.com/gitgovernance/core/pkg/gitgoverr"
)

// BuildAgentPayload fills defaults on a partial AgentPayload. id and engine
// are required (spec §4.5); status defaults to active.
func BuildAgentPayload(partial contracts.AgentPayload) (contracts.AgentPayload, error) {
	const op = "records.BuildAgentPayload"
	if partial.ID == "" {
		return contracts.AgentPayload{}, gitgoverr.New(gitgoverr.KindInvalidData, op, "id is required")
	}
	if partial.Engine.Type == "" {
		return contracts.AgentPayload{}, gitgoverr.New(gitgoverr.KindInvalidData, op, "engine is required")
	}
	if partial.Status == "" {
		partial.Status = contracts.AgentStatusActive
	}
	return ValidateAgentPayload(partial)
}

func ValidateAgentPayload(p contracts.AgentPayload) (contracts.AgentPayload, error) {
	const op = "records.ValidateAgentPayload"
	if p.ID == "" {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, "id is required")
	}
	if p.Engine.Type != contracts.EngineTypeLocal && p.Engine.Type != contracts.EngineTypeAPI {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, fmt.Sprintf("unknown engine type %q", p.Engine.Type))
	}
	if p.Engine.Type == contracts.EngineTypeLocal && (p.Engine.Entrypoint == "" || p.Engine.Function == "") {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, "local engine requires entrypoint and function")
	}
	if p.Engine.Type == contracts.EngineTypeAPI && p.Engine.URL == "" {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, "api engine requires url")
	}
	if p.Status != contracts.AgentStatusActive && p.Status != contracts.AgentStatusArchived {
		return p, gitgoverr.New(gitgoverr.KindInvalidData, op, fmt.Sprintf("unknown agent status %q", p.Status))
	}
	return p, nil
}

func LoadAgentRecord(rec contracts.AgentRecord) (contracts.AgentRecord, error) {
	const op = "records.LoadAgentRecord"
	if rec.Header.Type != contracts.KindAgent {
		return rec, gitgoverr.New(gitgoverr.KindInvalidData, op, "header.type is not agent")
	}
	if _, err := ValidateAgentPayload(rec.Payload); err != nil {
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
