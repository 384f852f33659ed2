package methodology

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/gitgovernance/core/pkg/gitgoverr"
)

//go:embed schema/methodology.schema.json
var schemaJSON []byte

//go:embed bundled/kanban_workflow.json
var kanbanJSON []byte

//go:embed bundled/scrum_workflow.json
var scrumJSON []byte

// supportedVersions is the semver range this core's transition-rule engine
// understands; a methodology document outside it fails to load rather than
// silently misbehaving on an unrecognized document shape.
const supportedVersions = ">= 1.0.0, < 2.0.0"

func compiledSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("methodology.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("methodology: add schema resource: %w", err)
	}
	return compiler.Compile("methodology.schema.json")
}

// LoadDocument validates raw against the bundled JSON schema, unmarshals
// it, and checks the document's version against supportedVersions.
func LoadDocument(raw []byte) (Document, error) {
	const op = "methodology.LoadDocument"

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return Document{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "parse json", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return Document{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "compile schema", err)
	}
	if err := schema.Validate(generic); err != nil {
		return Document{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "schema validation", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "decode document", err)
	}

	v, err := semver.NewVersion(doc.Version)
	if err != nil {
		return Document{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "parse version", err)
	}
	constraint, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return Document{}, gitgoverr.Wrap(gitgoverr.KindInvalidData, op, "parse constraint", err)
	}
	if !constraint.Check(v) {
		return Document{}, gitgoverr.New(gitgoverr.KindInvalidData, op,
			fmt.Sprintf("methodology %q version %s is not compatible with %s", doc.Name, doc.Version, supportedVersions))
	}

	return doc, nil
}

// LoadFile reads and loads a user-supplied methodology document from disk.
func LoadFile(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, gitgoverr.Wrap(gitgoverr.KindIOError, "methodology.LoadFile", "read", err)
	}
	return LoadDocument(raw)
}

// LoadKanban returns the bundled kanban methodology document.
func LoadKanban() (Document, error) { return LoadDocument(kanbanJSON) }

// LoadScrum returns the bundled scrum methodology document.
func LoadScrum() (Document, error) { return LoadDocument(scrumJSON) }
