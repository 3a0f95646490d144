// Package report formats one indexing run's recoverable failures --
// unparseable files and relationships the resolver could not bind to a
// symbol -- as a SARIF 2.1.0 log for CI surfacing.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	sarif "github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/shivasurya/code-pathfinder/codeindex/internal/indexer"
)

const (
	ruleParseFailure        = "parse-failure"
	ruleRelationshipDropped = "relationship-dropped"
)

// Formatter writes a run's Stats and recoverable Errors as SARIF.
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a formatter writing to stdout.
func NewFormatter() *Formatter {
	return &Formatter{writer: os.Stdout}
}

// NewFormatterWithWriter creates a formatter with a custom writer, for tests.
func NewFormatterWithWriter(w io.Writer) *Formatter {
	return &Formatter{writer: w}
}

// Format emits one SARIF log for the errors a run accumulated. stats is
// consulted only for the relationships-dropped count: it has no file/line
// to attach to a location, so it is reported as a single run-level result.
func (f *Formatter) Format(errs []*indexer.Error, stats indexer.Stats) error {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}

	run := sarif.NewRunWithInformationURI("codeindex", "https://github.com/shivasurya/code-pathfinder")
	run.AddRule(ruleParseFailure).
		WithDescription("A file could not be parsed or stored during indexing").
		WithName("ParseFailure").
		WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel("warning"))
	run.AddRule(ruleRelationshipDropped).
		WithDescription("A cross-file relationship could not be resolved to a known symbol").
		WithName("RelationshipDropped").
		WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel("note"))

	for _, e := range errs {
		f.addError(run, e)
	}
	if stats.RelationshipsDropped > 0 {
		f.addDroppedSummary(run, stats.RelationshipsDropped)
	}

	doc.AddRun(run)

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

func (f *Formatter) addError(run *sarif.Run, e *indexer.Error) {
	if e == nil {
		return
	}
	result := run.CreateResultForRule(ruleParseFailure).
		WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s: %v", e.Kind, e.Err)))

	if e.Path != "" {
		location := sarif.NewLocation().
			WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(e.Path)),
			)
		result.AddLocation(location)
	}
}

// addDroppedSummary records the aggregate dropped-relationship count as a
// single notification, since individual dropped edges are not retained
// once the resolve phase discards them.
func (f *Formatter) addDroppedSummary(run *sarif.Run, count int) {
	run.CreateResultForRule(ruleRelationshipDropped).
		WithMessage(sarif.NewTextMessage(fmt.Sprintf("%d relationship(s) dropped during resolve", count)))
}
