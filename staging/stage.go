// Package staging computes the deterministic, collision-free staged file map
// for a pipeline run and materializes it into a concrete working directory.
//
// A staged file map binds target paths inside the engine working tree to
// sources (files, directories or in-memory text). Keys are unique across the
// standard engine assets and all merged datasources; the only exceptions are
// the designated accumulator targets, whose content is the concatenation of
// every datasource's script text in supply order.
package staging

import "path"

// Stage names one phase of the pipeline. Each stage owns a folder of master
// scripts under scripts/ in the assets tree.
type Stage string

const (
	StageShared      Stage = "shared"
	StageConversion  Stage = "data-conversion"
	StageEnhancement Stage = "data-enhancement"
	StageValidation  Stage = "data-validation"
	StageReasoning   Stage = "reasoning"
)

// ScriptsDir returns the staged path of the stage's script folder.
func (s Stage) ScriptsDir() string {
	return path.Join("scripts", string(s))
}

// LoadScriptTarget returns the staged path of the stage's load-instruction
// file: the conversion accumulator, or the synthesized import file for
// stages resuming from existing artifacts.
func (s Stage) LoadScriptTarget() string {
	return path.Join(s.ScriptsDir(), "load_data.rdfox")
}

// Staged paths fixed by the assets convention.
const (
	// OntologyTarget is the staged ontology definition.
	OntologyTarget = "data/probs.fss"
	// AdditionalInfoTarget is the staged auxiliary-facts file.
	AdditionalInfoTarget = "data/additional_info.ttl"

	// RulesAccumulator collects every datasource's mapping rules.
	RulesAccumulator = "scripts/data-conversion/map.dlog"

	// ConvertedArtifact is the artifact produced by the conversion stage.
	ConvertedArtifact = "data/probs_original_data.nt.gz"
	// EnhancedArtifact is the artifact produced by the enhancement stage.
	EnhancedArtifact = "data/probs_enhanced_data.nt.gz"

	// dataPlaceholder keeps the data directory present even when every
	// datasource stages into its own sub-folder.
	dataPlaceholder = "data/.placeholder"
)

// LoadDataAccumulator is the conversion-stage accumulator collecting every
// datasource's load script.
var LoadDataAccumulator = StageConversion.LoadScriptTarget()

// accumulatorTargets are the staged paths exempt from duplicate detection.
func isAccumulator(target string) bool {
	return target == LoadDataAccumulator || target == RulesAccumulator
}
