// Package pipeline maps a requested pipeline shape onto the ordered
// control-script the engine executes. The composer sees only the shape of a
// request (stages, resume point, endpoint port), never file contents.
//
// Only four directive forms are ever emitted: set, exec, import and quit.
package pipeline

import (
	"fmt"

	"github.com/probs-lab/probs-runner/errors"
	"github.com/probs-lab/probs-runner/staging"
)

// DefaultEndpointPort is the fixed port used when a request does not name
// one. An explicit zero also falls back here, so repeated runs address the
// endpoint reproducibly; the composer never picks a random port.
const DefaultEndpointPort = 12112

// Directive constructors for the control-script language.

// Set renders a `set <key> "<value>"` directive.
func Set(key, value string) string {
	return fmt.Sprintf("set %s %q", key, value)
}

// Exec renders an `exec <relative/script/path>` directive.
func Exec(script string) string {
	return "exec " + script
}

// Import renders an `import <relative/path>` directive.
func Import(path string) string {
	return "import " + path
}

// Quit terminates an artifact-producing run.
const Quit = "quit"

// Shape enumerates the supported pipeline requests.
type Shape int

const (
	// ShapeConvert converts datasources into the converted artifact.
	ShapeConvert Shape = iota
	// ShapeEnhance enhances existing converted artifacts.
	ShapeEnhance
	// ShapeConvertEnhance chains conversion and enhancement in one session.
	ShapeConvertEnhance
	// ShapeValidate checks existing converted artifacts.
	ShapeValidate
	// ShapeEndpoint serves a query endpoint over existing enhanced artifacts.
	ShapeEndpoint
	// ShapeEnhanceEndpoint enhances converted artifacts, then serves.
	ShapeEnhanceEndpoint
	// ShapeConvertEndpoint converts datasources, then serves without
	// enhancement.
	ShapeConvertEndpoint
	// ShapeConvertEnhanceEndpoint runs the full pipeline, then serves.
	ShapeConvertEnhanceEndpoint
)

func (s Shape) String() string {
	switch s {
	case ShapeConvert:
		return "convert"
	case ShapeEnhance:
		return "enhance"
	case ShapeConvertEnhance:
		return "convert+enhance"
	case ShapeValidate:
		return "validate"
	case ShapeEndpoint:
		return "endpoint"
	case ShapeEnhanceEndpoint:
		return "enhance+endpoint"
	case ShapeConvertEndpoint:
		return "convert+endpoint"
	case ShapeConvertEnhanceEndpoint:
		return "convert+enhance+endpoint"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// Request is the shape of one pipeline run.
type Request struct {
	Shape Shape
	// Port is the endpoint listening port for endpoint-producing shapes.
	// Zero selects DefaultEndpointPort.
	Port int
}

// EndpointShaped reports whether the request culminates in a live query
// endpoint rather than running to completion.
func (r Request) EndpointShaped() bool {
	switch r.Shape {
	case ShapeEndpoint, ShapeEnhanceEndpoint, ShapeConvertEndpoint, ShapeConvertEnhanceEndpoint:
		return true
	}
	return false
}

// DatasourceDriven reports whether the request starts from datasources
// rather than resuming from existing artifacts.
func (r Request) DatasourceDriven() bool {
	switch r.Shape {
	case ShapeConvert, ShapeConvertEnhance, ShapeConvertEndpoint, ShapeConvertEnhanceEndpoint:
		return true
	}
	return false
}

// PortOrDefault returns the endpoint port, applying the fixed default.
func (r Request) PortOrDefault() int {
	if r.Port <= 0 {
		return DefaultEndpointPort
	}
	return r.Port
}

// Stages returns the script folders the request needs staged.
func (r Request) Stages() []staging.Stage {
	switch r.Shape {
	case ShapeConvert:
		return []staging.Stage{staging.StageShared, staging.StageConversion}
	case ShapeEnhance:
		return []staging.Stage{staging.StageShared, staging.StageEnhancement}
	case ShapeConvertEnhance:
		return []staging.Stage{staging.StageShared, staging.StageConversion, staging.StageEnhancement}
	case ShapeValidate:
		return []staging.Stage{staging.StageShared, staging.StageValidation}
	case ShapeEndpoint:
		return []staging.Stage{staging.StageShared, staging.StageReasoning}
	case ShapeEnhanceEndpoint:
		return []staging.Stage{staging.StageShared, staging.StageEnhancement, staging.StageReasoning}
	case ShapeConvertEndpoint:
		return []staging.Stage{staging.StageShared, staging.StageConversion, staging.StageReasoning}
	case ShapeConvertEnhanceEndpoint:
		return []staging.Stage{staging.StageShared, staging.StageConversion, staging.StageEnhancement, staging.StageReasoning}
	}
	return nil
}

// ConsumerStage returns the stage whose load-instruction file ingests
// resumed artifacts, for artifact-driven shapes.
func (r Request) ConsumerStage() (staging.Stage, bool) {
	switch r.Shape {
	case ShapeEnhance, ShapeEnhanceEndpoint:
		return staging.StageEnhancement, true
	case ShapeValidate:
		return staging.StageValidation, true
	case ShapeEndpoint:
		return staging.StageReasoning, true
	}
	return "", false
}

// OutputArtifact returns the staged path of the artifact the run must
// produce, for artifact-producing shapes.
func (r Request) OutputArtifact() (string, bool) {
	switch r.Shape {
	case ShapeConvert:
		return staging.ConvertedArtifact, true
	case ShapeEnhance, ShapeConvertEnhance:
		return staging.EnhancedArtifact, true
	}
	return "", false
}

// Compose produces the ordered control-script for the request.
//
// Rules: a single-purpose artifact-producing request invokes just that
// stage's master script; any endpoint-producing request begins by setting
// endpoint.port and chains the master-pipeline variants of every stage up to
// reasoning; stages resuming from artifacts run their synthesized
// load-instruction file in place of their normal single import.
func Compose(r Request) ([]string, error) {
	var script []string
	if r.EndpointShaped() {
		script = append(script, Set("endpoint.port", fmt.Sprintf("%d", r.PortOrDefault())))
	}

	switch r.Shape {
	case ShapeConvert:
		script = append(script,
			Exec("scripts/data-conversion/master"),
			Quit,
		)

	case ShapeEnhance:
		script = append(script,
			Exec("scripts/shared/setup-RDFox"),
			Exec("scripts/shared/init-enhancement"),
			Import("probs.fss"),
			Import("additional_info.ttl"),
			Exec(staging.StageEnhancement.LoadScriptTarget()),
			Exec("scripts/data-enhancement/master-pipeline"),
			Quit,
		)

	case ShapeConvertEnhance:
		script = append(script,
			Exec("scripts/shared/setup-RDFox"),
			Exec("scripts/data-conversion/master-pipeline"),
			Exec("scripts/data-enhancement/master-pipeline"),
			Quit,
		)

	case ShapeValidate:
		script = append(script,
			Exec("scripts/shared/setup-RDFox"),
			Import("probs.fss"),
			Import("additional_info.ttl"),
			Exec(staging.StageValidation.LoadScriptTarget()),
			Exec("scripts/data-validation/master"),
			Quit,
		)

	case ShapeEndpoint:
		script = append(script,
			Exec("scripts/shared/setup-RDFox"),
			Import("probs.fss"),
			Import("additional_info.ttl"),
			Exec(staging.StageReasoning.LoadScriptTarget()),
			Exec("scripts/reasoning/master-pipeline"),
		)

	case ShapeEnhanceEndpoint:
		script = append(script,
			Exec("scripts/shared/setup-RDFox"),
			Exec("scripts/shared/init-enhancement"),
			Import("probs.fss"),
			Import("additional_info.ttl"),
			Exec(staging.StageEnhancement.LoadScriptTarget()),
			Exec("scripts/data-enhancement/master-pipeline"),
			Exec("scripts/reasoning/master-pipeline"),
		)

	case ShapeConvertEndpoint:
		script = append(script,
			Exec("scripts/shared/setup-RDFox"),
			Exec("scripts/data-conversion/master-pipeline"),
			Exec("scripts/reasoning/master-pipeline"),
		)

	case ShapeConvertEnhanceEndpoint:
		script = append(script,
			Exec("scripts/shared/setup-RDFox"),
			Exec("scripts/data-conversion/master-pipeline"),
			Exec("scripts/data-enhancement/master-pipeline"),
			Exec("scripts/reasoning/master-pipeline"),
		)

	default:
		return nil, errors.NewValidationError("unknown pipeline shape %v", r.Shape)
	}

	return script, nil
}
