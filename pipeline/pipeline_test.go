package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probs-lab/probs-runner/staging"
)

func TestConvertScript(t *testing.T) {
	script, err := Compose(Request{Shape: ShapeConvert})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"exec scripts/data-conversion/master",
		"quit",
	}, script)
}

func TestConvertDoesNotConfigureEndpoint(t *testing.T) {
	script, err := Compose(Request{Shape: ShapeConvert, Port: 12159})
	require.NoError(t, err)
	for _, line := range script {
		assert.NotContains(t, line, "endpoint.port")
	}
}

func TestEndpointScriptSetsPortFirst(t *testing.T) {
	script, err := Compose(Request{Shape: ShapeEndpoint, Port: 12159})
	require.NoError(t, err)
	require.NotEmpty(t, script)
	assert.Equal(t, `set endpoint.port "12159"`, script[0])
	assert.Contains(t, script, "exec scripts/reasoning/master-pipeline")
	assert.NotContains(t, script, "quit")
}

func TestEndpointPortDefaults(t *testing.T) {
	for _, port := range []int{0, -1} {
		script, err := Compose(Request{Shape: ShapeEndpoint, Port: port})
		require.NoError(t, err)
		assert.Equal(t, `set endpoint.port "12112"`, script[0], "port %d", port)
	}
	assert.Equal(t, DefaultEndpointPort, Request{}.PortOrDefault())
}

func TestFullPipelineChainsAllStages(t *testing.T) {
	script, err := Compose(Request{Shape: ShapeConvertEnhanceEndpoint})
	require.NoError(t, err)

	joined := strings.Join(script, "\n")
	conv := strings.Index(joined, "data-conversion/master-pipeline")
	enh := strings.Index(joined, "data-enhancement/master-pipeline")
	reason := strings.Index(joined, "reasoning/master-pipeline")
	require.GreaterOrEqual(t, conv, 0)
	assert.Greater(t, enh, conv)
	assert.Greater(t, reason, enh)
	assert.NotContains(t, script, "quit")
}

func TestResumedStagesRunSynthesizedLoadScript(t *testing.T) {
	tests := []struct {
		shape Shape
		load  string
	}{
		{ShapeEnhance, "exec scripts/data-enhancement/load_data.rdfox"},
		{ShapeValidate, "exec scripts/data-validation/load_data.rdfox"},
		{ShapeEndpoint, "exec scripts/reasoning/load_data.rdfox"},
		{ShapeEnhanceEndpoint, "exec scripts/data-enhancement/load_data.rdfox"},
	}
	for _, tt := range tests {
		script, err := Compose(Request{Shape: tt.shape})
		require.NoError(t, err)
		assert.Contains(t, script, tt.load, "shape %v", tt.shape)
	}
}

func TestArtifactProducingShapesQuit(t *testing.T) {
	for _, shape := range []Shape{ShapeConvert, ShapeEnhance, ShapeConvertEnhance, ShapeValidate} {
		script, err := Compose(Request{Shape: shape})
		require.NoError(t, err)
		assert.Equal(t, "quit", script[len(script)-1], "shape %v", shape)
	}
}

func TestShapeClassification(t *testing.T) {
	assert.True(t, Request{Shape: ShapeEndpoint}.EndpointShaped())
	assert.True(t, Request{Shape: ShapeConvertEnhanceEndpoint}.EndpointShaped())
	assert.False(t, Request{Shape: ShapeConvert}.EndpointShaped())

	assert.True(t, Request{Shape: ShapeConvert}.DatasourceDriven())
	assert.False(t, Request{Shape: ShapeEnhance}.DatasourceDriven())
}

func TestConsumerStage(t *testing.T) {
	stage, ok := Request{Shape: ShapeEnhance}.ConsumerStage()
	require.True(t, ok)
	assert.Equal(t, staging.StageEnhancement, stage)

	stage, ok = Request{Shape: ShapeEndpoint}.ConsumerStage()
	require.True(t, ok)
	assert.Equal(t, staging.StageReasoning, stage)

	_, ok = Request{Shape: ShapeConvert}.ConsumerStage()
	assert.False(t, ok)
}

func TestOutputArtifact(t *testing.T) {
	artifact, ok := Request{Shape: ShapeConvert}.OutputArtifact()
	require.True(t, ok)
	assert.Equal(t, staging.ConvertedArtifact, artifact)

	artifact, ok = Request{Shape: ShapeConvertEnhance}.OutputArtifact()
	require.True(t, ok)
	assert.Equal(t, staging.EnhancedArtifact, artifact)

	_, ok = Request{Shape: ShapeEndpoint}.OutputArtifact()
	assert.False(t, ok)
}

func TestStagesIncludeShared(t *testing.T) {
	for _, shape := range []Shape{ShapeConvert, ShapeEnhance, ShapeValidate, ShapeEndpoint, ShapeConvertEnhanceEndpoint} {
		stages := Request{Shape: shape}.Stages()
		assert.Contains(t, stages, staging.StageShared, "shape %v", shape)
	}
}

func TestDirectives(t *testing.T) {
	assert.Equal(t, `set endpoint.port "12112"`, Set("endpoint.port", "12112"))
	assert.Equal(t, "exec scripts/shared/setup-RDFox", Exec("scripts/shared/setup-RDFox"))
	assert.Equal(t, "import probs.fss", Import("probs.fss"))
}
