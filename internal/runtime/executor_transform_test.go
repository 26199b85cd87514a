package runtime

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestExecuteDataTransform(t *testing.T) {
	tests := []struct {
		name  string
		cfg   domain.DataTransformConfig
		input string
		want  string
	}{
		{"Template", domain.DataTransformConfig{TransformType: "template", Config: "<{{input}}|{{input}}>"}, "x", "<x|x>"},
		{"Template Empty Config", domain.DataTransformConfig{TransformType: "template"}, "x", "x"},
		{"Extract String Leaf", domain.DataTransformConfig{TransformType: "extract_json", Config: "user.name"}, `{"user":{"name":"Ada"}}`, "Ada"},
		{"Extract Object Leaf", domain.DataTransformConfig{TransformType: "extract_json", Config: "user"}, `{"user":{"age":36}}`, `{"age":36}`},
		{"Extract Number Leaf", domain.DataTransformConfig{TransformType: "extract_json", Config: "n"}, `{"n":3}`, "3"},
		{"Extract Array Index", domain.DataTransformConfig{TransformType: "extract_json", Config: "items.1"}, `{"items":["a","b"]}`, "b"},
		{"Extract Null Leaf", domain.DataTransformConfig{TransformType: "extract_json", Config: "a"}, `{"a":null}`, "null"},
		{"Extract Missing Path", domain.DataTransformConfig{TransformType: "extract_json", Config: "user.email"}, `{"user":{"name":"Ada"}}`, ""},
		{"Extract Through Scalar", domain.DataTransformConfig{TransformType: "extract_json", Config: "a.b"}, `{"a":1}`, ""},
		{"Extract Fenced", domain.DataTransformConfig{TransformType: "extract_json", Config: "ok"}, "```json\n{\"ok\":true}\n```", "true"},
		{"Combine Default", domain.DataTransformConfig{TransformType: "combine"}, "a\n\nb\n\n\n\nc", "a\nb\nc"},
		{"Combine Custom", domain.DataTransformConfig{TransformType: "combine", Config: " | "}, "a\n\nb", "a | b"},
		{"Combine Escaped Newline", domain.DataTransformConfig{TransformType: "combine", Config: `\n---\n`}, "a\n\nb", "a\n---\nb"},
		{"Split Default", domain.DataTransformConfig{TransformType: "split"}, " a, b ,,c ", "1. a\n2. b\n3. c"},
		{"Split Custom", domain.DataTransformConfig{TransformType: "split", Config: ";"}, "x;y", "1. x\n2. y"},
		{"Split Empty", domain.DataTransformConfig{TransformType: "split"}, " , ", ""},
		{"Unknown Passthrough", domain.DataTransformConfig{TransformType: "uppercase"}, "same", "same"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := executeDataTransform(tt.cfg, tt.input)
			assert.Equal(t, domain.NodeStatusCompleted, res.Status)
			assert.Equal(t, tt.want, res.Output)
			assert.Zero(t, res.Cost)
		})
	}
}

func TestExecuteDataTransform_InvalidJSON(t *testing.T) {
	res := executeDataTransform(domain.DataTransformConfig{TransformType: "extract_json", Config: "a"}, "not json")
	assert.Equal(t, domain.NodeStatusFailed, res.Status)
	assert.Contains(t, res.ErrorMessage, "not valid JSON")
}

func TestExecuteOutput(t *testing.T) {
	assert.Equal(t, "raw", executeOutput(domain.OutputConfig{}, "raw").Output)
	assert.Equal(t, "Answer: raw", executeOutput(domain.OutputConfig{FormatTemplate: "Answer: {{input}}"}, "raw").Output)
}

func TestInterpolate(t *testing.T) {
	assert.Equal(t, "a-x-x", Interpolate("a-{{input}}-{{input}}", "x"))
	assert.Equal(t, "no placeholder", Interpolate("no placeholder", "x"))
	assert.Equal(t, "", Interpolate("{{input}}", ""))
	assert.Equal(t, "{{ input }}", Interpolate("{{ input }}", "x"))
}
