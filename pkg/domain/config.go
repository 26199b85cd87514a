package domain

// NodeConfig is the sealed set of per-type node configurations.
// Only the types declared in this file implement it.
type NodeConfig interface {
	nodeType() NodeType
}

// InputConfig has no settings; the node emits the run input.
type InputConfig struct{}

// LLMCallConfig configures a completion request.
type LLMCallConfig struct {
	Model              string   `mapstructure:"model" json:"model,omitempty"`
	SystemPrompt       string   `mapstructure:"systemPrompt" json:"systemPrompt,omitempty"`
	UserPromptTemplate string   `mapstructure:"userPromptTemplate" json:"userPromptTemplate,omitempty"`
	MaxTokens          int      `mapstructure:"maxTokens" json:"maxTokens,omitempty"`
	Temperature        *float64 `mapstructure:"temperature" json:"temperature,omitempty"`
}

// RAGQueryConfig configures a retrieval against the owner's documents.
type RAGQueryConfig struct {
	QueryTemplate string  `mapstructure:"queryTemplate" json:"queryTemplate,omitempty"`
	TopK          int     `mapstructure:"topK" json:"topK,omitempty"`
	MinRelevance  float64 `mapstructure:"minRelevance" json:"minRelevance,omitempty"`
}

// WebSearchConfig configures a web search.
type WebSearchConfig struct {
	QueryTemplate string `mapstructure:"queryTemplate" json:"queryTemplate,omitempty"`
	MaxResults    int    `mapstructure:"maxResults" json:"maxResults,omitempty"`
}

// Transform kinds understood by DataTransform nodes.
const (
	TransformTemplate    = "template"
	TransformExtractJSON = "extract_json"
	TransformCombine     = "combine"
	TransformSplit       = "split"
)

// DataTransformConfig configures a text transformation.
// Config is the template, the JSON dot path, the join separator or the split
// delimiter depending on TransformType.
type DataTransformConfig struct {
	TransformType string `mapstructure:"transformType" json:"transformType,omitempty"`
	Config        string `mapstructure:"config" json:"config,omitempty"`
}

// Conditional operators.
const (
	OpContains    = "contains"
	OpNotContains = "not_contains"
	OpLengthGT    = "length_gt"
	OpLengthLT    = "length_lt"
	OpEquals      = "equals"
)

// ConditionalConfig configures a branch predicate.
type ConditionalConfig struct {
	Operator       string `mapstructure:"operator" json:"operator,omitempty"`
	ConditionValue string `mapstructure:"conditionValue" json:"conditionValue,omitempty"`
}

// OutputConfig configures final formatting.
type OutputConfig struct {
	FormatTemplate string `mapstructure:"formatTemplate" json:"formatTemplate,omitempty"`
}

func (InputConfig) nodeType() NodeType         { return NodeTypeInput }
func (LLMCallConfig) nodeType() NodeType       { return NodeTypeLLMCall }
func (RAGQueryConfig) nodeType() NodeType      { return NodeTypeRAGQuery }
func (WebSearchConfig) nodeType() NodeType     { return NodeTypeWebSearch }
func (DataTransformConfig) nodeType() NodeType { return NodeTypeDataTransform }
func (ConditionalConfig) nodeType() NodeType   { return NodeTypeConditional }
func (OutputConfig) nodeType() NodeType        { return NodeTypeOutput }

// ConfigType reports the node type a config belongs to.
func ConfigType(c NodeConfig) NodeType {
	if c == nil {
		return ""
	}
	return c.nodeType()
}

// Defaults applied when a config field is left at its zero value.
const (
	DefaultModel            = "claude-sonnet-4-20250514"
	DefaultMaxTokens        = 1024
	DefaultTemperature      = 0.7
	DefaultPromptTemplate   = InputPlaceholder
	DefaultTopK             = 5
	DefaultMaxResults       = 5
	DefaultCombineSeparator = "\n"
	DefaultSplitDelimiter   = ","
)

// InputPlaceholder is the only placeholder recognized in templates.
const InputPlaceholder = "{{input}}"

// WithDefaults returns a copy with zero fields replaced by defaults.
func (c LLMCallConfig) WithDefaults() LLMCallConfig {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature == nil {
		t := DefaultTemperature
		c.Temperature = &t
	}
	if c.UserPromptTemplate == "" {
		c.UserPromptTemplate = DefaultPromptTemplate
	}
	return c
}

// WithDefaults returns a copy with zero fields replaced by defaults.
func (c RAGQueryConfig) WithDefaults() RAGQueryConfig {
	if c.QueryTemplate == "" {
		c.QueryTemplate = InputPlaceholder
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	return c
}

// WithDefaults returns a copy with zero fields replaced by defaults.
func (c WebSearchConfig) WithDefaults() WebSearchConfig {
	if c.QueryTemplate == "" {
		c.QueryTemplate = InputPlaceholder
	}
	if c.MaxResults <= 0 {
		c.MaxResults = DefaultMaxResults
	}
	return c
}
