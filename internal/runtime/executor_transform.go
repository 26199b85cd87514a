package runtime

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/internal/xjson"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/registry"
)

// paragraphSeparator is what combine splits its input on.
const paragraphSeparator = "\n\n"

var escapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t")

func executeDataTransform(cfg domain.DataTransformConfig, input string) domain.NodeExecutionResult {
	var res domain.NodeExecutionResult
	switch cfg.TransformType {
	case domain.TransformTemplate:
		tmpl := cfg.Config
		if tmpl == "" {
			tmpl = domain.InputPlaceholder
		}
		res = completed(Interpolate(tmpl, input))
	case domain.TransformExtractJSON:
		out, err := extractJSON(input, cfg.Config)
		if err != nil {
			return failed(err.Error())
		}
		res = completed(out)
	case domain.TransformCombine:
		sep := domain.DefaultCombineSeparator
		if cfg.Config != "" {
			sep = escapes.Replace(cfg.Config)
		}
		res = completed(strings.Join(nonEmpty(strings.Split(input, paragraphSeparator)), sep))
	case domain.TransformSplit:
		delim := domain.DefaultSplitDelimiter
		if cfg.Config != "" {
			delim = escapes.Replace(cfg.Config)
		}
		items := nonEmpty(strings.Split(input, delim))
		lines := make([]string, len(items))
		for i, item := range items {
			lines[i] = fmt.Sprintf("%d. %s", i+1, item)
		}
		res = completed(strings.Join(lines, "\n"))
	default:
		res = completed(input)
	}
	res.Metadata = map[string]any{"transformType": cfg.TransformType}
	return res
}

// customTransform finds a registered transform. Built-in names are never
// looked up.
func (e *Engine) customTransform(name string) (registry.TransformFunc, bool) {
	if e.transforms == nil {
		return nil, false
	}
	switch name {
	case domain.TransformTemplate, domain.TransformExtractJSON, domain.TransformCombine, domain.TransformSplit:
		return nil, false
	}
	return e.transforms.Lookup(name)
}

func executeCustomTransform(ctx context.Context, fn registry.TransformFunc, cfg domain.DataTransformConfig, input string) domain.NodeExecutionResult {
	out, err := fn(ctx, input, cfg.Config)
	var res domain.NodeExecutionResult
	if err != nil {
		res = failed(fmt.Sprintf("transform %s failed: %v", cfg.TransformType, err))
	} else {
		res = completed(out)
	}
	res.Metadata = map[string]any{"transformType": cfg.TransformType}
	return res
}

// nonEmpty trims every item and drops the blank ones.
func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// extractJSON parses input as JSON and returns the value at the dot path.
// String leaves are returned verbatim, other leaves JSON-encoded (a present
// null becomes "null"), and absent paths yield "". Numeric segments index into
// arrays.
func extractJSON(input, path string) (string, error) {
	var doc any
	if err := xjson.Unmarshal([]byte(stripFence(input)), &doc); err != nil {
		return "", fmt.Errorf("input is not valid JSON: %v", err)
	}

	cur := doc
	if path != "" {
		for _, seg := range strings.Split(path, ".") {
			switch v := cur.(type) {
			case map[string]any:
				next, ok := v[seg]
				if !ok {
					return "", nil
				}
				cur = next
			case []any:
				i, err := strconv.Atoi(seg)
				if err != nil || i < 0 || i >= len(v) {
					return "", nil
				}
				cur = v[i]
			default:
				return "", nil
			}
		}
	}

	if v, ok := cur.(string); ok {
		return v, nil
	}
	b, err := xjson.Marshal(cur)
	if err != nil {
		return "", fmt.Errorf("encode extracted value: %v", err)
	}
	return string(b), nil
}

// stripFence removes a surrounding markdown code fence, as models often wrap
// JSON replies in one.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
