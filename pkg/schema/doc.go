// Package schema validates the loosely typed "data" maps of authored nodes
// before they are decoded into typed configurations.
//
// A Schema maps field names to types. Fields are optional unless wrapped with
// Required, so authored data may omit anything that has a default. Numbers are
// accepted in every shape JSON and YAML decoders produce, including numeric
// strings.
//
//	s := schema.Schema{
//	    "topK":         schema.Int(schema.Min(1)),
//	    "minRelevance": schema.Float(schema.Min(0), schema.Max(1)),
//	    "operator":     schema.Required(schema.Enum("contains", "equals")),
//	}
//
//	if err := schema.Validate(s, data); err != nil {
//	    for _, e := range schema.ValidationErrors(err) { ... }
//	}
//
// The package has no external dependencies.
package schema
