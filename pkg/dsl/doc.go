/*
Package dsl provides a fluent builder for workflow definitions.

It is meant for tests, examples and hosts that assemble workflows in code
instead of loading them from JSON or YAML.

	b := dsl.New("triage")
	b.Add("in").Input().Go("check")
	b.Add("check").Conditional(domain.OpContains, "urgent").Then("page").Else("queue")
	b.Add("page").Output("PAGE: {{input}}")
	b.Add("queue").Output("")

	def, err := b.Build()
*/
package dsl
