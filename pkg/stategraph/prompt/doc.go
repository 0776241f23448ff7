/*
Package prompt provides {var} placeholder expansion for system prompts.

# Overview

prompt expands single-brace {var} placeholders in strings using provided
variable maps. Its main consumer is the agent tool loop, which renders
the registry's tool descriptions into a system prompt template through
the {tool_descriptions} placeholder.

# Basic Usage

Expand placeholders using the package-level function:

	result := prompt.Expand("You can use:\n{tool_descriptions}", map[string]any{
	    "tool_descriptions": reg.DescriptionBlock(),
	})

# Missing Variables

By default, missing variables are kept as-is:

	result := prompt.Expand("Hello {missing}", nil)
	// result: "Hello {missing}"

Configure behavior with options:

	exp := prompt.NewExpander(prompt.WithMissingAction(prompt.MissingEmpty))
	result, _ := exp.Expand("Hello {missing}", nil)
	// result: "Hello "

	exp = prompt.NewExpander(prompt.WithMissingAction(prompt.MissingError))
	_, err := exp.Expand("Hello {missing}", nil)
	// err: "undefined variable: missing"

# Thread Safety

Expander is safe for concurrent use after construction. Package-level
functions use a shared default expander.
*/
package prompt
