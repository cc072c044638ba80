// Package tools defines the function-calling surface of the gateway: the
// schemas declared to the model and the calls the model sends back. Tools are
// described here but never executed in-process; execution happens on the
// remote tool-execution server, so a tool in this package is definition only.
package tools

// Tool defines the schema for a function that can be described to the model.
type Tool struct {
	// Name is the name of the function to be called (e.g., "search_the_web").
	Name string `json:"name"`
	// Description is a clear, concise explanation of what the function does.
	// The model uses this description to decide when to request the tool.
	Description string `json:"description"`
	// Parameters defines the arguments the function accepts, as a JSON Schema.
	Parameters JSONSchema `json:"parameters"`
}

// JSONSchema is a structured, type-safe representation of the JSON Schema
// subset used for tool parameters. Using this struct instead of
// `map[string]interface{}` prevents schema typos and keeps declarations clear.
type JSONSchema struct {
	// Type defines the data type for a schema node (e.g., "object", "string").
	// For the top-level parameters object this is always "object".
	Type string `json:"type"`
	// Description explains what a specific parameter is for.
	Description string `json:"description,omitempty"`
	// Properties describes the parameters of an object, keyed by name.
	Properties map[string]*JSONSchema `json:"properties,omitempty"`
	// Required lists the parameter names that are mandatory for a call.
	Required []string `json:"required,omitempty"`
}

// FunctionCall is a request from the model to execute a declared tool.
// Arguments arrive as a loosely typed mapping whose shape is decided by the
// model; Catalog.Validate checks it against the declared schema before the
// gateway issues a credential for it.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// NewFunctionTool creates a Tool from its name, description and parameters.
func NewFunctionTool(name, description string, parameters JSONSchema) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Parameters:  parameters,
	}
}
