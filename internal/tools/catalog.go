package tools

import (
	"fmt"
	"sort"
)

// MalformedCallError reports a function call the model requested that does
// not match the declared tool set: an unknown tool name, a missing required
// argument, or an argument of the wrong basic type. The gateway rejects such
// a call before any credential is issued for it.
type MalformedCallError struct {
	Tool   string
	Reason string
}

func (e *MalformedCallError) Error() string {
	return fmt.Sprintf("malformed function call for tool '%s': %s", e.Tool, e.Reason)
}

// Catalog holds the set of tools the gateway declares to the model.
type Catalog struct {
	tools map[string]Tool
}

func NewCatalog() *Catalog {
	return &Catalog{tools: make(map[string]Tool)}
}

// Register adds a tool to the catalog, replacing any previous declaration
// with the same name.
func (c *Catalog) Register(tool Tool) {
	c.tools[tool.Name] = tool
}

// Definitions returns all declared tools in name order, suitable for
// attaching to a model request.
func (c *Catalog) Definitions() []Tool {
	defs := make([]Tool, 0, len(c.tools))
	for _, tool := range c.tools {
		defs = append(defs, tool)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Count returns the number of declared tools.
func (c *Catalog) Count() int {
	return len(c.tools)
}

// Validate checks a model-requested call against the declared schema.
// It returns a *MalformedCallError when the tool is unknown, a required
// argument is absent, or an argument fails the basic type check.
func (c *Catalog) Validate(call *FunctionCall) error {
	tool, ok := c.tools[call.Name]
	if !ok {
		return &MalformedCallError{Tool: call.Name, Reason: "tool is not declared in the catalog"}
	}

	for _, name := range tool.Parameters.Required {
		if _, present := call.Args[name]; !present {
			return &MalformedCallError{
				Tool:   call.Name,
				Reason: fmt.Sprintf("required argument '%s' is missing", name),
			}
		}
	}

	for name, value := range call.Args {
		schema, declared := tool.Parameters.Properties[name]
		if !declared {
			return &MalformedCallError{
				Tool:   call.Name,
				Reason: fmt.Sprintf("argument '%s' is not declared for this tool", name),
			}
		}
		if !matchesType(schema.Type, value) {
			return &MalformedCallError{
				Tool:   call.Name,
				Reason: fmt.Sprintf("argument '%s' must be of type %s", name, schema.Type),
			}
		}
	}
	return nil
}

// matchesType checks a decoded JSON value against a schema type name.
// Numbers from the model always decode as float64, so "integer" accepts a
// float64 with no fractional part.
func matchesType(schemaType string, value any) bool {
	switch schemaType {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		_, ok := value.(float64)
		return ok
	case "integer":
		f, ok := value.(float64)
		return ok && f == float64(int64(f))
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	}
	return true
}

// DefaultCatalog declares the tools the gateway exposes: calendar lookups and
// web search, both executed remotely by the tool server.
func DefaultCatalog() *Catalog {
	catalog := NewCatalog()

	catalog.Register(NewFunctionTool(
		"get_google_calendar_events",
		"Query Google Calendar for the user's meetings and schedule on a specific date (for example today or tomorrow).",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"date": {
					Type:        "string",
					Description: `The date to query, formatted YYYY-MM-DD or "today" / "tomorrow".`,
				},
			},
			Required: []string{"date"},
		},
	))

	catalog.Register(NewFunctionTool(
		"search_the_web",
		"Search the public web for up-to-date information on a topic.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"query": {
					Type:        "string",
					Description: "The query string to search for.",
				},
			},
			Required: []string{"query"},
		},
	))

	return catalog
}
