package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unowned-ai/duet/pkg/records"
)

// stringArg returns the trimmed string argument name, or "" when absent.
func stringArg(request mcp.CallToolRequest, name string) string {
	v, _ := request.Params.Arguments[name].(string)
	return strings.TrimSpace(v)
}

func boolArg(request mcp.CallToolRequest, name string) bool {
	v, _ := request.Params.Arguments[name].(bool)
	return v
}

// objectArg accepts either a JSON object or a string holding one.
func objectArg(request mcp.CallToolRequest, name string) (map[string]any, error) {
	switch v := request.Params.Arguments[name].(type) {
	case map[string]any:
		return v, nil
	case string:
		obj := map[string]any{}
		if err := json.Unmarshal([]byte(v), &obj); err != nil {
			return nil, fmt.Errorf("'%s' must be a JSON object: %w", name, err)
		}
		return obj, nil
	case nil:
		return nil, fmt.Errorf("'%s' parameter is required", name)
	default:
		return nil, fmt.Errorf("'%s' must be a JSON object, got %T", name, v)
	}
}

func collectionArg(request mcp.CallToolRequest) (records.Collection, error) {
	name := stringArg(request, "collection")
	if name == "" {
		return "", fmt.Errorf("'collection' parameter is required")
	}
	return records.ParseCollection(name)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func collectionNames() string {
	names := make([]string, 0, len(records.AllCollections))
	for _, c := range records.AllCollections {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
