package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ToolGeneric is the adapter name for pre-shaped issue records.
const ToolGeneric = "generic"

// GenericAdapter parses a JSON array of records already in the minimal
// raw-issue shape. Tools without a dedicated adapter feed through here.
type GenericAdapter struct{}

// Name implements ToolAdapter.
func (a *GenericAdapter) Name() string { return ToolGeneric }

// Parse implements ToolAdapter.
func (a *GenericAdapter) Parse(_ context.Context, r io.Reader) ([]RawIssue, error) {
	var issues []RawIssue

	if err := json.NewDecoder(r).Decode(&issues); err != nil {
		return nil, fmt.Errorf("decode generic report: %w", err)
	}

	for i := range issues {
		if issues[i].ToolName == "" {
			issues[i].ToolName = ToolGeneric
		}
	}

	return issues, nil
}
