package records

import (
	"context"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/llm-d-incubation/session-matcher/api/v1alpha1"
	"github.com/llm-d-incubation/session-matcher/internal/utils/names"
)

// sessionDocument is the YAML layout of a session file.
type sessionDocument struct {
	Sessions []v1alpha1.SessionRecord `yaml:"sessions"`
}

// ReadSessionsYAML parses a YAML session document.
func ReadSessionsYAML(ctx context.Context, r io.Reader, opts LoadOptions) ([]v1alpha1.SessionRecord, LoadStats, error) {
	var doc sessionDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, LoadStats{}, fmt.Errorf("decoding session yaml: %w", err)
	}
	for i := range doc.Sessions {
		doc.Sessions[i].Name = names.Canonical(doc.Sessions[i].Name, opts.Mode)
	}
	out, dropped, dups := dedupeSessions(ctx, doc.Sessions)
	return out, LoadStats{
		Rows:       len(doc.Sessions),
		Loaded:     len(out),
		Skipped:    dropped,
		Duplicates: dups,
	}, nil
}
