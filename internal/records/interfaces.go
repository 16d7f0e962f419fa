/*
Copyright 2025 The llm-d Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package records

import (
	"context"

	"github.com/llm-d-incubation/session-matcher/api/v1alpha1"
	"github.com/llm-d-incubation/session-matcher/internal/utils/names"
)

// Source is the interface for pluggable record sources.
// Implementations include FileSource; tests use in-memory sources.
type Source interface {
	// Name returns a short description of the source for logs.
	Name() string

	// Sessions returns the session records, canonicalized and de-duplicated.
	Sessions(ctx context.Context) ([]v1alpha1.SessionRecord, error)

	// Students returns the student records, canonicalized and de-duplicated.
	Students(ctx context.Context) ([]v1alpha1.StudentRecord, error)
}

// LoadOptions control how rows become records.
type LoadOptions struct {
	// Mode selects named or numeric session names.
	Mode names.Mode

	// MaxChoices truncates every choice list, 0 keeps all choices.
	MaxChoices int
}

// LoadStats counts what a loader did with the rows it read.
type LoadStats struct {
	// Rows is the number of rows read.
	Rows int

	// Loaded is the number of records returned.
	Loaded int

	// Skipped counts malformed rows.
	Skipped int

	// Duplicates counts rows dropped or replaced because their key repeated.
	Duplicates int
}
