package service

import (
	"errors"
	"testing"

	"github.com/prepmed/prepmed-backend/internal/model"
)

func TestValidateAnswerKey(t *testing.T) {
	options := []model.Option{
		{ID: "A", Text: "First"},
		{ID: "B", Text: "Second"},
		{ID: "C", Text: "Third"},
	}

	tests := []struct {
		name        string
		options     []model.Option
		correctIDs  []string
		multiSelect bool
		wantErr     error
	}{
		{
			name:       "single select one key",
			options:    options,
			correctIDs: []string{"B"},
		},
		{
			name:        "multi select several keys",
			options:     options,
			correctIDs:  []string{"A", "C"},
			multiSelect: true,
		},
		{
			name:       "unknown correct option",
			options:    options,
			correctIDs: []string{"Z"},
			wantErr:    ErrUnknownCorrectOption,
		},
		{
			name: "duplicate option ids",
			options: []model.Option{
				{ID: "A", Text: "First"},
				{ID: "A", Text: "Again"},
			},
			correctIDs: []string{"A"},
			wantErr:    ErrDuplicateOptionID,
		},
		{
			name:       "single select with two keys",
			options:    options,
			correctIDs: []string{"A", "B"},
			wantErr:    ErrSingleSelectMultiKey,
		},
		{
			name:       "single select with no key",
			options:    options,
			correctIDs: nil,
			wantErr:    ErrSingleSelectMultiKey,
		},
		{
			name:        "multi select single key is fine",
			options:     options,
			correctIDs:  []string{"C"},
			multiSelect: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAnswerKey(tt.options, tt.correctIDs, tt.multiSelect)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("validateAnswerKey() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
