package service

import "testing"

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name      string
		correct   int
		incorrect int
		want      float64
		wantNil   bool
	}{
		{name: "nothing answered", correct: 0, incorrect: 0, wantNil: true},
		{name: "all correct", correct: 5, incorrect: 0, want: 1},
		{name: "all incorrect", correct: 0, incorrect: 4, want: 0},
		{name: "mixed", correct: 3, incorrect: 1, want: 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := accuracy(tt.correct, tt.incorrect)
			if tt.wantNil {
				if got != nil {
					t.Errorf("accuracy() = %v, want nil", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("accuracy() = nil, want %v", tt.want)
			}
			if *got != tt.want {
				t.Errorf("accuracy() = %v, want %v", *got, tt.want)
			}
		})
	}
}
