package sheets

import (
	"reflect"
	"testing"
)

func TestCellString(t *testing.T) {
	cells := []interface{}{" Nhà thờ Đức Bà ", "", 10.78}
	if got := cellString(cells, 0); got != "Nhà thờ Đức Bà" {
		t.Errorf("cellString(0) = %q", got)
	}
	if got := cellString(cells, 1); got != "" {
		t.Errorf("cellString(1) = %q", got)
	}
	// Sheets values arrive as interface{}; non-strings are stringified.
	if got := cellString(cells, 2); got != "10.78" {
		t.Errorf("cellString(2) = %q", got)
	}
	if got := cellString(cells, 9); got != "" {
		t.Errorf("cellString out of range = %q", got)
	}
}

func TestCellFloat(t *testing.T) {
	cells := []interface{}{"10.78", "không phải số", ""}

	if f := cellFloat(cells, 0); f == nil || *f != 10.78 {
		t.Errorf("cellFloat(0) = %v", f)
	}
	if f := cellFloat(cells, 1); f != nil {
		t.Errorf("cellFloat on text = %v, want nil", *f)
	}
	if f := cellFloat(cells, 2); f != nil {
		t.Errorf("cellFloat on blank = %v, want nil", *f)
	}
	if f := cellFloat(cells, 9); f != nil {
		t.Errorf("cellFloat out of range = %v, want nil", *f)
	}
}

func TestSplitTimes(t *testing.T) {
	tests := []struct {
		cell string
		want []string
	}{
		{"05:30, 17:30", []string{"05:30", "17:30"}},
		{"5g30,, 18h30 ", []string{"5g30", "18h30"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		if got := splitTimes(tt.cell); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitTimes(%q) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}
