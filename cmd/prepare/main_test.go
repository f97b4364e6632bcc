package main

import (
	"errors"
	"testing"
)

func TestParseLimit(t *testing.T) {
	cases := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{args: nil, want: 0},
		{args: []string{"25"}, want: 25},
		{args: []string{"-1"}, want: -1},
		{args: []string{"ten"}, wantErr: true},
		{args: []string{"1.5"}, wantErr: true},
		{args: []string{"1", "2"}, wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseLimit(tc.args)
		if tc.wantErr {
			if !errors.Is(err, errUsage) {
				t.Errorf("parseLimit(%v) expected usage error, got %v", tc.args, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("parseLimit(%v) = %d, %v; want %d", tc.args, got, err, tc.want)
		}
	}
}
