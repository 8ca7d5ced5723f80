package model

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestParseEther(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantWei string
		wantErr bool
	}{
		{name: "whole", in: "1", wantWei: "1000000000000000000"},
		{name: "fraction", in: "0.01", wantWei: "10000000000000000"},
		{name: "smallest unit", in: "0.000000000000000001", wantWei: "1"},
		{name: "surrounding space", in: " 2.5 ", wantWei: "2500000000000000000"},
		{name: "exponent", in: "1e-2", wantWei: "10000000000000000"},
		{name: "zero", in: "0", wantWei: "0"},
		{name: "empty", in: "", wantErr: true},
		{name: "negative", in: "-1", wantErr: true},
		{name: "too precise", in: "0.0000000000000000001", wantErr: true},
		{name: "garbage", in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEther(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEther(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Wei().String() != tt.wantWei {
				t.Errorf("ParseEther(%q) = %s wei, want %s", tt.in, got.Wei(), tt.wantWei)
			}
		})
	}
}

func TestAmount_String(t *testing.T) {
	tests := []struct {
		wei  int64
		want string
	}{
		{wei: 0, want: "0"},
		{wei: 1000000000000000000, want: "1"},
		{wei: 30000000000000000, want: "0.03"},
		{wei: 1500000000000000000, want: "1.5"},
		{wei: 1, want: "0.000000000000000001"},
	}

	for _, tt := range tests {
		got := NewAmountFromWei(big.NewInt(tt.wei)).String()
		if got != tt.want {
			t.Errorf("String() for %d wei = %q, want %q", tt.wei, got, tt.want)
		}
	}

	var zero Amount
	if zero.String() != "0" {
		t.Errorf("zero value String() = %q, want 0", zero.String())
	}
}

func TestAmount_ExactSum(t *testing.T) {
	sum := MustParseEther("0.01").Add(MustParseEther("0.02"))
	if !sum.Equal(MustParseEther("0.03")) {
		t.Errorf("0.01 + 0.02 = %s, want 0.03", sum)
	}
	if sum.String() != "0.03" {
		t.Errorf("String() = %q, want 0.03", sum.String())
	}
}

func TestAmount_DivInt(t *testing.T) {
	a := MustParseEther("0.03")
	if got := a.DivInt(2).String(); got != "0.015" {
		t.Errorf("DivInt(2) = %s, want 0.015", got)
	}
	if got := a.DivInt(0); !got.IsZero() {
		t.Errorf("DivInt(0) = %s, want 0", got)
	}
}

func TestAmount_JSON(t *testing.T) {
	t.Run("marshals as decimal string", func(t *testing.T) {
		data, err := json.Marshal(MustParseEther("0.25"))
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		if string(data) != `"0.25"` {
			t.Errorf("Marshal() = %s, want \"0.25\"", data)
		}
	})

	t.Run("accepts strings numbers and null", func(t *testing.T) {
		inputs := map[string]string{
			`"0.5"`: "0.5",
			`0.5`:   "0.5",
			`2`:     "2",
			`null`:  "0",
		}
		for in, want := range inputs {
			var a Amount
			if err := json.Unmarshal([]byte(in), &a); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", in, err)
			}
			if a.String() != want {
				t.Errorf("Unmarshal(%s) = %s, want %s", in, a, want)
			}
		}
	})

	t.Run("rejects negative", func(t *testing.T) {
		var a Amount
		if err := json.Unmarshal([]byte(`-1`), &a); err == nil {
			t.Error("Unmarshal(-1) expected error, got nil")
		}
	})
}

func TestAmount_ValueScan(t *testing.T) {
	a := MustParseEther("1.25")
	v, err := a.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}

	var got Amount
	if err := got.Scan(v); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if !got.Equal(a) {
		t.Errorf("Scan(Value()) = %s, want %s", got, a)
	}

	if err := got.Scan([]byte("42")); err != nil {
		t.Fatalf("Scan([]byte) error = %v", err)
	}
	if got.Wei().Int64() != 42 {
		t.Errorf("Scan([]byte) = %s wei, want 42", got.Wei())
	}

	if err := got.Scan("not-a-number"); err == nil {
		t.Error("Scan(invalid) expected error, got nil")
	}
}
