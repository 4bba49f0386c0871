package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmountConstructors(t *testing.T) {
	tests := []struct {
		name    string
		amount  Amount
		micro   int64
		display string
	}{
		{"Units", Units(1800), 1800000000, "1800.000000"},
		{"Micro", Micro(500000000), 500000000, "500.000000"},
		{"OneMicro", Micro(1), 1, "0.000001"},
		{"Zero", Units(0), 0, "0.000000"},
		{"Negative", Units(-3), -3000000, "-3.000000"},
		{"Fractional", Micro(1500500), 1500500, "1.500500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.amount.Micro() != tt.micro {
				t.Errorf("Micro: got %d, want %d", tt.amount.Micro(), tt.micro)
			}
			if tt.amount.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.amount.String(), tt.display)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    Amount
		wantErr bool
	}{
		{"1800.000000", Units(1800), false},
		{"1800", Units(1800), false},
		{"0.000001", Micro(1), false},
		{"10000.000001", Micro(10000000001), false},
		{"-5.5", Micro(-5500000), false},
		{".5", Micro(500000), false},
		{"1.0000001", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"-", 0, true},
		{"-.", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseAmountRoundTrip(t *testing.T) {
	for _, s := range []string{"0.000000", "1800.000000", "-42.123456", "10000.000001"} {
		a, err := ParseAmount(s)
		if err != nil {
			t.Fatal(err)
		}
		if a.String() != s {
			t.Errorf("round trip: got %s, want %s", a.String(), s)
		}
	}
}

func TestFromDecimal(t *testing.T) {
	d := decimal.RequireFromString("1800.000000")
	a, err := FromDecimal(d)
	if err != nil {
		t.Fatal(err)
	}
	if a != Units(1800) {
		t.Errorf("got %v, want %v", a, Units(1800))
	}

	// Too precise for six decimals.
	if _, err := FromDecimal(decimal.RequireFromString("1.0000001")); err == nil {
		t.Error("expected error for sub-micro precision")
	}
}

func TestAmountDecimalRoundTrip(t *testing.T) {
	a := Micro(1234567)
	back, err := FromDecimal(a.Decimal())
	if err != nil {
		t.Fatal(err)
	}
	if back != a {
		t.Errorf("got %v, want %v", back, a)
	}
}

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Amount
		expected Amount
	}{
		{"Add", func() Amount { return Units(100).Add(Units(200)) }, Units(300)},
		{"Sub", func() Amount { return Units(500).Sub(Units(200)) }, Units(300)},
		{"Sum", func() Amount { return SumAmounts(Units(1), Units(2), Units(3)) }, Units(6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op(); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(Units(1800))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"micro":1800000000,"display":"1800.000000"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var a Amount
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatal(err)
	}
	if a != Units(1800) {
		t.Errorf("got %v, want %v", a, Units(1800))
	}
}

func TestClassify(t *testing.T) {
	const (
		native    Asset = "native"
		reference Asset = "usds"
	)

	tests := []struct {
		asset Asset
		want  Class
	}{
		{native, ClassNative},
		{reference, ClassReference},
		{"wbtc", ClassOther},
	}

	for _, tt := range tests {
		if got := Classify(tt.asset, native, reference); got != tt.want {
			t.Errorf("Classify(%q): got %v, want %v", tt.asset, got, tt.want)
		}
	}
}

func TestAssetValidate(t *testing.T) {
	if err := Asset("usds").Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Asset("").Validate(); err == nil {
		t.Error("expected error for empty asset")
	}
	if err := Asset("bad asset").Validate(); err == nil {
		t.Error("expected error for whitespace in asset")
	}
}
