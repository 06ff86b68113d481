package blockchain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToSun(t *testing.T) {
	cases := []struct {
		trx  string
		want int64
	}{
		{"1", 1_000_000},
		{"1.5", 1_500_000},
		{"0.000001", 1},
		{"0.0000001", 0}, // sub-Sun precision truncates
		{"760", 760_000_000},
		{"0", 0},
	}

	for _, tc := range cases {
		trx, err := decimal.NewFromString(tc.trx)
		if err != nil {
			t.Fatalf("bad test input %q: %v", tc.trx, err)
		}
		if got := ToSun(trx); got != tc.want {
			t.Errorf("ToSun(%s) = %d, want %d", tc.trx, got, tc.want)
		}
	}
}

func TestFromSun(t *testing.T) {
	cases := []struct {
		sun  int64
		want string
	}{
		{1_000_000, "1"},
		{1_500_000, "1.5"},
		{1, "0.000001"},
		{760_000_000, "760"},
	}

	for _, tc := range cases {
		want, _ := decimal.NewFromString(tc.want)
		if got := FromSun(tc.sun); !got.Equal(want) {
			t.Errorf("FromSun(%d) = %s, want %s", tc.sun, got, tc.want)
		}
	}
}

func TestSunRoundTrip(t *testing.T) {
	for _, sun := range []int64{0, 1, 999_999, 1_000_000, 123_456_789} {
		if got := ToSun(FromSun(sun)); got != sun {
			t.Errorf("round trip of %d Sun gave %d", sun, got)
		}
	}
}
