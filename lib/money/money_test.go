package money

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "4000", expected: "4000"},
		{input: "2555,44", expected: "2555.44"},
		{input: "455.111", expected: "455.111"},
		{input: "1900.", expected: "1900."},
		{input: "5555 PLN", expected: "5555"},
		{input: "2433,22zł", expected: "2433.22"},
		{input: "4000,00 zł", expected: "4000.00"},
		{input: "2 907,96 zł", expected: "2907.96"},
		{input: "1.234,56", expected: "1.23456"},
		{input: "PLN", expected: ""},
		{input: "", expected: ""},
	}

	for _, test := range testCases {
		t.Run(test.input, func(t *testing.T) {
			require.Equal(t, test.expected, Sanitize(test.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "2555", Truncate(Sanitize("2555,44")))
	require.Equal(t, "1900", Truncate("1900."))
	require.Equal(t, "4000", Truncate("4000"))
	require.Equal(t, "", Truncate(""))
}

func TestParse(t *testing.T) {
	value, err := Parse("2907.96")
	require.NoError(t, err)
	require.InDelta(t, 2907.96, value, 0.0001)

	value, err = Parse("1900.")
	require.NoError(t, err)
	require.Equal(t, 1900.0, value)

	_, err = Parse("")
	require.Error(t, err)
}

func TestSanitize_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	moneyish := gen.RegexMatch(`[0-9 ,.PLNzł-]{0,16}`)

	properties.Property("sanitize is idempotent", prop.ForAll(
		func(raw string) bool {
			once := Sanitize(raw)
			return Sanitize(once) == once
		},
		moneyish,
	))

	properties.Property("sanitized output has no commas and at most one dot", prop.ForAll(
		func(raw string) bool {
			out := Sanitize(raw)
			return !strings.Contains(out, ",") && strings.Count(out, ".") <= 1
		},
		moneyish,
	))

	properties.Property("currency suffixes are stripped", prop.ForAll(
		func(n uint32) bool {
			digits := Sanitize(strings.Repeat("7", int(n%6)+1))
			return Sanitize(digits+" PLN") == digits && Sanitize(digits+"zł") == digits
		},
		gen.UInt32(),
	))

	properties.TestingRun(t)
}
