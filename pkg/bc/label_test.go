package bc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLabel(t *testing.T) {
	tests := []struct {
		label    string
		wantText string
		wantCode string
	}{
		{label: "Systolic Blood Pressure (C0005823)", wantText: "Systolic Blood Pressure", wantCode: "C0005823"},
		{label: "  Unit (C44256)  ", wantText: "Unit", wantCode: "C44256"},
		{label: "SYSBP(C25298)", wantText: "SYSBP", wantCode: "C25298"},
		{label: "Result ( C70856 )", wantText: "Result", wantCode: "C70856"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			text, code, err := SplitLabel(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
			assert.Equal(t, tt.wantCode, code)

			// Re-parsing the reconstructed label gives the same parts
			text2, code2, err := SplitLabel(text + " (" + code + ")")
			require.NoError(t, err)
			assert.Equal(t, text, text2)
			assert.Equal(t, code, code2)
		})
	}
}

func TestSplitLabelMalformed(t *testing.T) {
	for _, label := range []string{
		"Systolic Blood Pressure",
		"Systolic Blood Pressure (C0005823",
		"(C0005823)",
		"Systolic Blood Pressure ()",
		"",
	} {
		t.Run(label, func(t *testing.T) {
			_, _, err := SplitLabel(label)
			assert.ErrorIs(t, err, ErrMalformedLabel)
		})
	}
}

func TestDesignation(t *testing.T) {
	assert.Equal(t, "systolic_blood_pressure", Designation("Systolic Blood Pressure"))
	assert.Equal(t, "hba1c", Designation(" HbA1c "))
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw  string
		want RoleKind
	}{
		{raw: "qualifier.variable.units", want: RoleUnits},
		{raw: "Qualifier.Variable.Units", want: RoleUnits},
		{raw: "qualifier.result", want: RoleResult},
		{raw: "topic.test_code", want: RoleTestCode},
		{raw: "topic", want: RoleTopic},
		{raw: "qualifier.synonym.name", want: RoleTestName},
		{raw: "qualifier.synonym.loinc", want: RoleLOINC},
		{raw: "qualifier.record", want: RoleRecord},
		{raw: "qualifier.variable", want: RoleVariable},
		{raw: "qualifier.grouping", want: RoleGrouping},
		{raw: "TIMING", want: RoleTiming},
		{raw: "foo.bar", want: RoleUnknown},
		{raw: " topic", want: RoleUnknown},
		{raw: "", want: RoleMissing},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := ParseRole(tt.raw)
			assert.Equal(t, tt.want, r.Kind)
			assert.Equal(t, tt.raw, r.String())
		})
	}

	assert.True(t, ParseRole("qualifier.grouping").IsGeneric())
	assert.False(t, ParseRole("timing").IsGeneric())
}
