package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"15-08-2024", "2024-08-15", true},
		{"5-8-2024", "2024-08-05", true},
		{"15/08/2024", "2024-08-15", true},
		{"2024-08-15", "2024-08-15", true},
		{"2024-8-5", "2024-08-05", true},
		{" 01-06-2025 ", "2025-06-01", true},
		{"Aug 15, 2024", "2024-08-15", true},
		{"15 August 2024", "2024-08-15", true},
		{"2024/08/15", "2024-08-15", true},
		{"2024-08-15T10:00:00Z", "2024-08-15", true},
		{"31-02-2024", "", false},
		{"29-02-2023", "", false},
		{"29-02-2024", "2024-02-29", true},
		{"2024-13-01", "", false},
		{"tomorrow", "", false},
		{"not-a-date", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeDate(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalizeDateRoundTrip(t *testing.T) {
	for _, in := range []string{"01-01-2024", "31/12/2025", "2024-02-29", "7-3-2026"} {
		first, ok := NormalizeDate(in)
		require.True(t, ok, in)
		second, ok := NormalizeDate(first)
		require.True(t, ok, first)
		assert.Equal(t, first, second)
	}
}

func TestNormalizeTime(t *testing.T) {
	got, ok := NormalizeTime("9:00")
	require.True(t, ok)
	assert.Equal(t, "09:00:00", got)

	got, ok = NormalizeTime("13:30:15")
	require.True(t, ok)
	assert.Equal(t, "13:30:15", got)

	_, ok = NormalizeTime("25:00")
	assert.False(t, ok)
	_, ok = NormalizeTime("noon")
	assert.False(t, ok)
}

func TestNormalizeByKind(t *testing.T) {
	v, err := Normalize(Field{Name: "capacity", Aliases: []string{"Capacity"}, Kind: KindInt}, strPtr(" 50 "))
	require.NoError(t, err)
	assert.Equal(t, 50, v)

	_, err = Normalize(Field{Name: "capacity", Aliases: []string{"Capacity"}, Kind: KindInt}, strPtr("50 seats"))
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Invalid capacity '50 seats'. Expected a whole number", fe.Error())

	v, err = Normalize(Field{Name: "equipment", Kind: KindList}, strPtr("Projector; Whiteboard;;AC "))
	require.NoError(t, err)
	assert.Equal(t, []string{"Projector", "Whiteboard", "AC"}, v)

	v, err = Normalize(Field{Name: "is_active", Kind: KindBool}, strPtr("TRUE"))
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = Normalize(Field{Name: "status", Aliases: []string{"Status"}, Enum: []string{"enrolled", "dropped"}}, strPtr("Enrolled"))
	require.NoError(t, err)
	assert.Equal(t, "enrolled", v)

	_, err = Normalize(Field{Name: "status", Aliases: []string{"Status"}, Enum: []string{"enrolled", "dropped"}}, strPtr("pending"))
	require.Error(t, err)

	v, err = Normalize(Field{Name: "description"}, strPtr("   "))
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Normalize(Field{Name: "description"}, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestNormalizeDateMessage(t *testing.T) {
	field := Field{Name: "start_date", Aliases: []string{"Start Date", "start_date"}, Kind: KindDate}
	_, err := Normalize(field, strPtr("2024/31/31"))
	require.Error(t, err)
	assert.Equal(t, "Invalid start date format '2024/31/31'. Use DD-MM-YYYY, DD/MM/YYYY, or YYYY-MM-DD", err.Error())
}
