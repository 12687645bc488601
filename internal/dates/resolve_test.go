package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolve(t *testing.T) {
	now := time.Date(2024, time.March, 15, 13, 45, 12, 0, time.UTC)

	tests := []struct {
		name    string
		text    string
		want    time.Time
		wantErr bool
	}{
		{name: "relative age", text: "3d", want: date(2024, time.March, 12)},
		{name: "relative age zero", text: "0d", want: date(2024, time.March, 15)},
		{name: "absolute padded", text: "03/01/2024", want: date(2024, time.March, 1)},
		{name: "absolute unpadded", text: "3/1/2024", want: date(2024, time.March, 1)},
		{name: "month day past", text: "Mar 05", want: date(2024, time.March, 5)},
		{name: "month day today", text: "Mar 15", want: date(2024, time.March, 15)},
		{name: "month day future rolls back a year", text: "Nov 20", want: date(2023, time.November, 20)},
		{name: "full month name", text: "January 3", want: date(2024, time.January, 3)},
		{name: "sept abbreviation", text: "Sept 9", want: date(2023, time.September, 9)},
		{name: "empty", text: "", wantErr: true},
		{name: "garbage", text: "yesterday-ish", wantErr: true},
		{name: "unknown month", text: "Foo 12", wantErr: true},
		{name: "age with suffix noise", text: "3 days", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.text, now)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnparseable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAbsoluteIgnoresReferenceNow(t *testing.T) {
	// An absolute MM/DD/YYYY must round-trip to the same calendar date
	// no matter what the clock says.
	refs := []time.Time{
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 30, 23, 59, 59, 0, time.UTC),
		time.Date(2031, time.December, 31, 12, 0, 0, 0, time.UTC),
	}
	for _, ref := range refs {
		got, err := Resolve("7/04/2022", ref)
		require.NoError(t, err)
		assert.Equal(t, date(2022, time.July, 4), got)
	}
}

func TestResolveTruncatesToDay(t *testing.T) {
	now := time.Date(2024, time.March, 15, 23, 59, 59, 999, time.UTC)
	got, err := Resolve("1d", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.March, 14), got)
	assert.Zero(t, got.Hour())
}

func TestDay(t *testing.T) {
	in := time.Date(2024, time.March, 15, 18, 30, 0, 0, time.FixedZone("X", 3*3600))
	assert.Equal(t, date(2024, time.March, 15), Day(in))
}
