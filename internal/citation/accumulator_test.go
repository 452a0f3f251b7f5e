package citation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccumulator_EmptyIsNotNil(t *testing.T) {
	var acc Accumulator
	require.NotNil(t, acc.Spans())
	require.Empty(t, acc.Spans())
}

func TestAccumulator_OrderedInputKeptAsIs(t *testing.T) {
	var acc Accumulator
	acc.Add(Span{Start: 0, End: 2, Kind: KindCitationKey, Key: "@a"})
	acc.Add(Span{Start: 2, End: 3, Kind: KindFormatting})
	acc.Add(Span{Start: 10, End: 12, Kind: KindCitationKey, Key: "@b"})

	require.Equal(t, 3, acc.Len())
	require.Equal(t, []Span{
		{Start: 0, End: 2, Kind: KindCitationKey, Key: "@a"},
		{Start: 2, End: 3, Kind: KindFormatting},
		{Start: 10, End: 12, Kind: KindCitationKey, Key: "@b"},
	}, acc.Spans())
}

func TestAccumulator_IgnoresEmptySpans(t *testing.T) {
	var acc Accumulator
	acc.Add(Span{Start: 4, End: 4})
	acc.Add(Span{Start: 5, End: 3})
	require.Equal(t, 0, acc.Len())
}

func TestAccumulator_SortsAndDeduplicates(t *testing.T) {
	var acc Accumulator
	acc.AddAll([]Span{
		{Start: 10, End: 12, Kind: KindCitationKey, Key: "@b"},
		{Start: 0, End: 2, Kind: KindCitationKey, Key: "@a"},
		{Start: 10, End: 12, Kind: KindCitationKey, Key: "@b"},
		{Start: 11, End: 14, Kind: KindExtra},
		{Start: 20, End: 22, Kind: KindFormatting},
	})

	require.Equal(t, []Span{
		{Start: 0, End: 2, Kind: KindCitationKey, Key: "@a"},
		{Start: 10, End: 12, Kind: KindCitationKey, Key: "@b"},
		{Start: 20, End: 22, Kind: KindFormatting},
	}, acc.Spans())
}
