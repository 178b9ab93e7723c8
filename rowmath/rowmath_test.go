package rowmath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkipCount(t *testing.T) {
	require.Equal(t, 1, SkipCount(1))
	require.Equal(t, 2, SkipCount(2))
	require.Equal(t, 1, SkipCount(3))
	require.Equal(t, 3, SkipCount(4))
	require.Equal(t, 1, SkipCount(5))
	require.Equal(t, 5, SkipCount(16))
}

func TestCellNumberMatchesDefinition(t *testing.T) {
	// brute-force the spec's own sum formula and compare to the closed form.
	var brute uint64
	for n := uint64(1); n <= 64; n++ {
		require.EqualValues(t, brute, CellNumber(n), "row %d", n)
		brute += uint64(SkipCount(n))
	}
}

func TestMaxRows(t *testing.T) {
	for n := uint64(1); n <= 64; n++ {
		cells := CellNumber(n + 1)
		require.EqualValues(t, n, MaxRows(cells))
		require.EqualValues(t, n, MaxRows(cells+0))
	}
	require.EqualValues(t, 0, MaxRows(0))
}

func TestRowsLinked(t *testing.T) {
	require.True(t, RowsLinked(0, 1))
	require.True(t, RowsLinked(3, 4))
	require.True(t, RowsLinked(2, 4))
	require.True(t, RowsLinked(0, 4))
	require.True(t, RowsLinked(8, 16))
	require.True(t, RowsLinked(12, 16))
	require.False(t, RowsLinked(1, 4)) // 3 is not a power of two
	require.False(t, RowsLinked(5, 4))
	require.False(t, RowsLinked(4, 4))
	require.True(t, RowsLinked(0, 8)) // skipCount(8)=4, 2^(4-1)=8, 8-0<=8
}

func TestSkipPathNumbersShortestAscending(t *testing.T) {
	path := SkipPathNumbers(1, 16)
	require.Equal(t, []uint64{1, 2, 4, 8, 16}, path)

	path = SkipPathNumbers(11, 52)
	require.Equal(t, uint64(11), path[0])
	require.Equal(t, uint64(52), path[len(path)-1])
	for i := 1; i < len(path); i++ {
		require.True(t, RowsLinked(path[i-1], path[i]))
	}
}

func TestSkipPathNumbersSingleton(t *testing.T) {
	require.Equal(t, []uint64{7}, SkipPathNumbers(7, 7))
}

func TestStitchIdempotent(t *testing.T) {
	once := Stitch([]uint64{1, 16})
	twice := Stitch(once)
	require.Equal(t, once, twice)
}

func TestStitchInsertsIntermediates(t *testing.T) {
	stitched := Stitch([]uint64{1, 52})
	require.Equal(t, uint64(1), stitched[0])
	require.Equal(t, uint64(52), stitched[len(stitched)-1])
	for i := 1; i < len(stitched); i++ {
		require.True(t, RowsLinked(stitched[i-1], stitched[i]))
	}
}

func TestCoverageBound(t *testing.T) {
	rowNos := []uint64{1, 16, 52}
	cov := Coverage(rowNos)
	// property 3: |coverage(xs)| <= |xs| * (1 + ceil(log2(max xs)))
	maxN := uint64(52)
	bound := 0
	for 1<<uint(bound) < int(maxN) {
		bound++
	}
	require.LessOrEqual(t, len(cov), len(rowNos)*(1+bound))
}

func TestRefOnlyCoverageExcludesInputAndSentinel(t *testing.T) {
	refOnly := RefOnlyCoverage([]uint64{1, 2, 4})
	for n := range refOnly {
		require.NotEqual(t, uint64(0), n)
	}
	require.NotContains(t, refOnly, uint64(1))
	require.NotContains(t, refOnly, uint64(2))
	require.NotContains(t, refOnly, uint64(4))
}
