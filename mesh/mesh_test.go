package mesh

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/dgflow/types"
)

func TestSegmentMesh(t *testing.T) {
	m, err := NewSegmentMesh(4, 0, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 3, len(m.InteriorFaces))
	assert.Equal(t, []int{-1, 1}, m.EToE[0])
	assert.Equal(t, []int{-1, 0}, m.EToF[0])
	assert.Equal(t, []int{2, -1}, m.EToE[3])
	assert.Equal(t, []FaceRef{{Elem: 0, Face: 0}}, m.BoundaryGroups["x1"])
	assert.Equal(t, []FaceRef{{Elem: 3, Face: 1}}, m.BoundaryGroups["x2"])
	assert.Equal(t, []string{"x1", "x2"}, m.BoundaryNames())
	assert.InDelta(t, 0.25, m.VX[1][0], 1e-15)
	for _, f := range m.InteriorFaces {
		assert.Equal(t, f.L.Elem+1, f.R.Elem)
		assert.Equal(t, 1, f.L.Face)
		assert.Equal(t, 0, f.R.Face)
	}

	m, err = NewSegmentMesh(4, 0, 1, true)
	require.NoError(t, err)
	assert.Equal(t, 4, len(m.InteriorFaces))
	assert.Empty(t, m.BoundaryGroups)
	assert.Equal(t, 3, m.EToE[0][0])
	assert.Equal(t, 1, m.EToF[0][0])
	assert.Equal(t, 0, m.EToE[3][1])

	// A single periodic element is its own neighbor
	m, err = NewSegmentMesh(1, 0, 1, true)
	require.NoError(t, err)
	assert.Equal(t, []InteriorFace{{L: FaceRef{0, 0}, R: FaceRef{0, 1}}}, m.InteriorFaces)

	_, err = NewSegmentMesh(0, 0, 1, false)
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
}

func TestQuadMesh(t *testing.T) {
	m, err := NewQuadMesh(3, 2, 0, 3, 0, 1, false, false)
	require.NoError(t, err)
	assert.Equal(t, 6, m.K)
	// 2 rows x 2 vertical interior faces + 3 horizontal interior faces
	assert.Equal(t, 7, len(m.InteriorFaces))
	assert.Equal(t, 2, len(m.BoundaryGroups["x1"]))
	assert.Equal(t, 3, len(m.BoundaryGroups["y2"]))
	assert.Equal(t, []string{"x1", "x2", "y1", "y2"}, m.BoundaryNames())
	// Element 1 (i=1, j=0): right neighbor 2 via its left face, top neighbor 4 via its bottom face
	assert.Equal(t, []int{-1, 2, 4, 0}, m.EToE[1])
	assert.Equal(t, []int{-1, 3, 0, 1}, m.EToF[1])
	assert.Equal(t, [][]float64{{1, 0}, {2, 0}, {2, 0.5}, {1, 0.5}}, m.ElementVertices(1))

	m, err = NewQuadMesh(3, 3, 0, 1, 0, 1, true, true)
	require.NoError(t, err)
	assert.Empty(t, m.BoundaryGroups)
	assert.Equal(t, 2*m.K, len(m.InteriorFaces))
	for k := 0; k < m.K; k++ {
		for f := 0; f < 4; f++ {
			k2, f2 := m.EToE[k][f], m.EToF[k][f]
			require.GreaterOrEqual(t, k2, 0)
			assert.Equal(t, (f+2)%4, f2)
			assert.Equal(t, k, m.EToE[k2][f2])
		}
	}

	m, err = NewQuadMesh(3, 2, 0, 1, 0, 1, true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"y1", "y2"}, m.BoundaryNames())
	assert.Equal(t, 2, m.EToE[0][3])

	_, err = NewQuadMesh(2, 3, 0, 1, 0, 1, true, false)
	assert.True(t, errors.Is(err, types.ErrUnsupportedConfiguration))
}
