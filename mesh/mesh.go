package mesh

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"

	"github.com/notargets/dgflow/basis"
	"github.com/notargets/dgflow/types"
)

// FaceRef names a local face of an element
type FaceRef struct {
	Elem, Face int
}

// InteriorFace joins face L of one element to face R of its neighbor
type InteriorFace struct {
	L, R FaceRef
}

type Mesh struct {
	Shape          basis.Shape
	Dim            int
	K              int
	NVertsPerElem  int
	VX             [][]float64 // vertex coordinates, [Nv][Dim]
	EToV           [][]int     // element vertices, counterclockwise for quads
	EToE, EToF     [][]int     // neighbor element and face, -1 on a boundary
	InteriorFaces  []InteriorFace
	BoundaryGroups map[string][]FaceRef
	// Canonical vertex id used for connectivity, periodic images share one id
	vertexID []int
}

// FaceVertices returns the local vertex indices of face f
func (m *Mesh) FaceVertices(f int) []int {
	if m.Shape == basis.Quadrilateral {
		return []int{f, (f + 1) % 4}
	}
	return []int{f}
}

func (m *Mesh) NumFaces() int { return m.Shape.NumFaces() }

// BoundaryNames returns the boundary group names in sorted order
func (m *Mesh) BoundaryNames() (names []string) {
	for name := range m.BoundaryGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// ElementVertices returns the coordinates of the element's vertices
func (m *Mesh) ElementVertices(k int) (xv [][]float64) {
	xv = make([][]float64, m.NVertsPerElem)
	for i, v := range m.EToV[k] {
		xv[i] = m.VX[v]
	}
	return
}

// NewSegmentMesh builds K uniform elements on [xmin, xmax]. Boundary groups are x1 (left) and x2 (right).
func NewSegmentMesh(K int, xmin, xmax float64, periodic bool) (m *Mesh, err error) {
	if K < 1 || !(xmax > xmin) {
		return nil, types.Unsupported("segment mesh with K = %d on [%v, %v]", K, xmin, xmax)
	}
	m = &Mesh{
		Shape:         basis.Segment,
		Dim:           1,
		K:             K,
		NVertsPerElem: 2,
		VX:            make([][]float64, K+1),
		EToV:          make([][]int, K),
		vertexID:      make([]int, K+1),
	}
	dx := (xmax - xmin) / float64(K)
	for i := 0; i <= K; i++ {
		m.VX[i] = []float64{xmin + float64(i)*dx}
		m.vertexID[i] = i
	}
	m.VX[K][0] = xmax
	for k := 0; k < K; k++ {
		m.EToV[k] = []int{k, k + 1}
	}
	if periodic {
		m.vertexID[K] = 0
	}
	if err = m.connect(); err != nil {
		return nil, err
	}
	if !periodic {
		m.BoundaryGroups["x1"] = []FaceRef{{Elem: 0, Face: 0}}
		m.BoundaryGroups["x2"] = []FaceRef{{Elem: K - 1, Face: 1}}
	}
	return
}

// NewQuadMesh builds an Nx by Ny structured mesh of quadrilaterals.
// Boundary groups are x1, x2 (left, right) and y1, y2 (bottom, top).
func NewQuadMesh(Nx, Ny int, xmin, xmax, ymin, ymax float64, periodicX, periodicY bool) (m *Mesh, err error) {
	switch {
	case Nx < 1 || Ny < 1 || !(xmax > xmin) || !(ymax > ymin):
		return nil, types.Unsupported("quad mesh %dx%d on [%v, %v]x[%v, %v]", Nx, Ny, xmin, xmax, ymin, ymax)
	case (periodicX && Nx < 3) || (periodicY && Ny < 3):
		return nil, types.Unsupported("periodic quad mesh needs at least three elements per periodic direction")
	}
	var (
		Nvx = Nx + 1
		Nv  = Nvx * (Ny + 1)
		dx  = (xmax - xmin) / float64(Nx)
		dy  = (ymax - ymin) / float64(Ny)
		vid = func(i, j int) int { return j*Nvx + i }
	)
	m = &Mesh{
		Shape:         basis.Quadrilateral,
		Dim:           2,
		K:             Nx * Ny,
		NVertsPerElem: 4,
		VX:            make([][]float64, Nv),
		EToV:          make([][]int, Nx*Ny),
		vertexID:      make([]int, Nv),
	}
	for j := 0; j <= Ny; j++ {
		for i := 0; i <= Nx; i++ {
			m.VX[vid(i, j)] = []float64{xmin + float64(i)*dx, ymin + float64(j)*dy}
			ii, jj := i, j
			if periodicX && i == Nx {
				ii = 0
			}
			if periodicY && j == Ny {
				jj = 0
			}
			m.vertexID[vid(i, j)] = vid(ii, jj)
		}
	}
	for j := 0; j < Ny; j++ {
		for i := 0; i < Nx; i++ {
			m.EToV[j*Nx+i] = []int{vid(i, j), vid(i+1, j), vid(i+1, j+1), vid(i, j+1)}
		}
	}
	if err = m.connect(); err != nil {
		return nil, err
	}
	for j := 0; j < Ny && !periodicX; j++ {
		m.BoundaryGroups["x1"] = append(m.BoundaryGroups["x1"], FaceRef{Elem: j * Nx, Face: 3})
		m.BoundaryGroups["x2"] = append(m.BoundaryGroups["x2"], FaceRef{Elem: j*Nx + Nx - 1, Face: 1})
	}
	for i := 0; i < Nx && !periodicY; i++ {
		m.BoundaryGroups["y1"] = append(m.BoundaryGroups["y1"], FaceRef{Elem: i, Face: 0})
		m.BoundaryGroups["y2"] = append(m.BoundaryGroups["y2"], FaceRef{Elem: (Ny-1)*Nx + i, Face: 2})
	}
	return
}

// connect matches faces sharing all their vertices through the face to vertex incidence FToV * FToV'
func (m *Mesh) connect() (err error) {
	var (
		NFaces     = m.NumFaces()
		TotalFaces = NFaces * m.K
		Nv         = len(m.VX)
		Nvpf       = len(m.FaceVertices(0))
	)
	SpFToV_Tmp := sparse.NewDOK(TotalFaces, Nv)
	var sk int
	for k := 0; k < m.K; k++ {
		for face := 0; face < NFaces; face++ {
			for _, lv := range m.FaceVertices(face) {
				SpFToV_Tmp.Set(sk, m.vertexID[m.EToV[k][lv]], 1)
			}
			sk++
		}
	}
	SpFToF := sparse.NewCSR(TotalFaces, TotalFaces, nil, nil, nil)
	SpFToV := SpFToV_Tmp.ToCSR()
	SpFToF.Mul(SpFToV, SpFToV.T())

	m.EToE, m.EToF = make([][]int, m.K), make([][]int, m.K)
	for k := 0; k < m.K; k++ {
		m.EToE[k], m.EToF[k] = make([]int, NFaces), make([]int, NFaces)
		for f := 0; f < NFaces; f++ {
			m.EToE[k][f], m.EToF[k][f] = -1, -1
		}
	}
	SpFToF.DoNonZero(func(i, j int, v float64) {
		if i == j || int(v) != Nvpf {
			return
		}
		k1, f1 := i/NFaces, i%NFaces
		if m.EToE[k1][f1] != -1 {
			err = fmt.Errorf("face %d of element %d matches more than one neighbor: %w",
				f1, k1, types.ErrUnsupportedConfiguration)
			return
		}
		m.EToE[k1][f1], m.EToF[k1][f1] = j/NFaces, j%NFaces
	})
	if err != nil {
		return
	}
	m.BoundaryGroups = make(map[string][]FaceRef)
	for k := 0; k < m.K; k++ {
		for f := 0; f < NFaces; f++ {
			k2, f2 := m.EToE[k][f], m.EToF[k][f]
			// Each interior face is listed once, from its lower numbered side
			if k2 < 0 || k2 < k || (k2 == k && f2 < f) {
				continue
			}
			m.InteriorFaces = append(m.InteriorFaces, InteriorFace{
				L: FaceRef{Elem: k, Face: f},
				R: FaceRef{Elem: k2, Face: f2},
			})
		}
	}
	return
}
