package driver

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/notargets/dgflow/InputParameters"
	"github.com/notargets/dgflow/types"
)

// ConvergenceStudy holds the L2 error of each state over a sequence of mesh refinements
type ConvergenceStudy struct {
	Title      string
	Order      int
	CFL        float64
	StateNames []string
	NumElems   []int
	L2         [][]float64 // [refinement][state]
}

func NewConvergenceStudy(title string, order int, CFL float64, names []string) *ConvergenceStudy {
	return &ConvergenceStudy{
		Title:      title,
		Order:      order,
		CFL:        CFL,
		StateNames: names,
	}
}

func (cs *ConvergenceStudy) Add(numElems int, l2 []float64) {
	cs.NumElems = append(cs.NumElems, numElems)
	cs.L2 = append(cs.L2, append([]float64(nil), l2...))
}

// Orders returns the observed order of accuracy of each state between refinement i-1 and i.
// The first row is NaN.
func (cs *ConvergenceStudy) Orders() (orders [][]float64) {
	orders = make([][]float64, len(cs.L2))
	for i := range cs.L2 {
		orders[i] = make([]float64, len(cs.StateNames))
		for n := range orders[i] {
			if i == 0 {
				orders[i][n] = math.NaN()
				continue
			}
			ratio := float64(cs.NumElems[i]) / float64(cs.NumElems[i-1])
			orders[i][n] = math.Log(cs.L2[i-1][n]/cs.L2[i][n]) / math.Log(ratio)
		}
	}
	return
}

// WriteCSV writes one row per refinement: title, elements, order, CFL, then the
// error and observed order of each state
func (cs *ConvergenceStudy) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"Title", "NumElems", "Order", "CFL"}
	for _, name := range cs.StateNames {
		header = append(header, "L2("+name+")", "Rate("+name+")")
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	orders := cs.Orders()
	for i, K := range cs.NumElems {
		rec := []string{cs.Title, strconv.Itoa(K), strconv.Itoa(cs.Order), strconv.FormatFloat(cs.CFL, 'g', -1, 64)}
		for n := range cs.StateNames {
			rec = append(rec,
				strconv.FormatFloat(cs.L2[i][n], 'e', 6, 64),
				strconv.FormatFloat(orders[i][n], 'f', 2, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Convergence runs the case of ip at each element count in numElems, refining in every
// mesh direction, and records the error against its exact solution
func Convergence(ctx context.Context, ip *InputParameters.InputParameters, numElems []int) (cs *ConvergenceStudy, err error) {
	if ip.ExactSolution == nil {
		return nil, types.Unsupported("convergence study without an ExactSolution")
	}
	for i, K := range numElems {
		var (
			run = *ip
			c   *Case
			l2  []float64
		)
		run.Mesh.NumElemsX = K
		if ip.Physics.Dim == 2 {
			run.Mesh.NumElemsY = K
		}
		// Refinements are independent runs
		run.Output.WriteInterval, run.Output.Restart = 0, false
		if c, err = Build(&run); err != nil {
			return nil, fmt.Errorf("%d elements: %w", K, err)
		}
		if err = c.Run(ctx); err != nil {
			return nil, fmt.Errorf("%d elements: %w", K, err)
		}
		if l2, err = c.Errors(ctx); err != nil {
			return
		}
		if i == 0 {
			cs = NewConvergenceStudy(ip.Title, ip.Numerics.SolutionOrder, ip.TimeStepping.CFL,
				c.Solver.DG.Physics.StateNames())
		}
		cs.Add(K, l2)
	}
	return
}
