package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// StateLabels are names of the impedance model state vector components
var StateLabels = []string{
	"x", "y", "z", "roll", "pitch", "yaw",
	"vx", "vy", "vz", "wx", "wy", "wz",
}

var palette = []color.Color{
	color.RGBA{R: 255, B: 128, A: 255},
	color.RGBA{G: 160, A: 255},
	color.RGBA{B: 255, A: 255},
	color.RGBA{R: 169, G: 169, B: 169, A: 255},
	color.RGBA{R: 255, G: 140, A: 255},
	color.RGBA{R: 128, B: 128, A: 255},
}

// NewTrajectoryPlot creates new plot of state trajectory.
// t holds sample times, states holds one state per row and cols selects the plotted state components.
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * states is nil or its row count differs from the length of t
// * cols is empty or any of cols is out of range of states columns
// * gonum plot fails to be created
func NewTrajectoryPlot(title string, t []float64, states *mat.Dense, cols ...int) (*plot.Plot, error) {
	if states == nil {
		return nil, fmt.Errorf("invalid data supplied")
	}

	rows, c := states.Dims()
	if rows != len(t) || rows < 2 {
		return nil, fmt.Errorf("invalid data dimensions: %d samples, %d times", rows, len(t))
	}

	if len(cols) == 0 {
		return nil, fmt.Errorf("no state components selected")
	}

	p := plot.New()

	p.Title.Text = title
	p.X.Label.Text = "t [s]"
	p.Y.Label.Text = "state"
	p.Legend.Top = true

	for i, col := range cols {
		if col < 0 || col >= c {
			return nil, fmt.Errorf("invalid state component: %d", col)
		}

		line, err := plotter.NewLine(makePoints(t, states, col))
		if err != nil {
			return nil, fmt.Errorf("failed to create line: %v", err)
		}
		line.LineStyle.Color = palette[i%len(palette)]
		line.LineStyle.Width = vg.Points(1)

		p.Add(line)
		p.Legend.Add(label(col), line)
	}

	return p, nil
}

func label(col int) string {
	if col < len(StateLabels) {
		return StateLabels[col]
	}

	return fmt.Sprintf("x%d", col)
}

func makePoints(t []float64, m *mat.Dense, col int) plotter.XYs {
	pts := make(plotter.XYs, len(t))
	for i := range t {
		pts[i].X = t[i]
		pts[i].Y = m.At(i, col)
	}

	return pts
}
