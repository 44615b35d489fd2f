package reporter

import (
	"fmt"
	"image/color"
	"math"
	"os"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var barColors = append([]color.Color{
	color.RGBA{R: 122, G: 195, B: 106, A: 255},
	color.RGBA{R: 241, G: 90, B: 96, A: 255},
	color.RGBA{R: 90, G: 155, B: 212, A: 255},
	color.RGBA{R: 250, G: 167, B: 91, A: 255},
	color.RGBA{R: 158, G: 103, B: 171, A: 255},
	color.RGBA{R: 206, G: 112, B: 88, A: 255},
	color.RGBA{R: 215, G: 127, B: 180, A: 255},
}, plotutil.DarkColors...)

func plotLabel(s Summary) string {
	return s.Method.Resolver + " " + s.Method.Name()
}

func plotHistogramLatency(file string, summaries []Summary) {
	var values plotter.Values
	for _, s := range summaries {
		values = append(values, s.Successful()...)
	}
	if len(values) == 0 {
		// nothing to plot
		return
	}
	p := plot.New()
	p.Title.Text = "Latencies distribution"

	hist, err := plotter.NewHist(values, max(numBins(values), 1))
	if err != nil {
		panic(err)
	}
	p.X.Label.Text = "Latencies (ms)"
	p.X.Tick.Marker = hplot.Ticks{N: 5, Format: "%.0f"}
	p.Y.Label.Text = "Number of probes"
	p.Y.Tick.Marker = hplot.Ticks{N: 5, Format: "%.0f"}
	hist.FillColor = color.RGBA{R: 175, G: 238, B: 238, A: 255}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, file); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save plot.", err)
	}
}

// numBins calculates number of bins for histogram.
func numBins(values plotter.Values) int {
	n := float64(len(values))

	// small dataset
	if n < 100 {
		sqrt := math.Sqrt(n)
		return int(math.Min(15, sqrt))
	}

	// medium dataset - use Rice's rule
	if n < 1000 {
		rice := 2 * math.Cbrt(n)
		return int(math.Min(30, rice))
	}

	// large dataset - use Doane's rule
	skewness := stat.Skew(values, nil)
	sigmaG := math.Sqrt(6 * (n - 2) / ((n + 1) * (n + 3)))
	doane := 1 + math.Log2(n) + math.Log2(1+math.Abs(skewness)/sigmaG)
	return int(math.Min(50, doane))
}

// plotBoxPlotLatency plots one box per resolver method with at least one successful probe.
func plotBoxPlotLatency(file string, summaries []Summary) {
	var names []string
	var boxes []*plotter.BoxPlot
	for _, s := range summaries {
		if !s.Available {
			continue
		}
		boxplot, err := plotter.NewBoxPlot(vg.Length(30), float64(len(boxes)), plotter.Values(s.Successful()))
		if err != nil {
			panic(err)
		}
		boxplot.FillColor = color.RGBA{R: 127, G: 188, B: 165, A: 255}
		boxes = append(boxes, boxplot)
		names = append(names, plotLabel(s))
	}
	if len(boxes) == 0 {
		// nothing to plot
		return
	}

	p := plot.New()
	p.Title.Text = "Latencies per resolver method"
	p.Y.Label.Text = "Latencies (ms)"
	p.Y.Tick.Marker = hplot.Ticks{N: 3, Format: "%.0f"}
	for _, b := range boxes {
		p.Add(b)
	}
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = -1

	if err := p.Save(vg.Length(max(6, len(boxes)))*vg.Inch, 6*vg.Inch, file); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save plot.", err)
	}
}

// plotAverageLatency plots a bar with average latency for every resolver method with at least one successful probe.
func plotAverageLatency(file string, summaries []Summary) {
	var names []string
	var values plotter.Values
	for _, s := range summaries {
		if !s.Available {
			continue
		}
		values = append(values, s.AvgMs)
		names = append(names, plotLabel(s))
	}
	if len(values) == 0 {
		// nothing to plot
		return
	}

	p := plot.New()
	p.Title.Text = "Average latency per resolver method"

	bar, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		panic(err)
	}
	bar.Color = barColors[2]
	p.Add(bar)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = -1

	p.Y.Label.Text = "Average latency (ms)"
	p.Y.Tick.Marker = hplot.Ticks{N: 3, Format: "%.0f"}

	if err := p.Save(vg.Length(max(6, len(values)/2))*vg.Inch, 6*vg.Inch, file); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save plot.", err)
	}
}

// plotOutcomes plots number of successful, failed and missing probes of all resolver methods.
func plotOutcomes(file string, summaries []Summary) {
	var success, failed, missing int
	for _, s := range summaries {
		success += s.Successes
		failed += s.Failures
		missing += s.Missing
	}
	outcomes := []struct {
		name  string
		count int
	}{
		{"success", success},
		{"failure", failed},
		{"missing", missing},
	}

	p := plot.New()
	p.Title.Text = "Probe outcomes"
	p.NominalX("Outcomes")

	width := vg.Points(40)

	c := 0
	off := -vg.Length(len(outcomes)/2) * width
	for i, o := range outcomes {
		if o.count == 0 {
			continue
		}
		bar, err := plotter.NewBarChart(plotter.Values{float64(o.count)}, width)
		if err != nil {
			panic(err)
		}
		p.Legend.Add(o.name, bar)
		bar.Color = barColors[i%len(barColors)]
		bar.Offset = off
		p.Add(bar)
		c++
		off += width
	}
	if c == 0 {
		// nothing to plot
		return
	}

	p.Y.Label.Text = "Number of probes"
	p.Y.Tick.Marker = hplot.Ticks{N: 3, Format: "%.0f"}
	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 6*vg.Inch, file); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to save plot.", err)
	}
}
