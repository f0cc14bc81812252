// Copyright ©2023 Evolution. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Bitrate plot generation.

package analysis

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	defaultPlotWidth  = vg.Centimeter * 24
	defaultPlotHeight = vg.Centimeter * 9
)

var (
	totalColor  = color.RGBA{R: 143, G: 35, B: 43, A: 255}
	totalFill   = color.RGBA{R: 230, G: 57, B: 70, A: 255}
	iFrameColor = color.RGBA{R: 50, G: 110, B: 30, A: 255}
	pFrameColor = color.RGBA{R: 51, G: 45, B: 163, A: 255}
	markerColor = color.RGBA{R: 156, G: 67, B: 162, A: 255}
)

// CreateBitratePlot creates a bitrate-over-time plot from given FrameStat
// slice. Frame sizes are aggregated into 1 second buckets, key-frames and
// the rest get their own lines next to the total.
func CreateBitratePlot(frameStats []FrameStat) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "Time (seconds)"
	p.Y.Label.Text = "Kbps"

	if len(frameStats) == 0 {
		return p, errors.New("CreateBitratePlot() no frame stats to plot")
	}
	videoDuration := streamDuration(frameStats)
	if videoDuration <= 0 {
		return p, errors.New("CreateBitratePlot() unexpected video duration")
	}

	// Bucket count should be same as video duration in seconds.
	bSize := uint64(math.Floor(videoDuration)) + 1
	allBuckets := make([]float64, bSize)
	iFrameBuckets := make([]float64, bSize)
	pFrameBuckets := make([]float64, bSize)

	// Use normalized time e.g. deal with negative PTS. Packets come in
	// decode order, with B-frames the first packet is not the earliest one.
	minPts := frameStats[0].PtsTime
	for _, f := range frameStats {
		if f.PtsTime < minPts {
			minPts = f.PtsTime
		}
	}
	for _, f := range frameStats {
		curSecond := uint64(math.Floor(f.PtsTime - minPts))
		// Convert frame size to Kbits.
		s := float64(f.Size*8) / 1000
		allBuckets[curSecond] += s
		if f.KeyFrame {
			iFrameBuckets[curSecond] += s
		} else {
			pFrameBuckets[curSecond] += s
		}
	}

	allLine, err := plotter.NewLine(bucketXYs(allBuckets))
	if err != nil {
		return p, fmt.Errorf("CreateBitratePlot() creating total Line: %w", err)
	}
	allLine.Color = totalColor
	allLine.StepStyle = plotter.PostStep
	allLine.FillColor = totalFill

	iLine, err := plotter.NewLine(bucketXYs(iFrameBuckets))
	if err != nil {
		return p, fmt.Errorf("CreateBitratePlot() creating I-frame Line: %w", err)
	}
	iLine.Color = iFrameColor
	iLine.StepStyle = plotter.PostStep

	pLine, err := plotter.NewLine(bucketXYs(pFrameBuckets))
	if err != nil {
		return p, fmt.Errorf("CreateBitratePlot() creating P-frame Line: %w", err)
	}
	pLine.Color = pFrameColor
	pLine.StepStyle = plotter.PostStep

	// Mean and max/peak bitrate value as horizontal marker lines.
	mean := stat.Mean(allBuckets, nil)
	max := floats.Max(allBuckets)
	meanLine, meanLabel := horizontalLineWithLabel(mean, 0, float64(bSize), fmt.Sprintf("mean=%.2f", mean))
	maxLine, maxLabel := horizontalLineWithLabel(max, 0, float64(bSize), fmt.Sprintf("max=%.2f", max))

	p.Y.Min = 0
	p.Y.Max = max * 1.1
	// Ticks with period of 10 seconds.
	p.X.Tick.Marker = plot.TickerFunc(func(min, max float64) []plot.Tick {
		var t []plot.Tick
		for x := min; x <= max; x += 10 {
			t = append(t, plot.Tick{
				Value: x,
				Label: fmt.Sprintf("%.1f", x),
			})
		}
		return t
	})

	p.Add(allLine, iLine, pLine, meanLine, meanLabel, maxLine, maxLabel, plotter.NewGrid())

	p.Legend.Add("Total", allLine)
	p.Legend.Add("I-frame", iLine)
	p.Legend.Add("P-frame", pLine)
	p.Legend.Top = true
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p, nil
}

// PlotBitrate collects frame stats for videoFile and saves the bitrate
// plot as a PNG image at plotFile.
func PlotBitrate(videoFile, plotFile, ffprobePath string) error {
	if _, err := os.Stat(videoFile); os.IsNotExist(err) {
		return fmt.Errorf("PlotBitrate() video file should exist: %w", err)
	}

	fs, err := GetFrameStats(videoFile, ffprobePath)
	if err != nil {
		return fmt.Errorf("PlotBitrate() failed getting FrameStats: %w", err)
	}

	p, err := CreateBitratePlot(fs)
	if err != nil {
		return fmt.Errorf("PlotBitrate() error creating bitrate plot: %w", err)
	}
	p.Title.Text = path.Base(videoFile) + "\n\nBitrate"

	img := vgimg.New(defaultPlotWidth, defaultPlotHeight)
	p.Draw(draw.New(img))

	w, err := os.Create(plotFile)
	if err != nil {
		return fmt.Errorf("PlotBitrate() error from os.Create(): %w", err)
	}
	defer w.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("PlotBitrate() failed writing png file: %w", err)
	}

	return nil
}

// bucketXYs maps per-second buckets to plottable XY points.
func bucketXYs(buckets []float64) plotter.XYs {
	xys := make(plotter.XYs, len(buckets))
	for i, v := range buckets {
		xys[i].X = float64(i)
		xys[i].Y = v
	}
	return xys
}

// horizontalLineWithLabel creates a horizontal marker line with a label at
// its left end.
func horizontalLineWithLabel(y, xMin, xMax float64, label string) (*plotter.Line, *plotter.Labels) {
	hLine, err := plotter.NewLine(plotter.XYs{
		{X: xMin, Y: y},
		{X: xMax, Y: y},
	})
	// Unlikely to have error here - so just panic in that case.
	if err != nil {
		panic(err)
	}
	hLine.Color = markerColor
	hLabel, _ := plotter.NewLabels(plotter.XYLabels{
		XYs: plotter.XYs{
			{X: 0, Y: y},
		},
		Labels: []string{
			label,
		},
	})
	hLabel.Offset.X = 5
	hLabel.Offset.Y = 5

	return hLine, hLabel
}
