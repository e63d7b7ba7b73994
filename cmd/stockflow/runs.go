package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/stockflow/internal/analysis"
	"github.com/san-kum/stockflow/internal/config"
	"github.com/san-kum/stockflow/internal/dynamo"
	"github.com/san-kum/stockflow/internal/experiment"
	"github.com/san-kum/stockflow/internal/export"
	"github.com/san-kum/stockflow/internal/storage"
	"github.com/san-kum/stockflow/internal/viz"
)

// loadRun opens the named run, or the latest one when args is empty.
func loadRun(args []string) (*storage.RunMetadata, *dynamo.Result, error) {
	st := storage.New(dataDir)

	runID := ""
	if len(args) > 0 {
		runID = args[0]
	} else {
		latest, err := st.Latest()
		if err != nil {
			return nil, nil, err
		}
		runID = latest
	}

	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadResult(runID)
	if err != nil {
		return nil, nil, err
	}
	if result.Len() == 0 {
		return nil, nil, fmt.Errorf("run %s: no data", runID)
	}
	return meta, result, nil
}

func selectStocks(result *dynamo.Result) []string {
	if len(stocks) > 0 {
		return stocks
	}
	return result.StockIDs()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tDT\tSTEPS\tSOURCE")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.4f\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Steps,
			run.Source,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	fmt.Printf("run: %s\n", meta.ID)
	if meta.Source != "" {
		fmt.Printf("source: %s\n", meta.Source)
	}
	fmt.Println()
	fmt.Print(viz.Summary(result))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args)
	if err != nil {
		return err
	}

	graph, err := viz.Plot(result, selectStocks(result), plotHeight, plotWidth)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", result.Len())
	fmt.Println(graph)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, result, err := loadRun(args)
	if err != nil {
		return err
	}
	if output == "" {
		return storage.WriteSeries(os.Stdout, result)
	}
	if err := storage.ExportCSVFile(output, result); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", output)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args)
	if err != nil {
		return err
	}
	if output == "" {
		return storage.ExportJSON(os.Stdout, meta.Duration, result)
	}
	if err := storage.ExportJSONFile(output, meta.Duration, result); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", output)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, result, err := loadRun(args)
	if err != nil {
		return err
	}

	svg, err := export.SeriesToSVG(result, selectStocks(result), svgWidth, svgHeight)
	if err != nil {
		return err
	}
	if output == "" {
		fmt.Println(svg)
		return nil
	}
	if err := export.WriteFile(output, svg); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", output)
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args)
	if err != nil {
		return err
	}

	portrait, err := analysis.NewPhasePortrait(result, xStock, yStock)
	if err != nil {
		return err
	}

	fmt.Printf("phase portrait: %s\n", meta.ID)
	fmt.Printf("x: %s, y: %s\n\n", xStock, yStock)
	fmt.Println(portrait.ASCII(70, 20))

	if svgFile != "" {
		if err := export.WriteFile(svgFile, export.PhaseToSVG(portrait, 600, 600, "#00ff88")); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgFile)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args)
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n", meta.ID)
	fmt.Printf("model: %s\n\n", meta.Model)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STOCK\tMEAN\tSTD\tMIN\tMAX\tSETTLED AT\tPERIOD")
	for _, id := range selectStocks(result) {
		vals, ok := result.StockValues[id]
		if !ok || len(vals) == 0 {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\n", id)
			continue
		}
		s := analysis.SummarizeSeries(id, vals)

		settled := "-"
		if t, ok := analysis.SettlingTime(result.TimeSeries, vals, settleTol); ok {
			settled = fmt.Sprintf("%.3f", t)
		}
		period := "-"
		if p, ok := analysis.DominantPeriod(vals, result.TimeStep); ok {
			period = fmt.Sprintf("%.3f", p)
		}

		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\t%s\t%s\n", id, s.Mean, s.StdDev, s.Min, s.Max, settled, period)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	ids := selectStocks(result)
	spectrum := analysis.ComputeSpectrum(result.StockValues[ids[0]], result.TimeStep)
	if spectrum == nil || len(spectrum.Power) < 3 {
		return nil
	}
	graph := asciigraph.Plot(spectrum.Power[1:],
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("amplitude spectrum (%s)", ids[0])),
	)
	fmt.Println()
	fmt.Println(graph)
	if i, ok := spectrum.Peak(); ok {
		fmt.Printf("\ndominant frequency: %.4f\n", spectrum.Freqs[i])
	}
	return nil
}

func listModels(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()

	if dumpModel == "" {
		for _, name := range registry.ListModels() {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}

	def, err := registry.GetModel(dumpModel)
	if err != nil {
		return err
	}
	overrides, err := parseParams(params)
	if err != nil {
		return err
	}
	def.Apply(overrides)

	data, err := yaml.Marshal(config.FromModel(def.Build(), config.DefaultDuration))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
