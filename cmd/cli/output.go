package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gostudy/app"
	"gostudy/internal/errors"
)

func validateFormat(f string) error {
	switch f {
	case "text", "json", "yaml":
		return nil
	}
	return errors.InvalidInput(fmt.Sprintf("unknown format %q (use text, json or yaml)", f))
}

// render writes v as json or yaml, or calls text for the text format
func render(v interface{}, text func()) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	text()
	return nil
}

// nullable maps NaN to nil; encoding/json rejects NaN
func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func nullables(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = nullable(v)
	}
	return out
}

type rarefiedOutput struct {
	Depth     int      `json:"depth" yaml:"depth"`
	Iteration int      `json:"iteration" yaml:"iteration"`
	SampleIDs []string `json:"sample_ids" yaml:"sample_ids"`
}

type seriesResult struct {
	RunID  string           `json:"run_id" yaml:"run_id"`
	Tables []rarefiedOutput `json:"tables" yaml:"tables"`
}

func seriesOutput(res *app.RarefyResult) seriesResult {
	out := seriesResult{RunID: res.RunID.String()}
	for _, r := range res.Series {
		out.Tables = append(out.Tables, rarefiedOutput{Depth: r.Depth, Iteration: r.Iteration, SampleIDs: r.Table.SampleIDs()})
	}
	return out
}

type statOutput struct {
	Mean *float64 `json:"mean" yaml:"mean"`
	SE   *float64 `json:"se" yaml:"se"`
}

type comparisonResult struct {
	RunID   string                `json:"run_id" yaml:"run_id"`
	Groups  []string              `json:"groups" yaml:"groups"`
	Within  map[string]statOutput `json:"within" yaml:"within"`
	Between map[string]statOutput `json:"between" yaml:"between"`
	ToAll   map[string]statOutput `json:"to_all" yaml:"to_all"`
}

func comparisonOutput(res *app.CompareResult) comparisonResult {
	s := res.Statistics
	out := comparisonResult{
		RunID:   res.RunID.String(),
		Groups:  s.Groups,
		Within:  make(map[string]statOutput),
		Between: make(map[string]statOutput),
		ToAll:   make(map[string]statOutput),
	}
	for i, g := range s.Groups {
		w, all := s.Within(i), s.ToAllStat(i)
		out.Within[g] = statOutput{Mean: nullable(w.Mean), SE: nullable(w.SE)}
		out.ToAll[g] = statOutput{Mean: nullable(all.Mean), SE: nullable(all.SE)}
		for j := i + 1; j < len(s.Groups); j++ {
			b := s.Between(i, j)
			out.Between[g+"|"+s.Groups[j]] = statOutput{Mean: nullable(b.Mean), SE: nullable(b.SE)}
		}
	}
	return out
}

type alphaRowOutput struct {
	Label  string     `json:"label" yaml:"label"`
	Values []*float64 `json:"values" yaml:"values"`
}

type alphaMeanOutput struct {
	Depth  int        `json:"depth" yaml:"depth"`
	Values []*float64 `json:"values" yaml:"values"`
}

type alphaMetricOutput struct {
	SampleIDs []string          `json:"sample_ids" yaml:"sample_ids"`
	Rows      []alphaRowOutput  `json:"rows" yaml:"rows"`
	Means     []alphaMeanOutput `json:"means" yaml:"means"`
}

type alphaResult struct {
	RunID   string                       `json:"run_id" yaml:"run_id"`
	Metrics map[string]alphaMetricOutput `json:"metrics" yaml:"metrics"`
}

func alphaOutput(res *app.AlphaResult) alphaResult {
	out := alphaResult{RunID: res.RunID.String(), Metrics: make(map[string]alphaMetricOutput)}
	for name, c := range res.Collations {
		m := alphaMetricOutput{SampleIDs: c.SampleIDs}
		for _, r := range c.Rows {
			m.Rows = append(m.Rows, alphaRowOutput{Label: r.Label, Values: nullables(r.Values)})
		}
		for _, d := range c.Means {
			m.Means = append(m.Means, alphaMeanOutput{Depth: d.Depth, Values: nullables(d.Values)})
		}
		out.Metrics[name] = m
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 6, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatFloatsTab(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strings.Join(parts, "\t")
}
