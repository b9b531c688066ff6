package fakecapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/golgbm/internal/capi"
)

// booster is the fake model. Every row is summarised by the mean of its
// features (m) and predictions are a linear function of m, or, for
// multiclass, a log-prior plus a squared distance to the class centroid.
type booster struct {
	objective    string
	numClass     int
	numFeature   int
	featureNames []string

	mu         float64
	b0, b1     float64
	prior      []float64
	centroid   []float64
	importance []float64

	iterations int
	finished   bool
	params     string
}

type config struct {
	objective string
	numClass  int
}

var objectiveAliases = map[string]string{
	"regression":    "regression",
	"regression_l2": "regression",
	"l2":            "regression",
	"mse":           "regression",
	"binary":        "binary",
	"multiclass":    "multiclass",
	"softmax":       "multiclass",
}

func parseParams(params string) (config, error) {
	cfg := config{objective: "regression", numClass: 1}
	for _, kv := range strings.Fields(params) {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return cfg, fmt.Errorf("Unknown parameter %s", kv)
		}
		switch k {
		case "objective", "objective_type", "app", "application":
			name, known := objectiveAliases[v]
			if !known {
				return cfg, fmt.Errorf("Unknown objective type name: %s", v)
			}
			cfg.objective = name
		case "num_class", "num_classes":
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return cfg, fmt.Errorf("Parameter num_class should be greater than zero, got %s", v)
			}
			cfg.numClass = n
		}
	}
	if cfg.objective == "multiclass" && cfg.numClass <= 1 {
		return cfg, fmt.Errorf("Number of classes should be specified and greater than 1 for multiclass training")
	}
	if cfg.objective != "multiclass" && cfg.numClass != 1 {
		return cfg, fmt.Errorf("Number of classes must be 1 for non-multiclass training")
	}
	return cfg, nil
}

func rowMean(row []float64) float64 {
	s := 0.0
	for _, v := range row {
		s += v
	}
	return s / float64(len(row))
}

func fit(ds *dataset, cfg config) (*booster, error) {
	b := &booster{
		objective:    cfg.objective,
		numClass:     cfg.numClass,
		numFeature:   ds.ncol,
		featureNames: append([]string(nil), ds.featureNames...),
		importance:   make([]float64, ds.ncol),
	}

	means := make([]float64, ds.nrow)
	for i := range means {
		means[i] = rowMean(ds.data[i*ds.ncol : (i+1)*ds.ncol])
		b.mu += means[i]
	}
	b.mu /= float64(ds.nrow)

	y := make([]float64, ds.nrow)
	for i, l := range ds.label {
		y[i] = float64(l)
		b.b0 += y[i]
	}
	b.b0 /= float64(ds.nrow)

	switch cfg.objective {
	case "binary":
		for _, v := range y {
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("Label must be in {0, 1} for binary classification, got %g", v)
			}
		}
	case "multiclass":
		b.prior = make([]float64, cfg.numClass)
		b.centroid = make([]float64, cfg.numClass)
		counts := make([]float64, cfg.numClass)
		for i, v := range y {
			k := int(v)
			if float64(k) != v || k < 0 || k >= cfg.numClass {
				return nil, fmt.Errorf("Label must be in [0, %d), but found %g in label", cfg.numClass, v)
			}
			counts[k]++
			b.centroid[k] += means[i]
		}
		for k := range counts {
			b.prior[k] = (counts[k] + 1) / (float64(ds.nrow) + float64(cfg.numClass))
			if counts[k] > 0 {
				b.centroid[k] /= counts[k]
			} else {
				b.centroid[k] = b.mu
			}
		}
	}

	var sxy, sxx float64
	for i := range means {
		sxy += (means[i] - b.mu) * (y[i] - b.b0)
		sxx += (means[i] - b.mu) * (means[i] - b.mu)
	}
	if sxx > 0 {
		b.b1 = sxy / sxx
	}

	for j := 0; j < ds.ncol; j++ {
		var xm float64
		for i := 0; i < ds.nrow; i++ {
			xm += ds.data[i*ds.ncol+j]
		}
		xm /= float64(ds.nrow)
		var cov float64
		for i := 0; i < ds.nrow; i++ {
			cov += (ds.data[i*ds.ncol+j] - xm) * (y[i] - b.b0)
		}
		b.importance[j] = 1 + math.Abs(cov)/float64(ds.nrow)
	}
	return b, nil
}

// width is the number of values predicted per row.
func (b *booster) width(predictType int) int {
	switch predictType {
	case capi.PredictLeafIndex:
		return b.numClass * max(b.iterations, 1)
	case capi.PredictContrib:
		return b.numClass * (b.numFeature + 1)
	default:
		return b.numClass
	}
}

func (b *booster) raw(m float64) []float64 {
	switch b.objective {
	case "binary":
		return []float64{8 * (b.b0 + b.b1*(m-b.mu) - 0.5)}
	case "multiclass":
		out := make([]float64, b.numClass)
		for k := range out {
			d := m - b.centroid[k]
			out[k] = math.Log(b.prior[k]) - d*d
		}
		return out
	default:
		return []float64{b.b0 + b.b1*(m-b.mu)}
	}
}

func (b *booster) transform(raw []float64) []float64 {
	switch b.objective {
	case "binary":
		return []float64{1 / (1 + math.Exp(-raw[0]))}
	case "multiclass":
		peak := raw[0]
		for _, v := range raw[1:] {
			peak = math.Max(peak, v)
		}
		out := make([]float64, len(raw))
		sum := 0.0
		for k, v := range raw {
			out[k] = math.Exp(v - peak)
			sum += out[k]
		}
		for k := range out {
			out[k] /= sum
		}
		return out
	default:
		return raw
	}
}

func (b *booster) predictRow(row []float64, predictType int, out []float64) {
	m := rowMean(row)
	switch predictType {
	case capi.PredictRawScore:
		copy(out, b.raw(m))
	case capi.PredictLeafIndex:
		leaf := 0.0
		if m >= b.mu {
			leaf = 1
		}
		for i := range out {
			out[i] = leaf
		}
	case capi.PredictContrib:
		raw := b.raw(m)
		stride := b.numFeature + 1
		for k := 0; k < b.numClass; k++ {
			block := out[k*stride : (k+1)*stride]
			if b.objective == "multiclass" {
				for j := range block {
					block[j] = 0
				}
				block[b.numFeature] = raw[k]
				continue
			}
			scale := 1.0
			bias := b.b0
			if b.objective == "binary" {
				scale = 8
				bias = 8 * (b.b0 - 0.5)
			}
			for j, x := range row {
				block[j] = scale * b.b1 * (x - b.mu) / float64(b.numFeature)
			}
			block[b.numFeature] = bias
		}
	default:
		copy(out, b.transform(b.raw(m)))
	}
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (b *booster) modelString() string {
	var sb strings.Builder
	sb.WriteString("tree\n")
	sb.WriteString("version=v3\n")
	fmt.Fprintf(&sb, "num_class=%d\n", b.numClass)
	fmt.Fprintf(&sb, "num_tree_per_iteration=%d\n", b.numClass)
	fmt.Fprintf(&sb, "max_feature_idx=%d\n", b.numFeature-1)
	fmt.Fprintf(&sb, "objective=%s\n", b.objective)
	fmt.Fprintf(&sb, "feature_names=%s\n", strings.Join(b.featureNames, " "))
	fmt.Fprintf(&sb, "iterations=%d\n", b.iterations)
	fmt.Fprintf(&sb, "mu=%s\n", formatFloats([]float64{b.mu}))
	fmt.Fprintf(&sb, "coef=%s\n", formatFloats([]float64{b.b0, b.b1}))
	if b.objective == "multiclass" {
		fmt.Fprintf(&sb, "prior=%s\n", formatFloats(b.prior))
		fmt.Fprintf(&sb, "centroid=%s\n", formatFloats(b.centroid))
	}
	fmt.Fprintf(&sb, "importance=%s\n", formatFloats(b.importance))
	sb.WriteString("\nend of trees\n")
	sb.WriteString("\nparameters:\n")
	for _, kv := range strings.Fields(b.params) {
		k, v, _ := strings.Cut(kv, "=")
		fmt.Fprintf(&sb, "[%s: %s]\n", k, v)
	}
	sb.WriteString("end of parameters\n")
	return sb.String()
}

func parseModel(text string) (*booster, error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "tree" {
		return nil, fmt.Errorf("Model format error, expect a tree here")
	}

	fields := make(map[string]string)
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "end of trees" {
			break
		}
		if k, v, ok := strings.Cut(line, "="); ok {
			fields[k] = v
		}
	}

	b := &booster{objective: fields["objective"]}
	var err error
	intField := func(key string) int {
		if err != nil {
			return 0
		}
		var n int
		n, err = strconv.Atoi(fields[key])
		if err != nil {
			err = fmt.Errorf("Model file doesn't specify %s", key)
		}
		return n
	}
	b.numClass = intField("num_class")
	b.numFeature = intField("max_feature_idx") + 1
	b.iterations = intField("iterations")
	if err != nil {
		return nil, err
	}
	if _, known := objectiveAliases[b.objective]; !known {
		return nil, fmt.Errorf("Unknown objective type name: %s", b.objective)
	}

	b.featureNames = strings.Fields(fields["feature_names"])
	if len(b.featureNames) != b.numFeature {
		return nil, fmt.Errorf("Wrong size of feature_names")
	}

	floats := func(key string, n int) []float64 {
		if err != nil {
			return nil
		}
		var values []float64
		values, err = parseFloats(fields[key])
		if err == nil && len(values) != n {
			err = fmt.Errorf("Wrong size of %s", key)
		}
		return values
	}
	mu := floats("mu", 1)
	coef := floats("coef", 2)
	b.importance = floats("importance", b.numFeature)
	if b.objective == "multiclass" {
		b.prior = floats("prior", b.numClass)
		b.centroid = floats("centroid", b.numClass)
	}
	if err != nil {
		return nil, err
	}
	b.mu = mu[0]
	b.b0, b.b1 = coef[0], coef[1]
	return b, nil
}

type dumpedModel struct {
	Name                string     `json:"name"`
	Version             string     `json:"version"`
	NumClass            int        `json:"num_class"`
	NumTreePerIteration int        `json:"num_tree_per_iteration"`
	MaxFeatureIdx       int        `json:"max_feature_idx"`
	Objective           string     `json:"objective"`
	FeatureNames        []string   `json:"feature_names"`
	TreeInfo            []treeInfo `json:"tree_info"`
}

type treeInfo struct {
	TreeIndex int `json:"tree_index"`
	NumLeaves int `json:"num_leaves"`
}

func (b *booster) dumpJSON() string {
	d := dumpedModel{
		Name:                "tree",
		Version:             "v3",
		NumClass:            b.numClass,
		NumTreePerIteration: b.numClass,
		MaxFeatureIdx:       b.numFeature - 1,
		Objective:           b.objective,
		FeatureNames:        b.featureNames,
		TreeInfo:            []treeInfo{},
	}
	for i := 0; i < b.iterations*b.numClass; i++ {
		d.TreeInfo = append(d.TreeInfo, treeInfo{TreeIndex: i, NumLeaves: 2})
	}
	raw, _ := json.Marshal(d)
	return string(raw)
}
