package clusters

import "image"

// Options bundles the configuration of every pipeline stage.
type Options struct {
	Classifier     ClassifierConfig
	Connectivity   Connectivity
	MinClusterArea int
	Order          OrderConfig
}

// DefaultOptions returns the pipeline defaults: contrast classification,
// 8-connectivity, no area filtering, any-overlap line grouping, rtl default.
func DefaultOptions() Options {
	return Options{
		Classifier:     DefaultClassifierConfig(),
		Connectivity:   Connectivity8,
		MinClusterArea: 1,
		Order:          DefaultOrderConfig(),
	}
}

// Assemble packages the resolved direction and ordered lines into a Result.
func Assemble(dir Direction, lines []Line) *Result {
	return &Result{Direction: dir, Clusters: Flatten(lines)}
}

// Analyze runs the full pipeline over img.
//
// The requested direction must already be validated (see ParseDirection);
// the empty Direction resolves to opts.Order.DefaultDirection.
func Analyze(img image.Image, requested Direction, opts Options) *Result {
	res, _ := AnalyzeLines(img, requested, opts)
	return res
}

// AnalyzeLines is Analyze that also returns the intermediate line grouping.
func AnalyzeLines(img image.Image, requested Direction, opts Options) (*Result, []Line) {
	mask := Classify(img, opts.Classifier)
	labeling := Label(mask, opts.Connectivity)
	comps := FilterComponents(Components(labeling), opts.MinClusterArea)
	dir, lines := Order(Boxes(comps), requested, opts.Order)
	return Assemble(dir, lines), lines
}
