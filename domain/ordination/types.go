package ordination

// Metric names a beta-diversity metric understood by the external collaborators
// (e.g. "unweighted_unifrac", "bray_curtis"). The core never interprets it.
type Metric string

// Tree is a phylogenetic tree in Newick form, passed through opaquely to
// phylogenetic metrics.
type Tree string

// Request carries the collaborator parameters for one distance or ordination call
type Request struct {
	Metric Metric
	Tree   Tree
}

// Coordinates maps an entity id to its coordinate vector, axis 0 first
type Coordinates map[string][]float64

// Ellipsoid summarizes an entity's position over repeated ordinations.
// Center[a] is the mean coordinate on axis a; Radius[a] is the mean absolute
// deviation from Center[a]. The radius under-represents outlier extent.
type Ellipsoid struct {
	Center []float64 `json:"center" yaml:"center"`
	Radius []float64 `json:"axes_radii" yaml:"axes_radii"`
}
