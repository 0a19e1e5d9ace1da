package speedscope

import (
	"sort"

	"github.com/getsentry/scopedtrace/internal/calltree"
	"github.com/getsentry/scopedtrace/internal/frame"
)

const (
	Schema = "https://www.speedscope.app/file-format-schema.json"

	ValueUnitNone ValueUnit = "none"

	ProfileTypeSampled ProfileType = "sampled"
)

type (
	Frame struct {
		Col           uint32 `json:"col,omitempty"`
		File          string `json:"file,omitempty"`
		Image         string `json:"image,omitempty"`
		Inline        bool   `json:"inline,omitempty"`
		IsApplication bool   `json:"is_application"`
		Line          uint32 `json:"line,omitempty"`
		Name          string `json:"name"`
		Path          string `json:"path,omitempty"`
	}

	SampledProfile struct {
		EndValue   uint64      `json:"endValue"`
		Name       string      `json:"name"`
		Samples    [][]int     `json:"samples"`
		StartValue uint64      `json:"startValue"`
		Type       ProfileType `json:"type"`
		Unit       ValueUnit   `json:"unit"`
		Weights    []uint64    `json:"weights"`
	}

	SharedData struct {
		Frames []Frame `json:"frames"`
	}

	ProfileType string
	ValueUnit   string

	Output struct {
		ActiveProfileIndex int               `json:"activeProfileIndex"`
		Exporter           string            `json:"exporter"`
		Name               string            `json:"name"`
		Profiles           []*SampledProfile `json:"profiles"`
		Schema             string            `json:"$schema"`
		Shared             SharedData        `json:"shared"`
	}
)

// FromTree converts a call tree into a single sampled profile where every
// root-to-leaf path is one sample of weight 1. Frames are shared by
// descriptor identity.
func FromTree(name, exporter string, t *calltree.Tree, resolve func(i int) frame.Frame) Output {
	var frames []Frame
	frameIndex := make(map[frame.Descriptor]int)
	nodeFrame := make([]int, t.Len())
	t.Walk(func(i int) {
		d := t.Nodes[i].Frame
		idx, ok := frameIndex[d]
		if !ok {
			idx = len(frames)
			frameIndex[d] = idx
			frames = append(frames, frameFromSymbol(d, resolve(i)))
		}
		nodeFrame[i] = idx
	})

	leaves := t.Leaves()
	samples := make([][]int, 0, len(leaves))
	weights := make([]uint64, 0, len(leaves))
	for _, leaf := range leaves {
		sample := make([]int, t.Nodes[leaf].Depth+1)
		for i := leaf; i != calltree.NoParent; i = t.Nodes[i].Parent {
			sample[t.Nodes[i].Depth] = nodeFrame[i]
		}
		samples = append(samples, sample)
		weights = append(weights, 1)
	}
	if frames == nil {
		frames = []Frame{}
	}
	SortSamplesAlphabetically(samples, frames)

	return Output{
		Exporter: exporter,
		Name:     name,
		Profiles: []*SampledProfile{
			{
				EndValue: uint64(len(samples)),
				Name:     name,
				Samples:  samples,
				Type:     ProfileTypeSampled,
				Unit:     ValueUnitNone,
				Weights:  weights,
			},
		},
		Schema: Schema,
		Shared: SharedData{Frames: frames},
	}
}

func frameFromSymbol(d frame.Descriptor, f frame.Frame) Frame {
	sf := Frame{
		File:          f.File,
		Image:         f.PackageBaseName(),
		Inline:        f.Inline,
		IsApplication: f.InApp,
		Line:          f.Line,
		Name:          f.Function,
		Path:          f.Path,
	}
	switch {
	case d.IsEntry():
		sf.Name = frame.EntryLabel
	case sf.Name == "":
		sf.Name = f.Label()
	}
	return sf
}

// SortSamplesAlphabetically orders samples by the names of their frames, root
// first. Samples with identical names keep their relative order.
func SortSamplesAlphabetically(samples [][]int, frames []Frame) {
	sort.SliceStable(samples, func(i, j int) bool {
		a, b := samples[i], samples[j]
		for c := 0; c < len(a) && c < len(b); c++ {
			if na, nb := frames[a[c]].Name, frames[b[c]].Name; na != nb {
				return na < nb
			}
		}
		return len(a) < len(b)
	})
}
