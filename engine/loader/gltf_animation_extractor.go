package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// gltfTicksPerSecond is the tick rate of imported clips; glTF key times are in seconds.
const gltfTicksPerSecond = 1

// gltfAnimationExtractorImpl is the implementation of the gltfAnimationExtractor interface.
type gltfAnimationExtractorImpl struct {
	parser   gltfParser
	skeleton gltfSkeletonExtractor
}

// gltfAnimationExtractor converts glTF animations into imported clips keyed by node name.
type gltfAnimationExtractor interface {
	// ExtractAnimation converts one glTF animation. Channels targeting the same node are merged
	// into one node animation; morph-weight channels are ignored. Cubic-spline samplers contribute
	// their values without tangents.
	//
	// Parameters:
	//   - animIndex: the glTF animation index
	//
	// Returns:
	//   - model.ImportedAnimation: the clip, duration is the last key time
	//   - error: error if an accessor cannot be read or has an unexpected type
	ExtractAnimation(animIndex int) (model.ImportedAnimation, error)

	// ExtractAllAnimations converts every animation in document order.
	//
	// Returns:
	//   - []model.ImportedAnimation: the clips
	//   - error: the first extraction error
	ExtractAllAnimations() ([]model.ImportedAnimation, error)
}

var _ gltfAnimationExtractor = &gltfAnimationExtractorImpl{}

// newGLTFAnimationExtractor creates an animation extractor reading from parser's document.
//
// Parameters:
//   - parser: the parser holding the document
//   - skeleton: the extractor used for node names
//
// Returns:
//   - gltfAnimationExtractor: the extractor
func newGLTFAnimationExtractor(parser gltfParser, skeleton gltfSkeletonExtractor) gltfAnimationExtractor {
	return &gltfAnimationExtractorImpl{parser: parser, skeleton: skeleton}
}

func (e *gltfAnimationExtractorImpl) ExtractAllAnimations() ([]model.ImportedAnimation, error) {
	doc := e.parser.Document()
	out := make([]model.ImportedAnimation, 0, len(doc.Animations))
	for i := range doc.Animations {
		anim, err := e.ExtractAnimation(i)
		if err != nil {
			return nil, err
		}
		out = append(out, anim)
	}
	return out, nil
}

func (e *gltfAnimationExtractorImpl) ExtractAnimation(animIndex int) (model.ImportedAnimation, error) {
	doc := e.parser.Document()
	if animIndex < 0 || animIndex >= len(doc.Animations) {
		return model.ImportedAnimation{}, fmt.Errorf("animation %d out of range", animIndex)
	}
	gltfAnim := doc.Animations[animIndex]

	out := model.ImportedAnimation{
		Name:           gltfAnim.Name,
		TicksPerSecond: gltfTicksPerSecond,
	}
	if out.Name == "" {
		out.Name = fmt.Sprintf("animation_%d", animIndex)
	}

	byNode := make(map[int]int)
	for ci, channel := range gltfAnim.Channels {
		if channel.Target.Node == nil || channel.Sampler == nil {
			continue
		}
		if int(*channel.Sampler) >= len(gltfAnim.Samplers) {
			return out, fmt.Errorf("animation %q channel %d references missing sampler %d", out.Name, ci, *channel.Sampler)
		}
		sampler := gltfAnim.Samplers[*channel.Sampler]

		nodeIndex := int(*channel.Target.Node)
		slot, ok := byNode[nodeIndex]
		if !ok {
			slot = len(out.Channels)
			byNode[nodeIndex] = slot
			out.Channels = append(out.Channels, model.ImportedNodeAnimation{NodeName: e.skeleton.NodeName(nodeIndex)})
		}
		target := &out.Channels[slot]

		if channel.Target.Path != gltf.TRSTranslation && channel.Target.Path != gltf.TRSRotation && channel.Target.Path != gltf.TRSScale {
			continue
		}

		id, err := modeler.ReadAccessor(doc, doc.Accessors[sampler.Input], nil)
		if err != nil {
			return out, fmt.Errorf("animation %q channel %d input: %w", out.Name, ci, err)
		}
		times, ok := id.([]float32)
		if !ok {
			return out, fmt.Errorf("animation %q channel %d input has unsupported type %T", out.Name, ci, id)
		}
		od, err := modeler.ReadAccessor(doc, doc.Accessors[sampler.Output], nil)
		if err != nil {
			return out, fmt.Errorf("animation %q channel %d output: %w", out.Name, ci, err)
		}

		// Cubic-spline outputs store (in-tangent, value, out-tangent) per key.
		stride, first := 1, 0
		if sampler.Interpolation == gltf.InterpolationCubicSpline {
			stride, first = 3, 1
		}

		switch channel.Target.Path {
		case gltf.TRSTranslation, gltf.TRSScale:
			values, ok := od.([][3]float32)
			if !ok {
				return out, fmt.Errorf("animation %q channel %d output has unsupported type %T", out.Name, ci, od)
			}
			keys := make([]model.VectorKey, 0, len(times))
			for k, t := range times {
				i := k*stride + first
				if i >= len(values) {
					break
				}
				keys = append(keys, model.VectorKey{Time: t, Value: values[i]})
			}
			if channel.Target.Path == gltf.TRSTranslation {
				target.PositionKeys = keys
			} else {
				target.ScaleKeys = keys
			}
		case gltf.TRSRotation:
			values, ok := od.([][4]float32)
			if !ok {
				return out, fmt.Errorf("animation %q channel %d rotation output has unsupported type %T", out.Name, ci, od)
			}
			keys := make([]model.QuaternionKey, 0, len(times))
			for k, t := range times {
				i := k*stride + first
				if i >= len(values) {
					break
				}
				keys = append(keys, model.QuaternionKey{Time: t, Value: values[i]})
			}
			target.RotationKeys = keys
		}

		if n := len(times); n > 0 && times[n-1] > out.Duration {
			out.Duration = times[n-1]
		}
	}

	return out, nil
}
