package animation

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrUnknownBone is returned when an animation channel targets a node name absent from the skeleton.
var ErrUnknownBone = errors.New("animation: channel targets unknown bone")

var (
	defaultPosition = [3]float32{0, 0, 0}
	defaultRotation = [4]float32{0, 0, 0, 1}
	defaultScale    = [3]float32{1, 1, 1}
)

// LocalTransform composes translate(position) * rotate(rotation) * scale(scale).
// The rotation is an (x, y, z, w) quaternion and is used as given, without normalization.
//
// Parameters:
//   - position: the translation
//   - rotation: the rotation quaternion (x, y, z, w)
//   - scale: the per-axis scale
//
// Returns:
//   - mgl32.Mat4: the local transform matrix
func LocalTransform(position [3]float32, rotation [4]float32, scale [3]float32) mgl32.Mat4 {
	q := mgl32.Quat{W: rotation[3], V: mgl32.Vec3{rotation[0], rotation[1], rotation[2]}}
	return mgl32.Translate3D(position[0], position[1], position[2]).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// SampleTrack resolves one imported clip into a track with one channel per bone.
// Channels are placed by bone ID; bones the clip does not animate keep an empty channel.
//
// A channel's sample count is the largest of its position, rotation and scale key counts. A component
// with fewer keys holds its last key, or the identity value when it has none, and the mismatch is
// reported to diags. Sample times come from the rotation keys when present.
//
// Parameters:
//   - anim: the imported clip
//   - skel: the skeleton the clip animates
//   - diags: receives key-count mismatches, may be nil
//
// Returns:
//   - model.AnimationTrack: the resolved track
//   - error: wraps ErrUnknownBone if a channel targets a name absent from skel
func SampleTrack(anim model.ImportedAnimation, skel *model.Skeleton, diags model.DiagnosticLog) (model.AnimationTrack, error) {
	track := model.AnimationTrack{
		Name:           anim.Name,
		Duration:       anim.Duration,
		TicksPerSecond: anim.TicksPerSecond,
		Channels:       make([]model.AnimationChannel, skel.BoneCount()),
	}

	for _, src := range anim.Channels {
		id, ok := skel.BoneID(src.NodeName)
		if !ok {
			return model.AnimationTrack{}, fmt.Errorf("%w: %q in track %q", ErrUnknownBone, src.NodeName, anim.Name)
		}

		np, nr, ns := len(src.PositionKeys), len(src.RotationKeys), len(src.ScaleKeys)
		n := max(np, nr, ns)
		if diags != nil && (np != n || nr != n || ns != n) {
			diags.Report(model.Diagnostic{
				Kind:    model.DiagnosticKeyCountMismatch,
				Source:  anim.Name,
				BoneID:  id,
				Vertex:  -1,
				Message: fmt.Sprintf("bone %q has %d position, %d rotation, %d scale keys", src.NodeName, np, nr, ns),
			})
		}

		ch := model.AnimationChannel{
			Times:      make([]float32, n),
			Transforms: make([]mgl32.Mat4, n),
		}
		for i := 0; i < n; i++ {
			pos, posTime := vectorKeyAt(src.PositionKeys, i, defaultPosition)
			rot, rotTime := quaternionKeyAt(src.RotationKeys, i)
			scl, sclTime := vectorKeyAt(src.ScaleKeys, i, defaultScale)

			switch {
			case i < nr:
				ch.Times[i] = rotTime
			case i < np:
				ch.Times[i] = posTime
			default:
				ch.Times[i] = sclTime
			}
			ch.Transforms[i] = LocalTransform(pos, rot, scl)
		}
		track.Channels[id] = ch
	}

	return track, nil
}

// SampleTracks resolves every imported clip in order. The first unknown bone aborts the whole set.
//
// Parameters:
//   - anims: the imported clips
//   - skel: the skeleton the clips animate
//   - diags: receives key-count mismatches, may be nil
//
// Returns:
//   - []model.AnimationTrack: the resolved tracks, index-aligned with anims
//   - error: the first sampling error
func SampleTracks(anims []model.ImportedAnimation, skel *model.Skeleton, diags model.DiagnosticLog) ([]model.AnimationTrack, error) {
	tracks := make([]model.AnimationTrack, 0, len(anims))
	for _, anim := range anims {
		track, err := SampleTrack(anim, skel, diags)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// vectorKeyAt returns key i, holding the last key past the end and def when keys is empty.
func vectorKeyAt(keys []model.VectorKey, i int, def [3]float32) ([3]float32, float32) {
	if len(keys) == 0 {
		return def, 0
	}
	k := keys[min(i, len(keys)-1)]
	return k.Value, k.Time
}

func quaternionKeyAt(keys []model.QuaternionKey, i int) ([4]float32, float32) {
	if len(keys) == 0 {
		return defaultRotation, 0
	}
	k := keys[min(i, len(keys)-1)]
	return k.Value, k.Time
}
