package animation

import (
	"math"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

const eps = 1e-5

// approxMat4 compares component-wise by absolute difference; mgl32's threshold helpers compare
// against eps*eps whenever either side is zero.
func approxMat4(got, want mgl32.Mat4) bool {
	for i := range got {
		if mgl32.Abs(got[i]-want[i]) > eps {
			return false
		}
	}
	return true
}

func approxVec4(got, want mgl32.Vec4) bool {
	for i := range got {
		if mgl32.Abs(got[i]-want[i]) > eps {
			return false
		}
	}
	return true
}

// chainScene builds root -> names[0] -> names[1] -> ... as a single parent chain.
func chainScene(names ...string) *model.ImportedNode {
	root := model.NewImportedNode(names[0])
	cur := root
	for _, n := range names[1:] {
		child := model.NewImportedNode(n)
		cur.AddChildren(child)
		cur = child
	}
	return root
}

func mustSkeleton(root *model.ImportedNode) *model.Skeleton {
	skel, err := BuildSkeleton(root)
	if err != nil {
		panic(err)
	}
	return skel
}

func translation(x, y, z float32) mgl32.Mat4 {
	return mgl32.Translate3D(x, y, z)
}

func rotationZ(deg float64) [4]float32 {
	half := deg * math.Pi / 360
	return [4]float32{0, 0, float32(math.Sin(half)), float32(math.Cos(half))}
}

func channelOf(ms ...mgl32.Mat4) model.AnimationChannel {
	times := make([]float32, len(ms))
	for i := range times {
		times[i] = float32(i)
	}
	return model.AnimationChannel{Times: times, Transforms: ms}
}
