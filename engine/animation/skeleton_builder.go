// Package animation turns an imported node tree and its animation clips into a dense bone skeleton,
// per-bone sampled channels, baked world transforms and the GPU texture payloads built from them.
package animation

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrNilRoot is returned when a skeleton is requested for a scene without a root node.
var ErrNilRoot = errors.New("animation: nil root node")

// BuildSkeleton walks the node tree breadth-first and assigns every node a dense bone ID in first-seen order.
// A node's children receive their IDs before they are queued, so parent and child IDs are always known
// when a bone record is written. Nodes sharing a name collapse into one bone; the last visit wins.
//
// Parameters:
//   - root: the root of the imported node tree
//
// Returns:
//   - *model.Skeleton: the bone arena and its name lookup
//   - error: ErrNilRoot if root is nil
func BuildSkeleton(root *model.ImportedNode) (*model.Skeleton, error) {
	if root == nil {
		return nil, ErrNilRoot
	}

	skel := &model.Skeleton{NameToID: make(map[string]int)}
	assign := func(name string) int {
		if id, ok := skel.NameToID[name]; ok {
			return id
		}
		id := len(skel.NameToID)
		skel.NameToID[name] = id
		return id
	}

	queue := []*model.ImportedNode{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		id := assign(node.Name)
		parentID := -1
		if node.Parent != nil {
			if pid, ok := skel.NameToID[node.Parent.Name]; ok {
				parentID = pid
			}
		}

		childIDs := make([]int, 0, len(node.Children))
		for _, child := range node.Children {
			childIDs = append(childIDs, assign(child.Name))
			queue = append(queue, child)
		}

		if n := len(skel.NameToID); len(skel.Bones) < n {
			skel.Bones = append(skel.Bones, make([]model.Bone, n-len(skel.Bones))...)
		}
		skel.Bones[id] = model.Bone{
			ID:             id,
			Name:           node.Name,
			ParentID:       parentID,
			ChildIDs:       childIDs,
			BindPoseOffset: mgl32.Ident4(),
		}
	}

	return skel, nil
}
