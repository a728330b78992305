package model

import (
	"sort"

	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
)

// --- Import Types ---
//
// The import types mirror what a scene-import library hands over: a node tree, a flat mesh list
// and a flat animation clip list. They are consumed as-is by the skeleton, animation and skinning
// stages and are never mutated by them.

// ImportedNode is one node of the imported scene tree.
type ImportedNode struct {
	// Name is the node identifier. Bones are keyed by this name.
	Name string

	// Parent is the owning node, nil for the root.
	Parent *ImportedNode

	// Children are the ordered child nodes.
	Children []*ImportedNode

	// Meshes are indices into ImportedScene.Meshes attached to this node.
	Meshes []int
}

// NewImportedNode creates a node and links the given children back to it.
//
// Parameters:
//   - name: the node name
//   - children: the ordered child nodes
//
// Returns:
//   - *ImportedNode: the new node
func NewImportedNode(name string, children ...*ImportedNode) *ImportedNode {
	n := &ImportedNode{Name: name}
	n.AddChildren(children...)
	return n
}

// AddChildren appends children to the node and sets their Parent.
//
// Parameters:
//   - children: the nodes to append
func (n *ImportedNode) AddChildren(children ...*ImportedNode) {
	for _, c := range children {
		c.Parent = n
		n.Children = append(n.Children, c)
	}
}

// VertexWeight is one (vertex, weight) influence of a bone within a mesh.
type VertexWeight struct {
	// VertexID is the vertex index local to the mesh.
	VertexID uint32

	// Weight is the influence in [0, 1].
	Weight float32
}

// ImportedMeshBone is a bone as seen by one mesh: its name, its bind-pose offset matrix and
// the vertices it influences.
type ImportedMeshBone struct {
	// Name matches an ImportedNode name.
	Name string

	// OffsetMatrix maps mesh space into bone space at bind pose.
	OffsetMatrix mgl32.Mat4

	// Weights are the vertices this bone influences.
	Weights []VertexWeight
}

// ImportedMesh is one triangulated sub-mesh.
type ImportedMesh struct {
	// Name is the mesh identifier.
	Name string

	// Positions are the vertex positions.
	Positions [][3]float32

	// Normals are the vertex normals, same length as Positions or empty.
	Normals [][3]float32

	// TexCoords are the first UV set, same length as Positions or empty.
	TexCoords [][2]float32

	// Indices are the triangle indices, local to this mesh.
	Indices []uint32

	// Bones are the bones influencing this mesh.
	Bones []ImportedMeshBone
}

// VectorKey is a keyed 3D vector value.
type VectorKey struct {
	// Time is the key timestamp in ticks.
	Time float32

	// Value is the vector value.
	Value [3]float32
}

// QuaternionKey is a keyed rotation value.
type QuaternionKey struct {
	// Time is the key timestamp in ticks.
	Time float32

	// Value is the rotation quaternion (x, y, z, w).
	Value [4]float32
}

// ImportedNodeAnimation holds the keyed TRS tracks of one node within a clip.
type ImportedNodeAnimation struct {
	// NodeName is the name of the animated node.
	NodeName string

	// PositionKeys are the translation keys.
	PositionKeys []VectorKey

	// RotationKeys are the rotation keys.
	RotationKeys []QuaternionKey

	// ScaleKeys are the scale keys.
	ScaleKeys []VectorKey
}

// ImportedAnimation is one imported animation clip.
type ImportedAnimation struct {
	// Name is the clip name.
	Name string

	// Duration is the clip length in ticks.
	Duration float32

	// TicksPerSecond is the sample rate of the key timestamps.
	TicksPerSecond float32

	// Channels are the per-node keyed tracks.
	Channels []ImportedNodeAnimation
}

// ImportedScene is the full output of a scene import.
type ImportedScene struct {
	// Name is the scene identifier.
	Name string

	// Root is the root of the node tree.
	Root *ImportedNode

	// Meshes is the flat mesh list referenced by ImportedNode.Meshes.
	Meshes []ImportedMesh

	// Animations is the flat animation clip list.
	Animations []ImportedAnimation
}

// --- Skeleton Types ---

// Bone is one node of the animation skeleton.
type Bone struct {
	// ID is the dense bone index assigned in first-seen order.
	ID int

	// Name is the unique bone key.
	Name string

	// ParentID is the parent bone index, -1 for the root.
	ParentID int

	// ChildIDs are the ordered child bone indices.
	ChildIDs []int

	// BindPoseOffset is identity until a mesh assigns it.
	BindPoseOffset mgl32.Mat4

	// BindPoseSet reports whether BindPoseOffset was assigned by a mesh.
	BindPoseSet bool
}

// Skeleton is an arena of bones addressed by index with a name lookup.
type Skeleton struct {
	// Bones is indexed by bone ID.
	Bones []Bone

	// NameToID maps bone names to IDs.
	NameToID map[string]int
}

// BoneCount returns the number of bones.
//
// Returns:
//   - int: the bone count
func (s *Skeleton) BoneCount() int {
	return len(s.Bones)
}

// BoneID resolves a bone name.
//
// Parameters:
//   - name: the bone name
//
// Returns:
//   - int: the bone ID
//   - bool: false if no bone has that name
func (s *Skeleton) BoneID(name string) (int, bool) {
	id, ok := s.NameToID[name]
	return id, ok
}

// --- Animation Types ---

// AnimationChannel is the sampled local transforms of one bone within a track.
// Channels for bones the clip does not animate are empty.
type AnimationChannel struct {
	// Times are the sample timestamps in ticks.
	Times []float32

	// Transforms are the local transforms, translate * rotate * scale.
	Transforms []mgl32.Mat4
}

// FrameCount returns the number of samples in the channel.
//
// Returns:
//   - int: the sample count
func (c *AnimationChannel) FrameCount() int {
	return len(c.Transforms)
}

// AnimationTrack is one fully resolved animation clip.
type AnimationTrack struct {
	// Name is the clip name.
	Name string

	// Duration is the clip length in ticks.
	Duration float32

	// TicksPerSecond is the sample rate.
	TicksPerSecond float32

	// Channels is index-aligned with bone IDs, len == bone count.
	Channels []AnimationChannel
}

// FrameCount returns the longest channel sample count of the track.
//
// Returns:
//   - int: the max sample count across channels
func (t *AnimationTrack) FrameCount() int {
	frames := 0
	for i := range t.Channels {
		frames = max(frames, t.Channels[i].FrameCount())
	}
	return frames
}

// FrameAt maps a tick time onto a texture row: the last sample of the longest channel whose time
// is at or before ticks. Times before the first sample map to row 0 and times past the end hold the
// last row. A track without samples always maps to row 0.
//
// Parameters:
//   - ticks: the playback time in ticks
//
// Returns:
//   - int: the frame row
func (t *AnimationTrack) FrameAt(ticks float32) int {
	var longest *AnimationChannel
	for i := range t.Channels {
		if longest == nil || t.Channels[i].FrameCount() > longest.FrameCount() {
			longest = &t.Channels[i]
		}
	}
	if longest == nil || longest.FrameCount() == 0 {
		return 0
	}

	times := longest.Times
	if len(times) == 0 {
		return common.Clamp(int(ticks), 0, longest.FrameCount()-1)
	}
	row := sort.Search(len(times), func(i int) bool { return times[i] > ticks }) - 1
	return common.Clamp(row, 0, longest.FrameCount()-1)
}

// --- Mesh Types ---

// CombinedMesh owns the merged vertex, index and bone-weight buffers of a whole model.
type CombinedMesh struct {
	// Vertices is the merged vertex buffer.
	Vertices []GPUVertex

	// Indices is the merged index buffer, rebased per sub-mesh.
	Indices []uint32

	// BoneWeights is the flattened bone-weight entry buffer addressed by each vertex's offset/count.
	BoneWeights []GPUBoneWeight

	// SubMeshCount is the number of sub-meshes appended so far.
	SubMeshCount int
}

// VertexCount returns the number of merged vertices.
//
// Returns:
//   - int: the vertex count
func (c *CombinedMesh) VertexCount() int {
	return len(c.Vertices)
}

// VertexWeights returns the bone-weight entries addressed by a vertex.
//
// Parameters:
//   - vertex: the merged vertex index
//
// Returns:
//   - []GPUBoneWeight: the entries, a view into BoneWeights
func (c *CombinedMesh) VertexWeights(vertex int) []GPUBoneWeight {
	v := c.Vertices[vertex]
	return c.BoneWeights[v.WeightOffset() : v.WeightOffset()+v.WeightCount()]
}

// --- Encoded Textures ---

// EncodedTextures holds the derived GPU texture payloads of a model.
type EncodedTextures struct {
	// BoneWeights packs two bone-weight entries per texel.
	BoneWeights common.TextureStagingData

	// BindPose packs one bind-pose matrix per bone, four texels per matrix.
	BindPose common.TextureStagingData

	// Tracks holds one baked world-transform texture per animation track, in track order.
	Tracks []common.TextureStagingData
}
