// Package skinning flattens per-bone vertex weights into per-vertex (offset, count) ranges over a
// single bone-weight entry buffer, and merges sub-meshes into one combined mesh.
package skinning

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/Carmen-Shannon/oxy-anim/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/floats/scalar"
)

var (
	// ErrUnknownBone is returned when a mesh bone name is absent from the skeleton.
	ErrUnknownBone = errors.New("skinning: mesh bone not in skeleton")

	// ErrVertexOutOfRange is returned when a bone weight references a vertex the mesh does not have.
	ErrVertexOutOfRange = errors.New("skinning: weight references vertex out of range")
)

const (
	// DefaultWeightTolerance is the allowed deviation of a vertex's weight sum from 1.
	DefaultWeightTolerance = 0.01

	poolIdleTimeout = time.Second
	poolQueueSize   = 64
)

// BindPoseObservation is a bind-pose offset a sub-mesh reports for one bone.
type BindPoseObservation struct {
	BoneID int
	Offset mgl32.Mat4
}

// MeshFragment is one packed sub-mesh whose offsets and indices are local to itself.
// A fragment is never visible to draw code until AppendFragment merges it into a CombinedMesh.
type MeshFragment struct {
	// Name is the source mesh name.
	Name string

	// Vertices carry (offset, count) pairs into BoneWeights.
	Vertices []model.GPUVertex

	// Indices are local to Vertices.
	Indices []uint32

	// BoneWeights is the fragment-local flattened entry buffer, grouped by vertex in vertex order.
	BoneWeights []model.GPUBoneWeight

	// BindPoses lists the bind-pose offsets this sub-mesh carries, in mesh bone order.
	BindPoses []BindPoseObservation

	// Diagnostics are the weight-sum findings of this sub-mesh, in vertex order. They reach the
	// diagnostic log when the fragment is reported, never from a worker.
	Diagnostics []model.Diagnostic
}

// packer is the implementation of the Packer interface.
type packer struct {
	tolerance   float64
	workers     int
	pool        worker.DynamicWorkerPool
	diagnostics model.DiagnosticLog
	logger      *log.Logger
}

// Packer builds combined skinned meshes from imported sub-meshes.
type Packer interface {
	// Pack flattens one sub-mesh into a fragment.
	// Weight sums outside tolerance are reported as diagnostics and the vertex is packed unchanged.
	//
	// Parameters:
	//   - mesh: the imported sub-mesh
	//   - skel: the skeleton used to resolve bone names
	//
	// Returns:
	//   - *MeshFragment: the packed fragment
	//   - error: wraps ErrUnknownBone or ErrVertexOutOfRange
	Pack(mesh model.ImportedMesh, skel *model.Skeleton) (*MeshFragment, error)

	// PackAll packs every sub-mesh, in parallel when the packer has more than one worker.
	// The result is index-aligned with meshes regardless of completion order, and the fragments'
	// diagnostics are reported in mesh order once every sub-mesh has packed.
	//
	// Parameters:
	//   - meshes: the imported sub-meshes
	//   - skel: the skeleton used to resolve bone names
	//
	// Returns:
	//   - []*MeshFragment: the packed fragments
	//   - error: the error of the lowest-indexed failing mesh
	PackAll(meshes []model.ImportedMesh, skel *model.Skeleton) ([]*MeshFragment, error)

	// Combine packs every sub-mesh and merges the fragments serially in mesh order, reporting each
	// fragment's diagnostics and applying its bind poses to skel before appending it. On error skel and the result are untouched.
	//
	// Parameters:
	//   - meshes: the imported sub-meshes
	//   - skel: the skeleton to resolve bone names against and to receive bind poses
	//
	// Returns:
	//   - *model.CombinedMesh: the merged mesh
	//   - error: the first packing error
	Combine(meshes []model.ImportedMesh, skel *model.Skeleton) (*model.CombinedMesh, error)

	// Tolerance returns the weight-sum tolerance.
	//
	// Returns:
	//   - float64: the tolerance
	Tolerance() float64

	// Workers returns the configured worker count.
	//
	// Returns:
	//   - int: the worker count, 1 means serial
	Workers() int

	// Diagnostics returns the log receiving weight-sum and bind-pose findings.
	//
	// Returns:
	//   - model.DiagnosticLog: the diagnostic log
	Diagnostics() model.DiagnosticLog
}

var _ Packer = &packer{}

// NewPacker creates a new Packer with the specified options applied.
//
// Parameters:
//   - options: a variadic list of PackerBuilderOption functions
//
// Returns:
//   - Packer: the configured packer
func NewPacker(options ...PackerBuilderOption) Packer {
	p := &packer{}
	for _, opt := range options {
		opt(p)
	}
	p.tolerance = common.Coalesce(p.tolerance, DefaultWeightTolerance)
	if p.pool != nil {
		p.workers = p.pool.GetMaxWorkers()
	}
	p.workers = max(p.workers, 1)
	if p.pool == nil && p.workers > 1 {
		p.pool = worker.NewDynamicWorkerPool(p.workers, poolQueueSize, poolIdleTimeout)
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	if p.diagnostics == nil {
		p.diagnostics = model.NewDiagnosticLog(p.logger)
	}
	return p
}

func (p *packer) Tolerance() float64 {
	return p.tolerance
}

func (p *packer) Workers() int {
	return p.workers
}

func (p *packer) Diagnostics() model.DiagnosticLog {
	return p.diagnostics
}

func (p *packer) Pack(mesh model.ImportedMesh, skel *model.Skeleton) (*MeshFragment, error) {
	frag, err := p.pack(mesh, skel)
	if err != nil {
		return nil, err
	}
	p.report(frag)
	return frag, nil
}

func (p *packer) report(frag *MeshFragment) {
	for _, d := range frag.Diagnostics {
		p.diagnostics.Report(d)
	}
}

// pack flattens one sub-mesh without touching the diagnostic log, so it is safe to run on a worker.
// Once a sub-mesh has any bone every vertex is checked, and an unweighted vertex sums to 0.
func (p *packer) pack(mesh model.ImportedMesh, skel *model.Skeleton) (*MeshFragment, error) {
	n := len(mesh.Positions)
	frag := &MeshFragment{
		Name:     mesh.Name,
		Vertices: make([]model.GPUVertex, n),
		Indices:  append([]uint32(nil), mesh.Indices...),
	}

	for i := range frag.Vertices {
		v := &frag.Vertices[i]
		v.Position = mesh.Positions[i]
		if i < len(mesh.Normals) {
			v.Normal = mesh.Normals[i]
		}
		if i < len(mesh.TexCoords) {
			v.TexCoord = mesh.TexCoords[i]
		}
	}

	perVertex := make([][]model.GPUBoneWeight, n)
	for _, bone := range mesh.Bones {
		id, ok := skel.BoneID(bone.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %q in mesh %q", ErrUnknownBone, bone.Name, mesh.Name)
		}
		frag.BindPoses = append(frag.BindPoses, BindPoseObservation{BoneID: id, Offset: bone.OffsetMatrix})

		for _, w := range bone.Weights {
			if int(w.VertexID) >= n {
				return nil, fmt.Errorf("%w: bone %q vertex %d, mesh %q has %d", ErrVertexOutOfRange, bone.Name, w.VertexID, mesh.Name, n)
			}
			perVertex[w.VertexID] = append(perVertex[w.VertexID], model.GPUBoneWeight{BoneID: float32(id), Weight: w.Weight})
		}
	}

	total := 0
	for _, ws := range perVertex {
		total += len(ws)
	}
	frag.BoneWeights = make([]model.GPUBoneWeight, 0, total)

	for i, ws := range perVertex {
		if len(mesh.Bones) > 0 {
			var sum float64
			for _, w := range ws {
				sum += float64(w.Weight)
			}
			if !scalar.EqualWithinAbs(sum, 1, p.tolerance) {
				frag.Diagnostics = append(frag.Diagnostics, model.Diagnostic{
					Kind:    model.DiagnosticWeightSum,
					Source:  mesh.Name,
					BoneID:  -1,
					Vertex:  i,
					Message: fmt.Sprintf("vertex %d weights sum to %.4f", i, sum),
				})
			}
		}
		frag.Vertices[i].BoneWeightOffset = [2]uint32{uint32(len(frag.BoneWeights)), uint32(len(ws))}
		frag.BoneWeights = append(frag.BoneWeights, ws...)
	}

	return frag, nil
}

func (p *packer) PackAll(meshes []model.ImportedMesh, skel *model.Skeleton) ([]*MeshFragment, error) {
	frags, err := p.packAll(meshes, skel)
	if err != nil {
		return nil, err
	}
	for _, frag := range frags {
		p.report(frag)
	}
	return frags, nil
}

// packAll packs every sub-mesh, on the pool when there is one, and reports nothing.
func (p *packer) packAll(meshes []model.ImportedMesh, skel *model.Skeleton) ([]*MeshFragment, error) {
	frags := make([]*MeshFragment, len(meshes))
	errs := make([]error, len(meshes))

	if p.pool == nil || len(meshes) <= 1 {
		for i := range meshes {
			if frags[i], errs[i] = p.pack(meshes[i], skel); errs[i] != nil {
				return nil, errs[i]
			}
		}
	} else {
		var wg sync.WaitGroup
		wg.Add(len(meshes))
		for i := range meshes {
			p.pool.SubmitTask(worker.Task{
				ID:      i,
				Payload: meshes[i].Name,
				Do: func() (any, error) {
					defer wg.Done()
					frags[i], errs[i] = p.pack(meshes[i], skel)
					return frags[i], errs[i]
				},
			})
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}
	return frags, nil
}

func (p *packer) Combine(meshes []model.ImportedMesh, skel *model.Skeleton) (*model.CombinedMesh, error) {
	frags, err := p.packAll(meshes, skel)
	if err != nil {
		return nil, err
	}

	combined := &model.CombinedMesh{}
	for _, frag := range frags {
		p.report(frag)
		ApplyBindPoses(skel, frag, p.diagnostics)
		AppendFragment(combined, frag)
	}
	p.logger.Printf("[Skinning] combined %d sub-meshes: %d vertices, %d indices, %d weight entries",
		combined.SubMeshCount, len(combined.Vertices), len(combined.Indices), len(combined.BoneWeights))
	return combined, nil
}
