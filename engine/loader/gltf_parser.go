package loader

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"

	"github.com/qmuntal/gltf"
)

// glbMagic opens every GLB container.
const glbMagic = "glTF"

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	doc     *gltf.Document
	baseDir string
}

// gltfParser decodes a glTF JSON or GLB document, with its buffers resolved, and exposes it to the extractors.
type gltfParser interface {
	// Parse reads and decodes the document at path. External buffers are resolved relative to it.
	//
	// Parameters:
	//   - path: the .gltf or .glb file path
	//
	// Returns:
	//   - error: error if the file cannot be read or decoded
	Parse(path string) error

	// ParseReader decodes a document from r. Only embedded or data URI buffers can be resolved.
	//
	// Parameters:
	//   - r: the reader providing the document
	//   - isGLB: whether r is expected to hold a GLB container
	//
	// Returns:
	//   - error: ErrUnsupportedFormat if the container does not match isGLB, or a decode error
	ParseReader(r io.Reader, isGLB bool) error

	// SetDocument installs an already decoded document.
	//
	// Parameters:
	//   - doc: the document
	SetDocument(doc *gltf.Document)

	// Document returns the decoded document, nil before a successful parse.
	//
	// Returns:
	//   - *gltf.Document: the document
	Document() *gltf.Document

	// BaseDir returns the directory of the parsed file, empty for reader input.
	//
	// Returns:
	//   - string: the base directory
	BaseDir() string
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser.
//
// Returns:
//   - gltfParser: the parser
func newGLTFParser() gltfParser {
	return &gltfParserImpl{}
}

func (p *gltfParserImpl) Document() *gltf.Document {
	return p.doc
}

func (p *gltfParserImpl) BaseDir() string {
	return p.baseDir
}

func (p *gltfParserImpl) SetDocument(doc *gltf.Document) {
	p.doc = doc
}

func (p *gltfParserImpl) Parse(path string) error {
	doc, err := gltf.Open(path)
	if err != nil {
		return err
	}
	p.doc = doc
	p.baseDir = filepath.Dir(path)
	return nil
}

func (p *gltfParserImpl) ParseReader(r io.Reader, isGLB bool) error {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(len(glbMagic))
	hasMagic := string(magic) == glbMagic
	if isGLB != hasMagic {
		return fmt.Errorf("%w: GLB container expected %v, found %v", ErrUnsupportedFormat, isGLB, hasMagic)
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(br).Decode(doc); err != nil {
		return err
	}
	p.doc = doc
	p.baseDir = ""
	return nil
}
