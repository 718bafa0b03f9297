package mock

import "github.com/fwojciec/xsdpack"

var _ xsdpack.DocumentParser = (*DocumentParser)(nil)

// DocumentParser is a mock implementation of xsdpack.DocumentParser.
type DocumentParser struct {
	ParseDocumentFn     func(path string, data []byte) (*xsdpack.SchemaDocument, error)
	SerializeDocumentFn func(doc *xsdpack.SchemaDocument) ([]byte, error)
}

func (p *DocumentParser) ParseDocument(path string, data []byte) (*xsdpack.SchemaDocument, error) {
	return p.ParseDocumentFn(path, data)
}

func (p *DocumentParser) SerializeDocument(doc *xsdpack.SchemaDocument) ([]byte, error) {
	return p.SerializeDocumentFn(doc)
}
