package mock

import "github.com/fwojciec/xsdpack"

var _ xsdpack.Finder = (*Finder)(nil)

// Finder is a mock implementation of xsdpack.Finder.
type Finder struct {
	FindTypeFn func(name string) (*xsdpack.ResolvedResult, bool)
}

func (f *Finder) FindType(name string) (*xsdpack.ResolvedResult, bool) {
	return f.FindTypeFn(name)
}
