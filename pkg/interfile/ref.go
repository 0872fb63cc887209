package interfile

// HeaderRef designates a header either by file path or as an already
// parsed Header. The two forms differ in one respect: values extracted
// through a Path keep the line terminator of their line, values extracted
// from a Loaded header do not.
type HeaderRef interface {
	headerRef()
}

// Path refers to a header file on disk
type Path string

// Loaded refers to a header held in memory
type Loaded struct {
	Header *Header
}

func (Path) headerRef()   {}
func (Loaded) headerRef() {}
