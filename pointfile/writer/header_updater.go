package writer

// HeaderUpdater is an interface for updating the Header after all points of
// the file have been processed. Useful to set metadata that depends on what
// has been added.
type HeaderUpdater interface {
	Update(header *Header)
}
