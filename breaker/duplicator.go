package breaker

import (
	"github.com/opticalp/instrumentall/attribute"
	"github.com/opticalp/instrumentall/cell"
	"github.com/opticalp/instrumentall/dispatcher"
	"github.com/opticalp/instrumentall/endpoint"
	"github.com/opticalp/instrumentall/ierr"
)

// DuplicatedSource wraps a real source and substitutes for it in the
// graph for the lifetime of a hold: every target bound to the original
// source is rebound to the duplicate's own Source, whose cell a UI can
// publish fabricated values into. Release restores the original
// producer.
type DuplicatedSource struct {
	d *dispatcher.Dispatcher

	original *endpoint.Source
	Source   *endpoint.Source

	rebound []*endpoint.Target
}

// Hold substitutes dup for original: every target currently bound to
// original is rebound to dup's own Source. The callback each target was
// bound with (if any) is preserved across the rebind.
func Hold(d *dispatcher.Dispatcher, original *endpoint.Source) *DuplicatedSource {
	dup := &DuplicatedSource{
		d:        d,
		original: original,
		Source:   endpoint.NewSource(cell.New()),
	}

	for _, t := range original.Targets() {
		dup.rebound = append(dup.rebound, t)
		endpoint.Bind(dup.Source, t)
	}

	return dup
}

// Publish writes value into the duplicate's cell and notifies the
// rebound targets, exactly as any other Source publish — this is how a
// UI feeds fabricated values downstream while holding the duplicate.
func (d *DuplicatedSource) Publish(t cell.Type, vector bool, value interface{}, attr attribute.Attribute) error {
	if !d.Source.TryWriteDataLock() {
		return ierr.ErrInvalidState
	}
	d.Source.Cell().SetNewData(t, vector, value)
	return d.d.SetOutputDataReady(d.Source, attr)
}

// Release rebinds every target this hold captured back to the original
// source, ending the substitution.
func (d *DuplicatedSource) Release() {
	for _, t := range d.rebound {
		endpoint.Bind(d.original, t)
	}
	d.rebound = nil
}
