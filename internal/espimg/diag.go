package espimg

import "fmt"

// DiagKind classifies a decode diagnostic.
type DiagKind string

const (
	// DiagBadMagic marks an image header whose magic byte is not ROMMagic.
	DiagBadMagic DiagKind = "bad_magic"
)

// Diag records a non-fatal oddity noticed while decoding. Diagnostics never
// abort a decode; hard failures are returned as errors instead.
type Diag struct {
	Offset uint64   `json:"offset"`
	Kind   DiagKind `json:"kind"`
	Msg    string   `json:"msg"`
}

func (d Diag) String() string {
	return fmt.Sprintf("[%s] 0x%x: %s", d.Kind, d.Offset, d.Msg)
}

// Diags accumulates diagnostics.
type Diags struct {
	items []Diag
}

func (d *Diags) Add(offset uint64, kind DiagKind, msg string) {
	d.items = append(d.items, Diag{Offset: offset, Kind: kind, Msg: msg})
}

func (d *Diags) Addf(offset uint64, kind DiagKind, format string, args ...any) {
	d.items = append(d.items, Diag{Offset: offset, Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

func (d *Diags) Items() []Diag { return d.items }
func (d *Diags) Len() int      { return len(d.items) }
