package terrain

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes the state of every patch and the slowest tracked steps.
func (w *World) Dump(out io.Writer) error {
	var b strings.Builder
	st := w.Stats()
	fmt.Fprintf(&b, "world %s mode=%s delivery=%s passes=%d shows=%d hides=%d failed=%d\n",
		w.id, w.mode, w.delivery, st.Passes, st.Shows, st.Hides, st.FailedLoads)

	for lod, g := range w.grids {
		ax, az := w.Anchor(lod)
		fmt.Fprintf(&b, "lod %d size=%g anchor=(%d,%d)\n", lod, g.size, ax, az)
		for _, p := range w.Patches(lod) {
			coord := "-"
			if p.Assigned {
				coord = fmt.Sprintf("(%d,%d)", p.X, p.Z)
			}
			fmt.Fprintf(&b, "  patch %2d %-10s state=%-9s substate=%d notified=%t h=[%d,%d] digest=%016x\n",
				p.ID, coord, p.State, p.Substate, p.Notified, p.HeightMin, p.HeightMax, p.Digest)
		}
	}
	if top := w.prof.TopN(5); top != "" {
		fmt.Fprintf(&b, "profile: %s\n", top)
	}

	_, err := io.WriteString(out, b.String())
	return err
}
