package analysis

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/wfondrie/kojak/internal/spectrum"
)

// writeDiagnostics dumps the pre-pairing singlet table of a configured
// scan to diagnostic_<scan>.txt. Stage 3 hands each spectrum to
// exactly one worker, so no two workers share a file.
func (a *Analysis) writeDiagnostics(sp *spectrum.Spectrum) {
	for _, scan := range a.params.Diag {
		if scan != sp.ScanNumber {
			continue
		}
		path := filepath.Join(a.params.DiagDir, fmt.Sprintf("diagnostic_%d.txt", scan))
		f, err := os.Create(path)
		if err != nil {
			log.Printf("diagnostic output for scan %d failed: %v", scan, err)
			return
		}
		fmt.Fprintf(f, "Scan: %d\n", sp.ScanNumber)
		for k := 0; k < sp.GetSingletCount(); k++ {
			sc := sp.GetSingletScoreCard(k)
			pep := a.db.GetPeptide(sc.Pep1, sc.Linkable)
			seq := a.db.GetPeptideSeq(pep)
			var b strings.Builder
			for q := 0; q < len(seq); q++ {
				b.WriteByte(seq[q])
				for _, pm := range sc.Mods {
					if pm.Pos == q {
						fmt.Fprintf(&b, "[%.2f]", pm.Mass)
					}
				}
				if q == sc.K1 {
					b.WriteString("[x]")
				}
			}
			fmt.Fprintf(f, "%s\t%d\t%d\t%.6f\t%.4f\t%.4f\n",
				b.String(), sc.K1, len(sc.Mods), sc.Mass, sc.SimpleScore,
				sc.SimpleScore*float32(sc.Len))
		}
		f.Close()
		return
	}
}
