// Package analysis runs the three-stage cross-link search: full and
// loop-link scoring over all peptides, accumulation of singlet partial
// matches per spectrum, and relaxed-mode pairing of singlets into
// cross-links.
package analysis

import (
	"log"
	"sync"

	"github.com/wfondrie/kojak/internal/db"
	"github.com/wfondrie/kojak/internal/ions"
	"github.com/wfondrie/kojak/internal/linker"
	"github.com/wfondrie/kojak/internal/spectrum"
)

// ModDef declares a fixed or variable modification on a residue symbol.
// XLOnly marks mono-link masses that attach to cross-linkable residues.
type ModDef struct {
	AA     byte
	Mass   float64
	XLOnly bool
}

// Params carries the search configuration, supplied once at startup.
type Params struct {
	Threads       int
	PPMPrecursor  float64
	IonSeries     [ions.NumSeries]bool
	BinSize       float64
	BinOffset     float64
	FixedMods     []ModDef
	Mods          []ModDef
	MaxMods       int
	MinPepMass    float64 // partner peptide mass bounds for singlet windows
	MaxPepMass    float64
	XCorr         bool // XCorr kernel instead of the kojak kernel
	MonoLinksOnXL bool
	DiffModsOnXL  bool
	DimersNC      bool // consider non-covalent dimers
	DimersXL      bool // allow a peptide to cross-link to itself
	Diag          []int
	DiagDir       string
}

// Analysis is the shared context of one search run. The database,
// spectra, and linker tables are borrowed immutably; only the
// per-spectrum score tables mutate, under specMu.
type Analysis struct {
	params Params
	db     *db.DB
	store  *spectrum.Store
	xl     *linker.Table

	ladders    []*ions.Ladder
	ladderFree []bool
	ladderMu   sync.Mutex

	specMu []sync.Mutex

	lowLinkMass  float64
	highLinkMass float64
	minMass      float64
	maxMass      float64
}

// New builds the analysis context: one ion ladder scratchpad per
// worker, one mutex per spectrum, and the mass bounds derived from the
// indexed precursors and the non-mono linker masses.
func New(p Params, database *db.DB, store *spectrum.Store, xl *linker.Table) *Analysis {
	if p.Threads < 1 {
		p.Threads = 1
	}
	a := &Analysis{
		params:     p,
		db:         database,
		store:      store,
		xl:         xl,
		ladders:    make([]*ions.Ladder, p.Threads),
		ladderFree: make([]bool, p.Threads),
		specMu:     make([]sync.Mutex, store.Size()),
	}
	for i := 0; i < p.Threads; i++ {
		ld := ions.NewLadder(p.IonSeries)
		for _, m := range p.FixedMods {
			ld.AddFixedMod(m.AA, m.Mass)
		}
		for _, m := range p.Mods {
			ld.AddMod(m.AA, m.XLOnly, m.Mass)
		}
		ld.SetMaxModCount(p.MaxMods)
		ld.SetModFlags(p.MonoLinksOnXL, p.DiffModsOnXL)
		a.ladders[i] = ld
		a.ladderFree[i] = true
	}
	a.lowLinkMass, a.highLinkMass = xl.MassRange()
	a.minMass = store.MinMass() - 0.25
	a.maxMass = store.MaxMass() + 0.25
	return a
}

// claimLadder takes a free scratchpad slot. Pool size equals the
// worker count, so exhaustion is a programming error.
func (a *Analysis) claimLadder() int {
	a.ladderMu.Lock()
	defer a.ladderMu.Unlock()
	for i := range a.ladderFree {
		if a.ladderFree[i] {
			a.ladderFree[i] = false
			return i
		}
	}
	log.Fatal("analysis: no free ion ladder scratchpad")
	return -1
}

func (a *Analysis) releaseLadder(i int) {
	a.ladderMu.Lock()
	a.ladderFree[i] = true
	a.ladderMu.Unlock()
}

// DoPeptideAnalysis is stage 1: score every peptide of the selected
// list against all spectra in precursor tolerance, enumerate
// loop-links, and (for the cross-link pass) accumulate singlets.
// Peptides are mass sorted, so iteration stops past the heaviest
// indexed precursor.
func (a *Analysis) DoPeptideAnalysis(crossLink bool) bool {
	peps := a.db.GetPeptideList(crossLink)

	jobs := make(chan int, a.params.Threads*2)
	var wg sync.WaitGroup
	wg.Add(a.params.Threads)
	for w := 0; w < a.params.Threads; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				i := a.claimLadder()
				a.analyzePeptide(&peps[idx], idx, i, crossLink)
				a.releaseLadder(i)
			}
		}()
	}

	for i := range peps {
		if !crossLink && peps[i].Mass < a.minMass {
			continue
		}
		if peps[i].Mass > a.maxMass {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return true
}

// DoRelaxedAnalysis is stage 3: per spectrum, pair the accumulated
// singlets into cross-links (and non-covalent dimers when enabled).
// Must run after the stage 1 passes.
func (a *Analysis) DoRelaxedAnalysis() bool {
	jobs := make(chan int, a.params.Threads*2)
	var wg sync.WaitGroup
	wg.Add(a.params.Threads)
	for w := 0; w < a.params.Threads; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				i := a.claimLadder()
				a.analyzeRelaxed(a.store.At(idx), idx, i)
				a.releaseLadder(i)
			}
		}()
	}
	for i := 0; i < a.store.Size(); i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return true
}

func containsMotif(motifs []int, m int) bool {
	for _, x := range motifs {
		if x == m {
			return true
		}
	}
	return false
}
