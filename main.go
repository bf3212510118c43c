// SPDX-License-Identifier: MIT

// Command kojak searches fragment spectra for cross-linked peptide
// matches: single peptides, intra-peptide loop-links, and inter-peptide
// cross-links assembled from singlet partial matches.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/wfondrie/kojak/internal/analysis"
	"github.com/wfondrie/kojak/internal/db"
	"github.com/wfondrie/kojak/internal/ions"
	"github.com/wfondrie/kojak/internal/linker"
	"github.com/wfondrie/kojak/internal/mass"
	"github.com/wfondrie/kojak/internal/mzml"
	"github.com/wfondrie/kojak/internal/spectrum"
)

const progName = "kojak"

var progVersion = `Unknown`

const (
	infoDefault = iota
	infoSilent
	infoVerbose
)

// Command line parameters
type params struct {
	mzMLFilename    *string
	fastaFilename   *string
	outFilename     *string
	threads         *int
	ppmPrecursor    *float64
	ionSeries       *string // comma separated subset of a,b,c,x,y,z
	binSize         *float64
	binOffset       *float64
	linkers         *string // name:mass:sitesA:sitesB[:mono];...
	fixedMods       *string // X:mass;...
	mods            *string // X:mass[:xl];...
	maxMods         *int
	minPepMass      *float64
	maxPepMass      *float64
	missedCleavages *int
	minPepLen       *int
	maxPepLen       *int
	xcorr           *bool
	monoLinksOnXL   *bool
	diffModsOnXL    *bool
	dimersNC        *bool
	dimersXL        *bool
	decoy           *string
	diag            *string // comma separated scan numbers
	topCount        *int
	singletCap      *int
	verbosity       int
	args            []string
}

func usage() {
	exeName := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr,
		`USAGE:
  %s [options] -db <fastafile> <mzMLfile>

  This program searches MS2 spectra for cross-linked peptide matches
  using the protein sequences in an accompanying FASTA file.

OPTIONS:
`, exeName)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr,
		`
LINKER FORMAT:
  Cross-linkers are specified as name:mass:sitesA:sitesB[:mono],
  multiple linkers separated by ';'. Sites are strings of residue
  symbols; 'n' and 'c' stand for the protein termini. For example:
    -linkers 'DSS:138.0680742:nK:nK'
`)
}

func parseIonSeries(s string) ([ions.NumSeries]bool, error) {
	var out [ions.NumSeries]bool
	for _, tok := range strings.Split(s, ",") {
		switch strings.TrimSpace(tok) {
		case "a":
			out[ions.SeriesA] = true
		case "b":
			out[ions.SeriesB] = true
		case "c":
			out[ions.SeriesC] = true
		case "x":
			out[ions.SeriesX] = true
		case "y":
			out[ions.SeriesY] = true
		case "z":
			out[ions.SeriesZ] = true
		case "":
		default:
			return out, fmt.Errorf("unknown ion series %q", tok)
		}
	}
	return out, nil
}

func parseLinkers(s string) ([]linker.CrossLinker, error) {
	var out []linker.CrossLinker
	for _, tok := range strings.Split(s, ";") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parts := strings.Split(tok, ":")
		if len(parts) < 4 {
			return nil, fmt.Errorf("invalid linker %q", tok)
		}
		m, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid linker mass in %q", tok)
		}
		l := linker.CrossLinker{Name: parts[0], Mass: m, SiteA: parts[2], SiteB: parts[3]}
		if len(parts) > 4 && parts[4] == "mono" {
			l.Mono = true
		}
		out = append(out, l)
	}
	return out, nil
}

func parseMods(s string, fixed bool) ([]analysis.ModDef, error) {
	var out []analysis.ModDef
	for _, tok := range strings.Split(s, ";") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parts := strings.Split(tok, ":")
		if len(parts) < 2 || len(parts[0]) != 1 {
			return nil, fmt.Errorf("invalid modification %q", tok)
		}
		m, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid modification mass in %q", tok)
		}
		d := analysis.ModDef{AA: parts[0][0], Mass: m}
		if !fixed && len(parts) > 2 && parts[2] == "xl" {
			d.XLOnly = true
		}
		out = append(out, d)
	}
	return out, nil
}

func parseDiag(s string) ([]int, error) {
	var out []int
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid scan number %q", tok)
		}
		out = append(out, n)
	}
	return out, nil
}

// sanitizeParams checks parameters and fills missing filenames
func sanitizeParams(par *params) {
	exeName := filepath.Base(os.Args[0])
	if len(par.args) != 1 {
		fmt.Fprintf(os.Stderr, `Last argument must be name of mzML file.
Type %s --help for usage
`, exeName)
		os.Exit(2)
	}
	mzFile := par.args[0]
	par.mzMLFilename = &mzFile

	if *par.fastaFilename == "" {
		fmt.Fprintf(os.Stderr, `A FASTA database must be supplied with -db.
Type %s --help for usage
`, exeName)
		os.Exit(2)
	}
	if *par.outFilename == "" {
		ext := filepath.Ext(mzFile)
		*par.outFilename = mzFile[0:len(mzFile)-len(ext)] + "-kojak.txt"
	}
}

// loadSpectra reads the mzML file and preprocesses all MS2 spectra.
// Precursors without a charge annotation are interpreted at 2+ and 3+.
func loadSpectra(filename string, cfg spectrum.Config) ([]*spectrum.Spectrum, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mz, err := mzml.Read(f)
	if err != nil {
		return nil, err
	}

	var specs []*spectrum.Spectrum
	for i := 0; i < mz.NumSpecs(); i++ {
		level, err := mz.MSLevel(i)
		if err != nil {
			return nil, err
		}
		if level != 2 {
			continue
		}
		raw, err := mz.Precursors(i)
		if err != nil {
			return nil, err
		}
		var precursors []spectrum.Precursor
		for _, p := range raw {
			if p.Charge > 0 {
				precursors = append(precursors, spectrum.Precursor{
					MonoMass: (p.Mz - mass.Proton) * float64(p.Charge),
					Charge:   p.Charge,
				})
			} else {
				for _, z := range []int{2, 3} {
					precursors = append(precursors, spectrum.Precursor{
						MonoMass: (p.Mz - mass.Proton) * float64(z),
						Charge:   z,
					})
				}
			}
		}
		if len(precursors) == 0 {
			continue
		}
		peaks, err := mz.ReadScan(i)
		if err != nil {
			return nil, err
		}
		sp := make([]spectrum.Peak, 0, len(peaks))
		for _, p := range peaks {
			if p.Intens > 0 {
				sp = append(sp, spectrum.Peak{MZ: p.Mz, Intens: p.Intens})
			}
		}
		scan, err := mz.ScanNumber(i)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spectrum.New(scan, sp, precursors, cfg))
	}
	return specs, nil
}

func run(par params) {
	t := time.Now()
	if par.verbosity == infoVerbose {
		fmt.Fprintf(os.Stderr, "Reading proteins from %s: ", *par.fastaFilename)
	}

	ff, err := os.Open(*par.fastaFilename)
	if err != nil {
		log.Fatalf("Open %s: %v", *par.fastaFilename, err)
	}
	prots, err := db.LoadFASTA(ff, *par.decoy)
	ff.Close()
	if err != nil {
		log.Fatalf("LoadFASTA: %v", err)
	}

	links, err := parseLinkers(*par.linkers)
	if err != nil {
		log.Fatalf("Invalid parameter 'linkers': %v", err)
	}
	xl := linker.NewTable(links)

	database := db.New(prots)
	database.Digest(db.DigestConfig{
		MissedCleavages: *par.missedCleavages,
		MinLen:          *par.minPepLen,
		MaxLen:          *par.maxPepLen,
		MinMass:         200,
		MaxMass:         math.MaxFloat64,
	}, xl)

	if par.verbosity == infoVerbose {
		fmt.Fprintf(os.Stderr, "%s\n", time.Since(t))
		t = time.Now()
		fmt.Fprintf(os.Stderr, "Reading MS data from %s: ", *par.mzMLFilename)
	}

	specCfg := spectrum.Config{
		BinSize:    *par.binSize,
		BinOffset:  *par.binOffset,
		TopCards:   *par.topCount,
		SingletCap: *par.singletCap,
	}
	specs, err := loadSpectra(*par.mzMLFilename, specCfg)
	if err != nil {
		log.Fatalf("loadSpectra: %v", err)
	}
	store := spectrum.NewStore(specs)

	series, err := parseIonSeries(*par.ionSeries)
	if err != nil {
		log.Fatalf("Invalid parameter 'ions': %v", err)
	}
	fMods, err := parseMods(*par.fixedMods, true)
	if err != nil {
		log.Fatalf("Invalid parameter 'fixedmods': %v", err)
	}
	vMods, err := parseMods(*par.mods, false)
	if err != nil {
		log.Fatalf("Invalid parameter 'mods': %v", err)
	}
	diag, err := parseDiag(*par.diag)
	if err != nil {
		log.Fatalf("Invalid parameter 'diag': %v", err)
	}

	a := analysis.New(analysis.Params{
		Threads:       *par.threads,
		PPMPrecursor:  *par.ppmPrecursor,
		IonSeries:     series,
		BinSize:       *par.binSize,
		BinOffset:     *par.binOffset,
		FixedMods:     fMods,
		Mods:          vMods,
		MaxMods:       *par.maxMods,
		MinPepMass:    *par.minPepMass,
		MaxPepMass:    *par.maxPepMass,
		XCorr:         *par.xcorr,
		MonoLinksOnXL: *par.monoLinksOnXL,
		DiffModsOnXL:  *par.diffModsOnXL,
		DimersNC:      *par.dimersNC,
		DimersXL:      *par.dimersXL,
		Diag:          diag,
	}, database, store, xl)

	if par.verbosity == infoVerbose {
		fmt.Fprintf(os.Stderr, "%s\n", time.Since(t))
		t = time.Now()
		fmt.Fprintf(os.Stderr, "Scoring peptides: ")
	}

	a.DoPeptideAnalysis(false)
	a.DoPeptideAnalysis(true)

	if par.verbosity == infoVerbose {
		fmt.Fprintf(os.Stderr, "%s\n", time.Since(t))
		t = time.Now()
		fmt.Fprintf(os.Stderr, "Pairing cross-links: ")
	}

	a.DoRelaxedAnalysis()

	if par.verbosity == infoVerbose {
		fmt.Fprintf(os.Stderr, "%s\n", time.Since(t))
		t = time.Now()
		fmt.Fprintf(os.Stderr, "Writing results to %s: ", *par.outFilename)
	}

	of, err := os.Create(*par.outFilename)
	if err != nil {
		log.Fatalf("Create %s: %v", *par.outFilename, err)
	}
	err = writeResults(of, database, store, xl)
	of.Close()
	if err != nil {
		log.Fatalf("writeResults: %v", err)
	}
	if par.verbosity == infoVerbose {
		fmt.Fprintf(os.Stderr, "%s\n", time.Since(t))
	}
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	var par params

	par.fastaFilename = flag.String("db", "", "FASTA `filename` of the protein database")
	par.outFilename = flag.String("o", "", "`filename` for tab-separated results")
	par.threads = flag.Int("threads", runtime.NumCPU(), "number of worker threads")
	par.ppmPrecursor = flag.Float64("ppm", 10.0, "precursor mass tolerance in ppm")
	par.ionSeries = flag.String("ions", "b,y", "comma separated fragment ion `series` (a,b,c,x,y,z)")
	par.binSize = flag.Float64("binsize", 0.03, "fragment bin size in Th")
	par.binOffset = flag.Float64("binoffset", 0.0, "fragment bin offset")
	par.linkers = flag.String("linkers", "DSS:138.0680742:nK:nK",
		"cross-linker `list`, see LINKER FORMAT below")
	par.fixedMods = flag.String("fixedmods", "C:57.02146",
		"fixed modifications as residue:mass pairs separated by ';'")
	par.mods = flag.String("mods", "",
		"variable modifications as residue:mass[:xl] separated by ';'")
	par.maxMods = flag.Int("maxmods", 2, "maximum variable modifications per peptide")
	par.minPepMass = flag.Float64("minpepmass", 500.0, "minimum partner peptide mass")
	par.maxPepMass = flag.Float64("maxpepmass", 4000.0, "maximum partner peptide mass")
	par.missedCleavages = flag.Int("misscleave", 2, "maximum missed cleavage sites")
	par.minPepLen = flag.Int("minpeplen", 5, "minimum peptide length")
	par.maxPepLen = flag.Int("maxpeplen", 50, "maximum peptide length")
	par.xcorr = flag.Bool("xcorr", false, "use the XCorr sparse kernel instead of the kojak kernel")
	par.monoLinksOnXL = flag.Bool("monolinksonxl", false, "allow mono-link masses on cross-linked peptides")
	par.diffModsOnXL = flag.Bool("diffmodsonxl", false, "allow variable modifications on the linked residue")
	par.dimersNC = flag.Bool("dimersnc", false, "search non-covalent dimers")
	par.dimersXL = flag.Bool("dimersxl", false, "allow a peptide to cross-link to itself")
	par.decoy = flag.String("decoy", "decoy_", "substring marking decoy protein names")
	par.diag = flag.String("diag", "", "comma separated scan `numbers` for singlet table dumps")
	par.topCount = flag.Int("topcount", 20, "matches retained per spectrum")
	par.singletCap = flag.Int("singletcap", 250, "singlets retained per spectrum")
	version := flag.Bool("version", false, "Show software version")
	verbose := flag.Bool("verbose", false, "Print more verbose progress information")
	quiet := flag.Bool("quiet", false, "Don't print any output except for errors")
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Fprintf(os.Stderr, "%s version %s\n", progName, progVersion)
		return
	}
	if *verbose {
		par.verbosity = infoVerbose
	}
	if *quiet {
		par.verbosity = infoSilent
	}
	par.args = flag.Args()

	sanitizeParams(&par)
	run(par)
}
