// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/wfondrie/kojak/internal/db"
	"github.com/wfondrie/kojak/internal/linker"
	"github.com/wfondrie/kojak/internal/spectrum"
)

// annotatePeptide renders a peptide sequence with modification masses
// in brackets after the carrying residue.
func annotatePeptide(seq []byte, mods []spectrum.PepMod) string {
	var b strings.Builder
	for i := 0; i < len(seq); i++ {
		b.WriteByte(seq[i])
		for _, pm := range mods {
			if pm.Pos == i {
				fmt.Fprintf(&b, "[%.2f]", pm.Mass)
			}
		}
	}
	return b.String()
}

func proteinNames(database *db.DB, p *db.Peptide) string {
	names := make([]string, 0, len(p.Map))
	for _, occ := range p.Map {
		names = append(names, database.At(occ.Index).Name)
	}
	return strings.Join(names, ",")
}

func matchLabel(database *db.DB, card spectrum.ScoreCard) string {
	decoy := false
	target := false
	check := func(pep *db.Peptide) {
		for _, occ := range pep.Map {
			if database.At(occ.Index).Decoy {
				decoy = true
			} else {
				target = true
			}
		}
	}
	check(database.GetPeptide(card.Pep1, card.Linkable1))
	if card.Pep2 >= 0 {
		check(database.GetPeptide(card.Pep2, card.Linkable2))
	}
	switch {
	case target && decoy:
		return "mixed"
	case target:
		return "target"
	default:
		return "decoy"
	}
}

// writeResults emits the retained matches of every spectrum as one
// tab-separated line per match; matches with a score of zero or less
// are not written.
func writeResults(w io.Writer, database *db.DB, store *spectrum.Store, xl *linker.Table) error {
	_, err := fmt.Fprintln(w, strings.Join([]string{
		"scan", "psm_mass", "score", "evalue",
		"peptide1", "site1", "protein1",
		"peptide2", "site2", "protein2",
		"linker", "label",
	}, "\t"))
	if err != nil {
		return err
	}

	for i := 0; i < store.Size(); i++ {
		sp := store.At(i)
		for r := 0; r < sp.ScoreCardCount(); r++ {
			card := sp.GetScoreCard(r)
			if card.SimpleScore <= 0 {
				continue
			}
			pep1 := database.GetPeptide(card.Pep1, card.Linkable1)
			pepStr1 := annotatePeptide(database.GetPeptideSeq(pep1), card.Mods1)
			prot1 := proteinNames(database, pep1)

			pepStr2, prot2 := "-", "-"
			if card.Pep2 >= 0 {
				pep2 := database.GetPeptide(card.Pep2, card.Linkable2)
				pepStr2 = annotatePeptide(database.GetPeptideSeq(pep2), card.Mods2)
				prot2 = proteinNames(database, pep2)
			}

			linkName := "-"
			switch {
			case card.Link == -2:
				linkName = "nc-dimer"
			case card.Link >= 0:
				linkName = xl.GetLink(card.Link).Name
			}

			_, err = fmt.Fprintf(w, "%d\t%.6f\t%.4f\t%.3e\t%s\t%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
				sp.ScanNumber, card.Mass, card.SimpleScore,
				sp.CalcEValue(float64(card.SimpleScore)),
				pepStr1, card.K1, prot1,
				pepStr2, card.K2, prot2,
				linkName, matchLabel(database, card))
			if err != nil {
				return err
			}
		}
	}
	return nil
}
