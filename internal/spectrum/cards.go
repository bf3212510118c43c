package spectrum

// PepMod is one placed variable modification: residue position and mass.
type PepMod struct {
	Pos  int
	Mass float64
}

// ScoreCard is a full match against a spectrum: a single peptide, a
// loop-link, or (after relaxed pairing) a cross-link. Peptides and
// linkers are referenced by integer index only. Pep2 is -1 for single
// peptides; Link is -1 for no linker and -2 for a non-covalent dimer.
type ScoreCard struct {
	SimpleScore float32
	Pep1, Pep2  int
	K1, K2      int
	Link        int
	Mass        float64
	Mods1       []PepMod
	Mods2       []PepMod

	Linkable1, Linkable2 bool
	Score1, Score2       float32
	Mass1, Mass2         float64
	Rank1, Rank2         int
}

// SingletScoreCard is a partial match: a peptide explaining part of a
// precursor mass, with the remainder attributed to an unknown partner
// attached at link site K1 (-1 when the card has no site, as for
// non-covalent dimer candidates). SimpleScore is score per residue.
type SingletScoreCard struct {
	SimpleScore float32
	Len         int
	K1          int
	Pep1        int
	Linkable    bool
	Mass        float64
	Mods        []PepMod
}

// cardBefore is the deterministic ordering of full cards: score
// descending, ties broken by peptide and site indices so the top-K
// table is reproducible under any thread count.
func cardBefore(a, b *ScoreCard) bool {
	if a.SimpleScore != b.SimpleScore {
		return a.SimpleScore > b.SimpleScore
	}
	if a.Pep1 != b.Pep1 {
		return a.Pep1 < b.Pep1
	}
	if a.Pep2 != b.Pep2 {
		return a.Pep2 < b.Pep2
	}
	if a.K1 != b.K1 {
		return a.K1 < b.K1
	}
	if a.K2 != b.K2 {
		return a.K2 < b.K2
	}
	return a.Link < b.Link
}

// singletBefore orders singlet cards: score descending, then lower
// peptide index, then lower site.
func singletBefore(a, b *SingletScoreCard) bool {
	if a.SimpleScore != b.SimpleScore {
		return a.SimpleScore > b.SimpleScore
	}
	if a.Pep1 != b.Pep1 {
		return a.Pep1 < b.Pep1
	}
	return a.K1 < b.K1
}

// CheckScore inserts a full card into the top-K table, discarding it
// when it ranks below the retained cards. Every submission also feeds
// the score histogram used for expectation values. The caller must
// hold the spectrum's mutex.
func (s *Spectrum) CheckScore(sc ScoreCard) {
	s.addHist(sc.SimpleScore)
	i := 0
	for i < len(s.cards) && cardBefore(&s.cards[i], &sc) {
		i++
	}
	if i >= s.topCards {
		return
	}
	s.cards = append(s.cards, ScoreCard{})
	copy(s.cards[i+1:], s.cards[i:])
	s.cards[i] = sc
	if len(s.cards) > s.topCards {
		s.cards = s.cards[:s.topCards]
	}
}

// CheckSingletScore inserts a singlet card into the singlet table,
// keeping at most the configured cap ordered by singletBefore.
// The caller must hold the spectrum's mutex.
func (s *Spectrum) CheckSingletScore(sc SingletScoreCard) {
	i := 0
	for i < len(s.singlets) && singletBefore(&s.singlets[i], &sc) {
		i++
	}
	if i >= s.singletCap {
		return
	}
	s.singlets = append(s.singlets, SingletScoreCard{})
	copy(s.singlets[i+1:], s.singlets[i:])
	s.singlets[i] = sc
	if len(s.singlets) > s.singletCap {
		s.singlets = s.singlets[:s.singletCap]
	}
}

// ScoreCardCount returns the number of retained full cards.
func (s *Spectrum) ScoreCardCount() int { return len(s.cards) }

// GetScoreCard returns the r-th retained full card, best first.
func (s *Spectrum) GetScoreCard(r int) ScoreCard { return s.cards[r] }

// GetSingletCount returns the number of retained singlet cards.
func (s *Spectrum) GetSingletCount() int { return len(s.singlets) }

// GetSingletScoreCard returns the r-th retained singlet card.
func (s *Spectrum) GetSingletScoreCard(r int) SingletScoreCard { return s.singlets[r] }
