package scoring

// Pool is the set of speech intervals still open for matching. Intervals are
// held in ascending onset order; consuming one discards it together with
// every interval before it.
type Pool struct {
	onsets []float64 // by interval index
	avail  []int     // interval indices, ascending
	next   int       // first position in avail not yet consumed
}

func NewPool(intervals []SpeechInterval) *Pool {
	idx := make([]int, len(intervals))
	for i := range idx {
		idx[i] = i
	}
	return &Pool{onsets: Onsets(intervals), avail: idx}
}

// newPoolFrom builds a pool restricted to the given interval indices.
func newPoolFrom(onsets []float64, avail []int) *Pool {
	return &Pool{onsets: onsets, avail: avail}
}

func (p *Pool) Len() int { return len(p.avail) - p.next }

// Last returns the onset of the latest open interval.
func (p *Pool) Last() (float64, bool) {
	if p.Len() == 0 {
		return 0, false
	}
	return p.onsets[p.avail[len(p.avail)-1]], true
}

// each calls fn with the position and onset of every open interval in order
// until fn returns false.
func (p *Pool) each(fn func(pos, interval int, onset float64) bool) {
	for pos := p.next; pos < len(p.avail); pos++ {
		j := p.avail[pos]
		if !fn(pos, j, p.onsets[j]) {
			return
		}
	}
}

// consume closes the interval at pos and everything before it.
func (p *Pool) consume(pos int) {
	if pos >= p.next {
		p.next = pos + 1
	}
}
