package satsolver

import (
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// vec is a two's complement bit vector, least significant bit first.
type vec []z.Lit

// blaster builds word-level circuits out of the gates of c.
type blaster struct {
	c *logic.C
}

func (bl blaster) all(ls ...z.Lit) z.Lit {
	if len(ls) == 0 {
		return bl.c.T
	}
	return bl.c.Ands(ls...)
}

func (bl blaster) some(ls ...z.Lit) z.Lit {
	if len(ls) == 0 {
		return bl.c.F
	}
	return bl.c.Ors(ls...)
}

func (bl blaster) iff(a, b z.Lit) z.Lit {
	return bl.c.Xor(a, b).Not()
}

func (bl blaster) constant(v int64, w int) vec {
	out := make(vec, w)
	for i := range out {
		if (uint64(v)>>uint(i))&1 == 1 {
			out[i] = bl.c.T
		} else {
			out[i] = bl.c.F
		}
	}
	return out
}

func (bl blaster) fresh(n int) vec {
	out := make(vec, n)
	for i := range out {
		out[i] = bl.c.Lit()
	}
	return out
}

func ext(a vec, w int) vec {
	out := make(vec, w)
	copy(out, a)
	for i := len(a); i < w; i++ {
		out[i] = a[len(a)-1]
	}
	return out
}

func (bl blaster) not(a vec) vec {
	out := make(vec, len(a))
	for i, l := range a {
		out[i] = l.Not()
	}
	return out
}

// add returns a + b + cin modulo 2^len(a).
func (bl blaster) add(a, b vec, cin z.Lit) vec {
	out := make(vec, len(a))
	carry := cin
	for i := range a {
		x := bl.c.Xor(a[i], b[i])
		out[i] = bl.c.Xor(x, carry)
		carry = bl.c.Or(bl.c.And(a[i], b[i]), bl.c.And(carry, x))
	}
	return out
}

func (bl blaster) sub(a, b vec) vec {
	return bl.add(a, bl.not(b), bl.c.T)
}

func (bl blaster) neg(a vec) vec {
	return bl.sub(bl.constant(0, len(a)), a)
}

// mul returns a * b modulo 2^len(a).
func (bl blaster) mul(a, b vec) vec {
	acc := bl.constant(0, len(a))
	for i := range b {
		row := make(vec, len(a))
		for j := range row {
			if j < i {
				row[j] = bl.c.F
			} else {
				row[j] = bl.c.And(a[j-i], b[i])
			}
		}
		acc = bl.add(acc, row, bl.c.F)
	}
	return acc
}

func (bl blaster) mux(sel z.Lit, t, e vec) vec {
	out := make(vec, len(t))
	for i := range out {
		out[i] = bl.c.Choice(sel, t[i], e[i])
	}
	return out
}

func (bl blaster) eq(a, b vec) z.Lit {
	ls := make([]z.Lit, len(a))
	for i := range a {
		ls[i] = bl.iff(a[i], b[i])
	}
	return bl.all(ls...)
}

// slt is signed a < b.
func (bl blaster) slt(a, b vec) z.Lit {
	w := len(a) + 1
	d := bl.sub(ext(a, w), ext(b, w))
	return d[w-1]
}

func (bl blaster) isZero(a vec) z.Lit {
	return bl.eq(a, bl.constant(0, len(a)))
}

// fits holds when a, read as a signed number, is representable in w bits.
func (bl blaster) fits(a vec, w int) z.Lit {
	ls := make([]z.Lit, 0, len(a)-w)
	for i := w; i < len(a); i++ {
		ls = append(ls, bl.iff(a[i], a[w-1]))
	}
	return bl.all(ls...)
}

// index maps a signed value to its position in a membership vector, which
// is the value with the sign bit flipped.
func index(a vec) vec {
	out := make(vec, len(a))
	copy(out, a)
	out[len(a)-1] = a[len(a)-1].Not()
	return out
}

// pick selects vals[idx]. len(vals) must be 2^len(idx).
func (bl blaster) pick(vals []z.Lit, idx vec) z.Lit {
	if len(idx) == 0 {
		return vals[0]
	}
	half := len(vals) / 2
	rest := idx[:len(idx)-1]
	return bl.c.Choice(idx[len(idx)-1], bl.pick(vals[half:], rest), bl.pick(vals[:half], rest))
}

// decoder returns one literal per position, true exactly at idx.
func (bl blaster) decoder(idx vec) []z.Lit {
	out := []z.Lit{bl.c.T}
	for _, bit := range idx {
		next := make([]z.Lit, 2*len(out))
		for j, l := range out {
			next[j] = bl.c.And(l, bit.Not())
			next[j+len(out)] = bl.c.And(l, bit)
		}
		out = next
	}
	return out
}
