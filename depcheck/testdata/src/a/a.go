package a

type pair struct{ x, y int }

func shift(a []int) {
	for i := 0; i < 10; i++ {
		a[i] = a[i+2] // want `load and store of a may access the same address`
	}
}

func backwards(a []int) {
	for i := 9; i >= 0; i-- {
		a[i] = a[i-1] // want `load and store of a may access the same address`
	}
}

func disjoint(a []int) {
	for i := 0; i < 4; i++ {
		a[i] = 0
		a[i+4] = 1
	}
}

func far(a []int) {
	for i := 9; i >= 0; i-- {
		a[i] = a[i+20]
	}
}

func overlapping(a []int) {
	for i := 0; i < 10; i++ {
		a[i] = 0 // want `store and store of a may access the same address`
		a[i+4] = 1
	}
}

func counter(a []int) {
	for i := 0; i < 10; i++ {
		a[0] = a[0] + i // want `load and store of a may access the same address`
	}
}

func fields(p *pair) {
	for i := 0; i < 10; i++ {
		p.x = p.y
	}
}

func reads(a []int) int {
	s := 0
	for i := 0; i < 10; i++ {
		s += a[i] + a[i+1]
	}
	return s
}

func copied(dst, src []int) {
	for i := 0; i < 10; i++ {
		dst[i] = src[i]
	}
}

func parity(a []int) {
	for i := 0; i < 10; i++ {
		a[2*i] = a[2*i+1]
	}
}

func unbounded(a []int, n int) {
	for i := 0; i < n; i++ {
		a[i] = a[i+1] // want `load and store of a may access the same address`
	}
}

func nested(a []int) {
	for i := 0; i < 4; i++ {
		for j := 0; j < 8; j++ {
			a[i*8+j] = a[i*8+j+32]
		}
	}
}

var g []int

func global() {
	for i := 0; i < 10; i++ {
		g[i] = g[i+1] // want `load and store of g may access the same address`
	}
}

type buffer struct{ buf []int }

func (s *buffer) shift() {
	for i := 0; i < 10; i++ {
		s.buf[i] = s.buf[i+2] // want `load and store of s.buf may access the same address`
	}
}
