// Package cityhash implements CityHash64, the 64-bit non-cryptographic hash
// used by HashFS to turn archive paths into table keys.
//
// This is the unseeded 64-bit variant of Google's CityHash v1.0.3. It is
// vendored here rather than imported because the archive format hard-codes
// this exact algorithm (hashMethod "CITY" in the archive header) and no
// other implementation is ever substituted at runtime.
package cityhash

const (
	k0 uint64 = 0xc3a5c85c97cb3127
	k1 uint64 = 0xb492b66fbe98f273
	k2 uint64 = 0x9ae16a3b2f90404f
	k3 uint64 = 0xc949d7c7509e6557
)

func rotate(val uint64, shift uint) uint64 {
	if shift == 0 {
		return val
	}
	return (val >> shift) | (val << (64 - shift))
}

func shiftMix(val uint64) uint64 {
	return val ^ (val >> 47)
}

func fetch64(p []byte) uint64 {
	return uint64(p[0]) | uint64(p[1])<<8 | uint64(p[2])<<16 | uint64(p[3])<<24 |
		uint64(p[4])<<32 | uint64(p[5])<<40 | uint64(p[6])<<48 | uint64(p[7])<<56
}

func fetch32(p []byte) uint64 {
	return uint64(p[0]) | uint64(p[1])<<8 | uint64(p[2])<<16 | uint64(p[3])<<24
}

func hashLen16(u, v uint64) uint64 {
	return hash128to64(u, v)
}

// hash128to64 implements the Murmur-inspired mixer CityHash uses to fold a
// 128-bit intermediate value down to 64 bits.
func hash128to64(low, high uint64) uint64 {
	const mul uint64 = 0x9ddfea08eb382d69
	a := (low ^ high) * mul
	a ^= a >> 47
	b := (high ^ a) * mul
	b ^= b >> 47
	b *= mul
	return b
}

func hashLen0to16(s []byte) uint64 {
	length := uint64(len(s))
	if length >= 8 {
		mul := k2 + length*2
		a := fetch64(s) + k2
		b := fetch64(s[len(s)-8:])
		c := rotate(b, 37)*mul + a
		d := (rotate(a, 25) + b) * mul
		return hashLen16Mul(c, d, mul)
	}
	if length >= 4 {
		mul := k2 + length*2
		a := fetch32(s)
		return hashLen16Mul(length+(a<<3), fetch32(s[len(s)-4:]), mul)
	}
	if length > 0 {
		a := s[0]
		b := s[length>>1]
		c := s[length-1]
		y := uint32(a) + (uint32(b) << 8)
		z := uint32(length) + (uint32(c) << 2)
		return shiftMix(uint64(y)*k2^uint64(z)*k3) * k2
	}
	return k2
}

func hashLen16Mul(u, v, mul uint64) uint64 {
	a := (u ^ v) * mul
	a ^= a >> 47
	b := (v ^ a) * mul
	b ^= b >> 47
	b *= mul
	return b
}

func hashLen17to32(s []byte) uint64 {
	length := uint64(len(s))
	mul := k2 + length*2
	a := fetch64(s) * k1
	b := fetch64(s[8:])
	c := fetch64(s[len(s)-8:]) * mul
	d := fetch64(s[len(s)-16:]) * k2
	return hashLen16Mul(rotate(a+b, 43)+rotate(c, 30)+d, a+rotate(b+k2, 18)+c, mul)
}

func weakHashLen32WithSeeds(w, x, y, z, a, b uint64) (uint64, uint64) {
	a += w
	b = rotate(b+a+z, 21)
	c := a
	a += x
	a += y
	b += rotate(a, 44)
	return a + z, b + c
}

func weakHashLen32WithSeedsBytes(s []byte, a, b uint64) (uint64, uint64) {
	return weakHashLen32WithSeeds(fetch64(s), fetch64(s[8:]), fetch64(s[16:]), fetch64(s[24:]), a, b)
}

func hashLen33to64(s []byte) uint64 {
	length := uint64(len(s))
	mul := k2 + length*2
	a := fetch64(s) * k2
	b := fetch64(s[8:])
	c := fetch64(s[len(s)-24:])
	d := fetch64(s[len(s)-32:])
	e := fetch64(s[16:]) * k2
	f := fetch64(s[24:]) * 9
	g := fetch64(s[len(s)-8:])
	h := fetch64(s[len(s)-16:]) * mul

	u := rotate(a+g, 43) + (rotate(b, 30)+c)*9
	v := ((a + g) ^ d) + f + 1
	w := bswap64((u+v)*mul) + h
	x := rotate(e+f, 42) + c
	y := (bswap64((v+w)*mul) + g) * mul
	z := e + f + c
	a = bswap64((x+z)*mul+y) + b
	b = shiftMix((z+a)*mul+d+h) * mul
	return b + x
}

func bswap64(v uint64) uint64 {
	return ((v & 0x00000000000000ff) << 56) |
		((v & 0x000000000000ff00) << 40) |
		((v & 0x0000000000ff0000) << 24) |
		((v & 0x00000000ff000000) << 8) |
		((v & 0x000000ff00000000) >> 8) |
		((v & 0x0000ff0000000000) >> 24) |
		((v & 0x00ff000000000000) >> 40) |
		((v & 0xff00000000000000) >> 56)
}

// Hash64 computes the 64-bit CityHash of data.
func Hash64(s []byte) uint64 {
	length := len(s)

	if length <= 32 {
		if length <= 16 {
			return hashLen0to16(s)
		}
		return hashLen17to32(s)
	}
	if length <= 64 {
		return hashLen33to64(s)
	}

	x := fetch64(s[length-40:])
	y := fetch64(s[length-16:]) + fetch64(s[length-56:])
	z := hashLen16(fetch64(s[length-48:])+uint64(length), fetch64(s[length-24:]))

	vFirst, vSecond := weakHashLen32WithSeedsBytes(s[length-64:], uint64(length), z)
	wFirst, wSecond := weakHashLen32WithSeedsBytes(s[length-32:], y+k1, x)
	x = x*k1 + fetch64(s)

	length = (length - 1) &^ 63
	for {
		x = rotate(x+vFirst+fetch64(s[16:]), 37) * k1
		y = rotate(y+vSecond+fetch64(s[48:]), 42) * k1
		x ^= wSecond
		y ^= vFirst
		z = rotate(z^wFirst, 33)
		vFirst, vSecond = weakHashLen32WithSeedsBytes(s, vSecond*k1, x+wFirst)
		wFirst, wSecond = weakHashLen32WithSeedsBytes(s[32:], z+wSecond, y)
		z, x = x, z
		s = s[64:]
		length -= 64
		if length == 0 {
			break
		}
	}

	return hashLen16(hashLen16(vFirst, wFirst)+shiftMix(y)*k1+z, hashLen16(vSecond, wSecond)+x)
}

// Hash64String is a convenience wrapper over Hash64 for string input.
func Hash64String(s string) uint64 {
	return Hash64([]byte(s))
}
