package util

import (
	"math/rand"
	"strconv"

	"github.com/fogleman/ease"
)

// RandomBetween returns a uniformly distributed value in [min, max).
func RandomBetween(min float64, max float64) float64 {
	return rand.Float64()*(max-min) + min
}

// GenerateLut builds a there-and-back easing table of the given length.
func GenerateLut(length int) []float64 {
	increment := 1.0 / float64(length/2)
	lut := make([]float64, length)
	for i, j := 0, length-1; i < length/2; i, j = i+1, j-1 {
		value := float64(i) * increment
		lut[i] = ease.InOutQuad(value)
		lut[j] = ease.InOutQuad(value)
	}
	return lut
}

// Digits renders single digit values with a leading zero. Values of two or
// more digits are returned unchanged, which is enough for month, day, hour
// and minute fields.
func Digits(v int) string {
	if v/10 == 0 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}
