package mathx

import (
	"github.com/chewxy/math32"
)

// RoundTo は x を小数点以下 digits 桁に丸める。
func RoundTo(x float32, digits int) float32 {
	p := math32.Pow10(digits)
	return math32.Round(x*p) / p
}

// SafeDiv は den == 0 の時に 0 を返す割り算。
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
